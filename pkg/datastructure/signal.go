package datastructure

// SignalNode adalah satu titik traffic signal mentah dari sumber geodata (misal node osm highway=traffic_signals).
type SignalNode struct {
	ID       string     `json:"id"`
	Position Coordinate `json:"position"`
	Label    string     `json:"label"`
}

// SignalCluster groups physically close SignalNodes that form one junction.
type SignalCluster struct {
	ID       string       `json:"id"`
	Centroid Coordinate   `json:"centroid"`
	Label    string       `json:"label"`
	Members  []SignalNode `json:"members"`
}

// MatchedCluster binds a cluster to the route edge index it was matched on.
type MatchedCluster struct {
	Cluster         SignalCluster `json:"cluster"`
	RouteOrderIndex int           `json:"route_order_index"`
}

const UnnamedLabel = "Unnamed"
