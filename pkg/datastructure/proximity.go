package datastructure

import "time"

// ProximityState: paling banyak satu cluster active. Notified id hanya di-clear setelah agent lewat exit hysteresis.
type ProximityState struct {
	ActiveClusterID              *string `json:"active_cluster_id"`
	NotifiedApproachForClusterID *string `json:"notified_approach_for_cluster_id"`
}

// ProximityEvent is emitted once per contiguous approach to a junction cluster.
type ProximityEvent struct {
	ID              string     `json:"id"`
	ClusterID       string     `json:"clusterId"`
	Label           string     `json:"label"`
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
	DistanceMeters  float64    `json:"distanceMeters"`
	Timestamp       string     `json:"timestamp"`
	AgentPosition   Coordinate `json:"agentPosition"`
	RouteOrderIndex int        `json:"routeOrderIndex"`
	Heading         string     `json:"heading,omitempty"`
}

// Time parses the RFC 3339 timestamp of the event.
func (e ProximityEvent) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

type SignalSnapshot struct {
	PerDirectionColor   map[string]SignalColor `json:"per_direction_color"`
	CurrentPhaseName    string                 `json:"current_phase_name"`
	RemainingSeconds    int                    `json:"remaining_seconds"`
	NextPhaseName       string                 `json:"next_phase_name"`
	NextDurationSeconds int                    `json:"next_duration_seconds"`
	Transitioning       bool                   `json:"transitioning"`
	ActiveClusterID     *string                `json:"active_cluster_id"`
	AgentPosition       *Coordinate            `json:"agent_position"`
	Running             bool                   `json:"running"`
	Phases              []PhaseDefinition      `json:"phases"`
	// demand terakhir per arah, dipakai untuk menghitung durasi phase berikutnya
	Demand map[string]TrafficDemand `json:"demand"`
}
