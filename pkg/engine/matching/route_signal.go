package matching

import (
	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"
)

/*
MatchClustersToRoute. bind junction cluster ke edge rute sesuai urutan traversal.

untuk tiap edge i (0..len(path)-2), dari cluster yang belum terpakai dipilih yang jarak centroid ke
edge paling kecil. kalau jaraknya <= thresholdMeters, cluster di-bind ke edge i dan ditandai terpakai.
maksimal satu cluster per edge; cluster yang kalah tetap jadi kandidat untuk edge berikutnya.
cluster yang lebih jauh dari threshold terhadap semua edge di-drop.
*/
func MatchClustersToRoute(path []datastructure.Coordinate, clusters []datastructure.SignalCluster,
	thresholdMeters float64) []datastructure.MatchedCluster {
	matched := make([]datastructure.MatchedCluster, 0)
	if len(path) < 2 || len(clusters) == 0 {
		return matched
	}

	used := make([]bool, len(clusters))
	for i, edge := range datastructure.Edges(path) {
		best := -1
		bestDist := 0.0
		for ci, c := range clusters {
			if used[ci] {
				continue
			}
			d := geo.PointToSegmentDistance(c.Centroid, edge.Start, edge.End)
			if best == -1 || d < bestDist {
				best = ci
				bestDist = d
			}
		}
		if best == -1 {
			// semua cluster sudah terpakai
			break
		}
		if bestDist <= thresholdMeters {
			used[best] = true
			matched = append(matched, datastructure.MatchedCluster{
				Cluster:         clusters[best],
				RouteOrderIndex: i,
			})
		}
	}

	return matched
}
