package clustering

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/cespare/xxhash/v2"
	"github.com/dhconnelly/rtreego"
)

const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

type signalItem struct {
	idx  int
	node datastructure.SignalNode
	rect rtreego.Rect
}

func (s *signalItem) Bounds() rtreego.Rect {
	return s.rect
}

func newSignalItem(idx int, node datastructure.SignalNode) *signalItem {
	return &signalItem{
		idx:  idx,
		node: node,
		rect: rtreego.Point{node.Position.Lat, node.Position.Lon}.ToRect(1e-9),
	}
}

// searchTolerance returns a degree half-width that covers thresholdMeters around c in both axes.
func searchTolerance(c datastructure.Coordinate, thresholdMeters float64) float64 {
	dLat := thresholdMeters / metersPerDegree
	cosLat := math.Cos(c.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := dLat / cosLat
	return math.Max(dLat, dLon) * 1.05
}

/*
Cluster. single-link agglomeration dari traffic signal mentah menjadi junction cluster.

node yang belum masuk cluster di iterasi sesuai urutan input; tiap node jadi seed cluster baru dan
menyerap (bfs) semua node lain yang jaraknya <= thresholdMeters dari salah satu member cluster.
Jadi membership = transitive closure dari relasi "within threshold".
Kandidat tetangga diambil dari rtree, lalu dicek pakai haversine. Hasil sama dengan scan O(n^2).
*/
func Cluster(nodes []datastructure.SignalNode, thresholdMeters float64) []datastructure.SignalCluster {
	clusters := make([]datastructure.SignalCluster, 0)
	if len(nodes) == 0 {
		return clusters
	}

	if thresholdMeters <= 0 {
		for _, n := range nodes {
			clusters = append(clusters, newCluster([]datastructure.SignalNode{n}))
		}
		return clusters
	}

	items := make([]*signalItem, len(nodes))
	spatials := make([]rtreego.Spatial, len(nodes))
	for i, n := range nodes {
		items[i] = newSignalItem(i, n)
		spatials[i] = items[i]
	}
	rt := rtreego.NewTree(2, 25, 50, spatials...)

	clustered := make([]bool, len(nodes))
	for i := range nodes {
		if clustered[i] {
			continue
		}
		clustered[i] = true
		memberIdx := []int{i}

		queue := []int{i}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			curPos := nodes[cur].Position

			tol := searchTolerance(curPos, thresholdMeters)
			box := rtreego.Point{curPos.Lat, curPos.Lon}.ToRect(tol)
			candidates := rt.SearchIntersect(box)

			neighbors := make([]int, 0, len(candidates))
			for _, c := range candidates {
				it := c.(*signalItem)
				if clustered[it.idx] {
					continue
				}
				if geo.Distance(curPos, it.node.Position) <= thresholdMeters {
					neighbors = append(neighbors, it.idx)
				}
			}
			// urutan kunjungan mengikuti urutan input biar hasil stabil
			sort.Ints(neighbors)
			for _, nb := range neighbors {
				clustered[nb] = true
				memberIdx = append(memberIdx, nb)
				queue = append(queue, nb)
			}
		}

		sort.Ints(memberIdx)
		members := make([]datastructure.SignalNode, len(memberIdx))
		for j, idx := range memberIdx {
			members[j] = nodes[idx]
		}
		clusters = append(clusters, newCluster(members))
	}

	return clusters
}

func newCluster(members []datastructure.SignalNode) datastructure.SignalCluster {
	var sumLat, sumLon float64
	label := datastructure.UnnamedLabel
	labelFound := false
	for _, m := range members {
		sumLat += m.Position.Lat
		sumLon += m.Position.Lon
		if !labelFound && m.Label != "" && m.Label != datastructure.UnnamedLabel {
			label = m.Label
			labelFound = true
		}
	}
	n := float64(len(members))

	return datastructure.SignalCluster{
		ID:       ClusterID(members),
		Centroid: datastructure.NewCoordinate(sumLat/n, sumLon/n),
		Label:    label,
		Members:  members,
	}
}

// ClusterID hashes the sorted member ids, so the id does not depend on input order.
func ClusterID(members []datastructure.SignalNode) string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	return fmt.Sprintf("jc-%016x", xxhash.Sum64String(strings.Join(ids, "\x00")))
}
