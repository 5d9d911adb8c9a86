package clustering_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/clustering"
	"lintang/greenwave/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

var origin = datastructure.NewCoordinate(12.9716, 77.5946)

func east(meters float64) datastructure.Coordinate {
	return datastructure.NewCoordinate(origin.Lat, origin.Lon+meters/(metersPerDegree*math.Cos(origin.Lat*math.Pi/180)))
}

func node(id string, c datastructure.Coordinate, label string) datastructure.SignalNode {
	return datastructure.SignalNode{ID: id, Position: c, Label: label}
}

func TestClusterThreeNodes(t *testing.T) {
	// A-B 10 m, B-C 10 m, A-C 20 m
	nodes := []datastructure.SignalNode{
		node("A", east(0), "Unnamed"),
		node("B", east(10), "MG Road Junction"),
		node("C", east(20), "Brigade Road"),
	}

	clusters := clustering.Cluster(nodes, 60)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Len(t, c.Members, 3)
	assert.Equal(t, "MG Road Junction", c.Label)
	assert.Equal(t, []string{"A", "B", "C"}, []string{c.Members[0].ID, c.Members[1].ID, c.Members[2].ID})
	assert.InDelta(t, east(10).Lat, c.Centroid.Lat, 1e-9)
	assert.InDelta(t, east(10).Lon, c.Centroid.Lon, 1e-9)
	assert.Regexp(t, `^jc-[0-9a-f]{16}$`, c.ID)
}

func TestClusterTransitivity(t *testing.T) {
	// A-C lebih dari threshold tapi terhubung lewat B
	nodes := []datastructure.SignalNode{
		node("A", east(0), ""),
		node("C", east(100), ""),
		node("B", east(50), ""),
		node("D", east(400), "Far"),
	}

	clusters := clustering.Cluster(nodes, 60)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Members, 3)
	assert.Equal(t, "A", clusters[0].Members[0].ID)
	assert.Equal(t, "C", clusters[0].Members[1].ID)
	assert.Equal(t, "B", clusters[0].Members[2].ID)
	assert.Equal(t, datastructure.UnnamedLabel, clusters[0].Label)

	assert.Len(t, clusters[1].Members, 1)
	assert.Equal(t, "Far", clusters[1].Label)
}

func TestClusterEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, clustering.Cluster(nil, 60))
	})

	t.Run("non positive threshold", func(t *testing.T) {
		nodes := []datastructure.SignalNode{node("A", east(0), ""), node("B", east(0), "")}
		clusters := clustering.Cluster(nodes, 0)
		require.Len(t, clusters, 2)
		assert.NotEqual(t, clusters[0].ID, clusters[1].ID)
	})

	t.Run("id is independent of input order", func(t *testing.T) {
		a := []datastructure.SignalNode{node("A", east(0), ""), node("B", east(5), "")}
		b := []datastructure.SignalNode{node("B", east(5), ""), node("A", east(0), "")}
		assert.Equal(t, clustering.Cluster(a, 60)[0].ID, clustering.Cluster(b, 60)[0].ID)
	})
}

// bruteForce adalah scan O(n^2) sebagai pembanding hasil rtree.
func bruteForce(nodes []datastructure.SignalNode, threshold float64) [][]string {
	clustered := make([]bool, len(nodes))
	out := [][]string{}
	for i := range nodes {
		if clustered[i] {
			continue
		}
		clustered[i] = true
		group := []int{i}
		for k := 0; k < len(group); k++ {
			for j := range nodes {
				if !clustered[j] && geo.Distance(nodes[group[k]].Position, nodes[j].Position) <= threshold {
					clustered[j] = true
					group = append(group, j)
				}
			}
		}
		ids := make([]bool, len(nodes))
		for _, g := range group {
			ids[g] = true
		}
		members := []string{}
		for j, ok := range ids {
			if ok {
				members = append(members, nodes[j].ID)
			}
		}
		out = append(out, members)
	}
	return out
}

func TestClusterMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nodes := make([]datastructure.SignalNode, 0, 300)
	for i := 0; i < 300; i++ {
		lat := origin.Lat + (rng.Float64()-0.5)*0.02
		lon := origin.Lon + (rng.Float64()-0.5)*0.02
		nodes = append(nodes, node(fmt.Sprintf("n%d", i), datastructure.NewCoordinate(lat, lon), ""))
	}

	expected := bruteForce(nodes, 60)
	clusters := clustering.Cluster(nodes, 60)
	require.Len(t, clusters, len(expected))

	total := 0
	for i, c := range clusters {
		ids := make([]string, len(c.Members))
		for j, m := range c.Members {
			ids[j] = m.ID
		}
		assert.Equal(t, expected[i], ids)
		total += len(c.Members)
	}
	assert.Equal(t, len(nodes), total)
}
