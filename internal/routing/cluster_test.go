package routing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meter-route-planner/internal/models"
)

func stopAt(id string, lat, lng float64) *models.Stop {
	return &models.Stop{
		ID:       id,
		Location: models.LocatedAt(models.GeoPoint{Lat: lat, Lng: lng}),
		Status:   models.StatusPending,
	}
}

func unlocatedStop(id string) *models.Stop {
	return &models.Stop{ID: id, Status: models.StatusPending}
}

func clusterIDs(c Cluster) []string {
	ids := make([]string, len(c.Stops))
	for i, s := range c.Stops {
		ids[i] = s.ID
	}
	return ids
}

func TestBuildClustersEmpty(t *testing.T) {
	clusters := BuildClusters(nil, 0.5)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestBuildClustersGroupsWithinRadius(t *testing.T) {
	stops := []*models.Stop{
		stopAt("a", 24.10, 55.70),
		stopAt("b", 24.11, 55.71),
		stopAt("c", 24.50, 56.00),
	}

	clusters := BuildClusters(stops, 5)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, clusterIDs(clusters[0]))
	assert.Equal(t, []string{"c"}, clusterIDs(clusters[1]))
}

func TestBuildClustersSmallRadiusSeparates(t *testing.T) {
	stops := []*models.Stop{
		stopAt("a", 24.10, 55.70),
		stopAt("b", 24.11, 55.71),
	}

	// ~1.5km apart
	clusters := BuildClusters(stops, 0.5)
	assert.Len(t, clusters, 2)
}

func TestBuildClustersStarShaped(t *testing.T) {
	// b is ~0.44km from a, c is ~0.44km from b but ~0.89km from a
	stops := []*models.Stop{
		stopAt("a", 24.100, 55.700),
		stopAt("b", 24.104, 55.700),
		stopAt("c", 24.108, 55.700),
	}

	clusters := BuildClusters(stops, 0.5)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, clusterIDs(clusters[0]))
	assert.Equal(t, []string{"c"}, clusterIDs(clusters[1]))
}

func TestBuildClustersOrderDependent(t *testing.T) {
	a := stopAt("a", 24.100, 55.700)
	b := stopAt("b", 24.104, 55.700)
	c := stopAt("c", 24.108, 55.700)

	// Seeding from the middle stop captures both neighbours
	clusters := BuildClusters([]*models.Stop{b, a, c}, 0.5)

	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"b", "a", "c"}, clusterIDs(clusters[0]))
}

func TestBuildClustersSkipsUnlocated(t *testing.T) {
	stops := []*models.Stop{
		unlocatedStop("x"),
		stopAt("a", 24.10, 55.70),
		nil,
	}

	clusters := BuildClusters(stops, 0.5)

	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"a"}, clusterIDs(clusters[0]))
}

func TestBuildClustersPartition(t *testing.T) {
	stops := make([]*models.Stop, 0, 60)
	for i := 0; i < 60; i++ {
		lat := 24.0 + float64(i%7)*0.003 + float64(i/7)*0.02
		lng := 55.6 + float64(i%5)*0.004
		stops = append(stops, stopAt(fmt.Sprintf("s%d", i), lat, lng))
	}

	for _, radius := range []float64{0.1, 0.5, 2, 50} {
		t.Run(fmt.Sprintf("radius=%v", radius), func(t *testing.T) {
			clusters := BuildClusters(stops, radius)

			seen := make(map[string]int)
			total := 0
			for _, c := range clusters {
				require.NotEmpty(t, c.Stops)
				total += len(c.Stops)
				for _, s := range c.Stops {
					seen[s.ID]++
				}
			}

			assert.Equal(t, len(stops), total)
			assert.Len(t, seen, len(stops))
			for id, n := range seen {
				assert.Equal(t, 1, n, "stop %s in %d clusters", id, n)
			}
		})
	}
}

func TestClusterCentroid(t *testing.T) {
	c := Cluster{Stops: []*models.Stop{
		stopAt("a", 24.0, 55.0),
		stopAt("b", 24.2, 55.4),
	}}

	centroid := c.Centroid()
	assert.InDelta(t, 24.1, centroid.Lat, 1e-12)
	assert.InDelta(t, 55.2, centroid.Lng, 1e-12)

	assert.Equal(t, models.GeoPoint{}, Cluster{}.Centroid())
}
