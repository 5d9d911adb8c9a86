package proximity

import (
	"context"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEntryThresholdMeters = 200.0
	DefaultExitHysteresisMeters = 100.0
)

type Config struct {
	EntryThresholdMeters float64 `yaml:"entry_threshold_meters"`
	ExitHysteresisMeters float64 `yaml:"exit_hysteresis_meters"`
}

func DefaultConfig() Config {
	return Config{
		EntryThresholdMeters: DefaultEntryThresholdMeters,
		ExitHysteresisMeters: DefaultExitHysteresisMeters,
	}
}

// Emitter receives approach notifications. Implementations should not block for long;
// the tracker calls Emit while the caller holds its state lock.
type Emitter interface {
	Emit(ctx context.Context, event datastructure.ProximityEvent) error
}

type TickResult struct {
	ActiveClusterID  *string                       `json:"active_cluster_id"`
	NearestClusterID *string                       `json:"nearest_cluster_id"`
	DistanceMeters   *float64                      `json:"distance_meters"`
	Emitted          *datastructure.ProximityEvent `json:"emitted,omitempty"`
	Exited           string                        `json:"exited,omitempty"`
}

type routeCluster struct {
	matched     datastructure.MatchedCluster
	vertexIndex int
}

// Tracker decides which junction ahead of the agent currently holds priority.
// Not safe for concurrent use.
type Tracker struct {
	cfg     Config
	emitter Emitter
	log     *logrus.Entry

	route    *geo.PathIndex
	clusters []routeCluster
	state    datastructure.ProximityState
}

func NewTracker(cfg Config, emitter Emitter, logger *logrus.Entry) *Tracker {
	if logger == nil {
		logger = logrus.WithField("module", "proximity")
	}
	return &Tracker{
		cfg:     cfg,
		emitter: emitter,
		log:     logger,
		route:   geo.NewPathIndex(nil),
	}
}

// SetRoute replaces the active route and clears the proximity state.
func (t *Tracker) SetRoute(path []datastructure.Coordinate, matched []datastructure.MatchedCluster) {
	t.route = geo.NewPathIndex(path)
	t.clusters = make([]routeCluster, 0, len(matched))
	for _, m := range matched {
		t.clusters = append(t.clusters, routeCluster{
			matched:     m,
			vertexIndex: t.route.Project(m.Cluster.Centroid),
		})
	}
	t.state = datastructure.ProximityState{}
}

func (t *Tracker) State() datastructure.ProximityState {
	return datastructure.ProximityState{
		ActiveClusterID:              copyStr(t.state.ActiveClusterID),
		NotifiedApproachForClusterID: copyStr(t.state.NotifiedApproachForClusterID),
	}
}

func (t *Tracker) Reset() {
	t.state = datastructure.ProximityState{}
}

/*
Tick. satu langkah evaluasi proximity untuk posisi agent.

 1. cari matched cluster dengan signed route distance non-negatif terkecil (tie: RouteOrderIndex terkecil).
 2. kalau jaraknya <= EntryThresholdMeters, cluster itu jadi active. kalau belum pernah dinotifikasi
    untuk approach ini, emit tepat satu ProximityEvent.
 3. kalau signed distance cluster active < -ExitHysteresisMeters (sudah lewat), clear active & notified.
 4. selain itu state tidak berubah.

agent nil atau rute < 2 titik: tidak ada yang dikerjakan.
*/
func (t *Tracker) Tick(ctx context.Context, agent *datastructure.Coordinate, now time.Time) TickResult {
	if agent == nil || !t.route.Valid() {
		return TickResult{}
	}

	ai := t.route.Project(*agent)

	nearest := -1
	nearestDist := 0.0
	for i, rc := range t.clusters {
		d := t.route.SignedDistanceBetween(ai, rc.vertexIndex)
		if d < 0 {
			continue
		}
		if nearest == -1 || d < nearestDist ||
			(d == nearestDist && rc.matched.RouteOrderIndex < t.clusters[nearest].matched.RouteOrderIndex) {
			nearest = i
			nearestDist = d
		}
	}

	res := TickResult{}
	if nearest != -1 {
		id := t.clusters[nearest].matched.Cluster.ID
		dist := nearestDist
		res.NearestClusterID = &id
		res.DistanceMeters = &dist

		if nearestDist <= t.cfg.EntryThresholdMeters {
			t.state.ActiveClusterID = copyStr(&id)
			if t.state.NotifiedApproachForClusterID == nil || *t.state.NotifiedApproachForClusterID != id {
				ev := t.newEvent(t.clusters[nearest], *agent, nearestDist, now)
				t.state.NotifiedApproachForClusterID = copyStr(&id)
				res.Emitted = &ev
				if t.emitter != nil {
					if err := t.emitter.Emit(ctx, ev); err != nil {
						t.log.WithError(err).WithField("cluster_id", id).Warn("emit proximity event")
					}
				}
			}
		}
	}

	if t.state.ActiveClusterID != nil {
		activeID := *t.state.ActiveClusterID
		for _, rc := range t.clusters {
			if rc.matched.Cluster.ID != activeID {
				continue
			}
			if t.route.SignedDistanceBetween(ai, rc.vertexIndex) < -t.cfg.ExitHysteresisMeters {
				t.log.WithField("cluster_id", activeID).Debug("agent passed junction, priority released")
				t.state = datastructure.ProximityState{}
				res.Exited = activeID
			}
			break
		}
	}

	res.ActiveClusterID = copyStr(t.state.ActiveClusterID)
	return res
}

func (t *Tracker) newEvent(rc routeCluster, agent datastructure.Coordinate, dist float64,
	now time.Time) datastructure.ProximityEvent {
	c := rc.matched.Cluster
	return datastructure.ProximityEvent{
		ID:              uuid.NewString(),
		ClusterID:       c.ID,
		Label:           c.Label,
		Lat:             c.Centroid.Lat,
		Lng:             c.Centroid.Lon,
		DistanceMeters:  dist,
		Timestamp:       now.UTC().Format(time.RFC3339Nano),
		AgentPosition:   agent,
		RouteOrderIndex: rc.matched.RouteOrderIndex,
		Heading:         t.approachHeading(rc.matched.RouteOrderIndex),
	}
}

// approachHeading is the compass direction of the route edge the junction was matched on.
func (t *Tracker) approachHeading(edgeIndex int) string {
	path := t.route.Path()
	if edgeIndex < 0 || edgeIndex+1 >= len(path) {
		return ""
	}
	return geo.CompassHeading(geo.BearingTo(path[edgeIndex], path[edgeIndex+1]))
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
