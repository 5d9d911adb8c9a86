package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/demand"
	"lintang/greenwave/pkg/engine/clustering"
	"lintang/greenwave/pkg/engine/matching"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/geodata"
	"lintang/greenwave/pkg/server"
	"lintang/greenwave/pkg/simulation"

	"github.com/sirupsen/logrus"
)

type SignalResolver interface {
	Resolve(ctx context.Context, bbox geo.BBox) geodata.Result
}

type Simulation interface {
	SetRoute(path []datastructure.Coordinate, matched []datastructure.MatchedCluster)
	UpdateAgentPosition(ctx context.Context, pos datastructure.Coordinate, now time.Time) proximity.TickResult
	UpdateDemand(demand map[string]datastructure.TrafficDemand)
	ProximityState() datastructure.ProximityState
	Snapshot() datastructure.SignalSnapshot
	StartPlayback(multiplier int) (simulation.PlaybackStatus, error)
	SetPlaybackSpeed(multiplier int) (simulation.PlaybackStatus, error)
	StopPlayback() bool
	PlaybackStatus() (simulation.PlaybackStatus, bool)
	Start(ctx context.Context) bool
	Stop()
	Reset()
}

var ErrNoRouteContext = errors.New("no route has been set")

type Config struct {
	ClusterThresholdMeters float64
	MatchThresholdMeters   float64
}

// RouteContext is everything derived from one route: the signals around it, their junction
// clusters and the clusters matched onto the route in traversal order.
type RouteContext struct {
	Path     []datastructure.Coordinate     `json:"path"`
	Clusters []datastructure.SignalCluster  `json:"clusters"`
	Matched  []datastructure.MatchedCluster `json:"matched"`
	Source   string                         `json:"source"`
	BuiltAt  time.Time                      `json:"built_at"`
}

type GreenWaveService struct {
	cfg     Config
	signals SignalResolver
	sim     Simulation
	log     *logrus.Entry

	// OnRoute is called after a route context is activated.
	OnRoute func(RouteContext)

	mu    sync.RWMutex
	route *RouteContext
	// ctx untuk ticker simulasi, bukan context request
	runCtx context.Context
}

func NewGreenWaveService(ctx context.Context, cfg Config, signals SignalResolver, sim Simulation,
	logger *logrus.Entry) *GreenWaveService {
	if logger == nil {
		logger = logrus.WithField("module", "greenwave")
	}
	return &GreenWaveService{
		cfg:     cfg,
		signals: signals,
		sim:     sim,
		log:     logger,
		runCtx:  ctx,
	}
}

/*
BuildRouteContext. pipeline sekali per rute baru:
bounding box rute (dipad sebesar match threshold) -> sumber signal (dengan fallback) -> cluster -> match ke rute.
gagal ambil geodata tidak jadi error, fallback ke static list.
*/
func (s *GreenWaveService) BuildRouteContext(ctx context.Context, path []datastructure.Coordinate) (RouteContext, error) {
	if len(path) < 2 {
		return RouteContext{}, server.WrapErrorf(simulation.ErrNoRoute, server.ErrBadParamInput,
			"route needs at least 2 points, got %d", len(path))
	}

	bbox := geo.BoundingBox(path, s.cfg.MatchThresholdMeters)
	res := s.signals.Resolve(ctx, bbox)
	clusters := clustering.Cluster(res.Nodes, s.cfg.ClusterThresholdMeters)
	matched := matching.MatchClustersToRoute(path, clusters, s.cfg.MatchThresholdMeters)

	s.log.WithFields(logrus.Fields{
		"source":   res.Source,
		"signals":  len(res.Nodes),
		"clusters": len(clusters),
		"matched":  len(matched),
	}).Info("route context built")

	return RouteContext{
		Path:     path,
		Clusters: clusters,
		Matched:  matched,
		Source:   res.Source,
		BuiltAt:  time.Now().UTC(),
	}, nil
}

// SetRoute builds the route context and activates it in the simulation.
func (s *GreenWaveService) SetRoute(ctx context.Context, path []datastructure.Coordinate) (RouteContext, error) {
	rc, err := s.BuildRouteContext(ctx, path)
	if err != nil {
		return RouteContext{}, err
	}

	s.mu.Lock()
	s.route = &rc
	s.sim.SetRoute(rc.Path, rc.Matched)
	s.mu.Unlock()

	if s.OnRoute != nil {
		s.OnRoute(rc)
	}
	return rc, nil
}

func (s *GreenWaveService) RouteContext() (RouteContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.route == nil {
		return RouteContext{}, server.WrapErrorf(ErrNoRouteContext, server.ErrNotFound, "no active route")
	}
	return *s.route, nil
}

func (s *GreenWaveService) UpdateAgentPosition(ctx context.Context, pos datastructure.Coordinate) proximity.TickResult {
	return s.sim.UpdateAgentPosition(ctx, pos, time.Now())
}

func (s *GreenWaveService) ProximityState() datastructure.ProximityState {
	return s.sim.ProximityState()
}

// IngestDemand normalizes a raw demand document and feeds it to the phase scheduler.
func (s *GreenWaveService) IngestDemand(raw json.RawMessage) ([]datastructure.TrafficDemand, error) {
	records, err := demand.Normalize(raw)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "invalid demand document: %v", err)
	}
	s.sim.UpdateDemand(demand.ByDirection(records))
	return records, nil
}

func (s *GreenWaveService) Snapshot() datastructure.SignalSnapshot {
	return s.sim.Snapshot()
}

func (s *GreenWaveService) StartPlayback(multiplier int) (simulation.PlaybackStatus, error) {
	st, err := s.sim.StartPlayback(multiplier)
	switch {
	case errors.Is(err, simulation.ErrInvalidMultiplier):
		return st, server.WrapErrorf(err, server.ErrBadParamInput, "%v", err)
	case errors.Is(err, simulation.ErrNoRoute):
		return st, server.WrapErrorf(err, server.ErrConflict, "set a route before starting playback")
	case err != nil:
		return st, server.WrapErrorf(err, server.ErrInternalServerError, "%s", server.MessageInternalServerError)
	}
	return st, nil
}

func (s *GreenWaveService) SetPlaybackSpeed(multiplier int) (simulation.PlaybackStatus, error) {
	st, err := s.sim.SetPlaybackSpeed(multiplier)
	switch {
	case errors.Is(err, simulation.ErrInvalidMultiplier):
		return st, server.WrapErrorf(err, server.ErrBadParamInput, "%v", err)
	case errors.Is(err, simulation.ErrNoPlayback):
		return st, server.WrapErrorf(err, server.ErrNotFound, "no playback running")
	case err != nil:
		return st, server.WrapErrorf(err, server.ErrInternalServerError, "%s", server.MessageInternalServerError)
	}
	s.log.WithField("speed_multiplier", multiplier).Info("playback speed changed")
	return st, nil
}

func (s *GreenWaveService) StopPlayback() bool {
	return s.sim.StopPlayback()
}

func (s *GreenWaveService) PlaybackStatus() (simulation.PlaybackStatus, bool) {
	return s.sim.PlaybackStatus()
}

func (s *GreenWaveService) Start() bool {
	return s.sim.Start(s.runCtx)
}

func (s *GreenWaveService) Stop() {
	s.sim.Stop()
}

func (s *GreenWaveService) Reset() {
	s.sim.Reset()
}
