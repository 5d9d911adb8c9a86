package simulation

import (
	"context"
	"math"
	"sync"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/phase"
	"lintang/greenwave/pkg/engine/proximity"

	"github.com/sirupsen/logrus"
)

type Options struct {
	PhaseInterval     time.Duration
	ProximityInterval time.Duration
	SpeedMps          float64

	// dipanggil di luar lock, boleh nil
	OnTransitions func([]phase.Transition)
	OnProximity   func(proximity.TickResult)
}

func DefaultOptions() Options {
	return Options{
		PhaseInterval:     time.Second,
		ProximityInterval: time.Second,
		SpeedMps:          12.5,
	}
}

// Controller drives the phase scheduler and the proximity tracker from two independent tickers.
// Every state read or write goes through mu, so a snapshot never sees a half-applied tick.
type Controller struct {
	mu        sync.Mutex
	scheduler *phase.Scheduler
	tracker   *proximity.Tracker
	opts      Options
	log       *logrus.Entry

	path     []datastructure.Coordinate
	agent    *datastructure.Coordinate
	playback *Playback

	// lifecycle; runMu serializes Start/Stop/Reset
	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewController(scheduler *phase.Scheduler, tracker *proximity.Tracker, opts Options, logger *logrus.Entry) *Controller {
	if logger == nil {
		logger = logrus.WithField("module", "simulation")
	}
	def := DefaultOptions()
	if opts.PhaseInterval <= 0 {
		opts.PhaseInterval = def.PhaseInterval
	}
	if opts.ProximityInterval <= 0 {
		opts.ProximityInterval = def.ProximityInterval
	}
	if opts.SpeedMps <= 0 {
		opts.SpeedMps = def.SpeedMps
	}
	return &Controller{
		scheduler: scheduler,
		tracker:   tracker,
		opts:      opts,
		log:       logger,
	}
}

func (c *Controller) TickPhase(deltaSeconds float64) []phase.Transition {
	c.mu.Lock()
	trs := c.scheduler.Tick(deltaSeconds)
	c.mu.Unlock()

	if len(trs) > 0 && c.opts.OnTransitions != nil {
		c.opts.OnTransitions(trs)
	}
	return trs
}

// TickProximity advances an active playback to now and evaluates the tracker at the agent position.
func (c *Controller) TickProximity(ctx context.Context, now time.Time) proximity.TickResult {
	c.mu.Lock()
	if c.playback != nil {
		pos := c.playback.Advance(now)
		c.agent = &pos
		if c.playback.Finished() {
			c.log.Info("playback reached end of route")
			c.playback = nil
		}
	}
	res := c.tracker.Tick(ctx, c.agent, now)
	c.mu.Unlock()

	c.observeProximity(res)
	return res
}

func (c *Controller) observeProximity(res proximity.TickResult) {
	if c.opts.OnProximity != nil {
		c.opts.OnProximity(res)
	}
}

// SetAgentPosition replaces the agent position and stops any playback feeding it.
func (c *Controller) SetAgentPosition(pos datastructure.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playback = nil
	c.agent = &pos
}

// UpdateAgentPosition sets the position and runs one proximity tick at it.
func (c *Controller) UpdateAgentPosition(ctx context.Context, pos datastructure.Coordinate, now time.Time) proximity.TickResult {
	c.mu.Lock()
	c.playback = nil
	c.agent = &pos
	res := c.tracker.Tick(ctx, c.agent, now)
	c.mu.Unlock()

	c.observeProximity(res)
	return res
}

func (c *Controller) SetRoute(path []datastructure.Coordinate, matched []datastructure.MatchedCluster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = append([]datastructure.Coordinate(nil), path...)
	c.playback = nil
	c.tracker.SetRoute(c.path, matched)
}

func (c *Controller) UpdateDemand(demand map[string]datastructure.TrafficDemand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler.UpdateDemand(demand)
}

func (c *Controller) StartPlayback(multiplier int) (PlaybackStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pb, err := NewPlayback(c.path, c.opts.SpeedMps, multiplier)
	if err != nil {
		return PlaybackStatus{}, err
	}
	c.playback = pb
	pos := pb.Position()
	c.agent = &pos
	return pb.Status(), nil
}

// SetPlaybackSpeed changes the multiplier of the running playback without moving the agent.
func (c *Controller) SetPlaybackSpeed(multiplier int) (PlaybackStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback == nil {
		return PlaybackStatus{}, ErrNoPlayback
	}
	if err := c.playback.SetMultiplier(multiplier); err != nil {
		return PlaybackStatus{}, err
	}
	return c.playback.Status(), nil
}

func (c *Controller) StopPlayback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	stopped := c.playback != nil
	c.playback = nil
	return stopped
}

func (c *Controller) PlaybackStatus() (PlaybackStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback == nil {
		return PlaybackStatus{}, false
	}
	return c.playback.Status(), true
}

func (c *Controller) ProximityState() datastructure.ProximityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.State()
}

func (c *Controller) Snapshot() datastructure.SignalSnapshot {
	c.runMu.Lock()
	running := c.running
	c.runMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.scheduler.State()
	var agent *datastructure.Coordinate
	if c.agent != nil {
		a := *c.agent
		agent = &a
	}
	return datastructure.SignalSnapshot{
		PerDirectionColor:   c.scheduler.Colors(),
		CurrentPhaseName:    st.CurrentPhase.Name,
		RemainingSeconds:    int(math.Ceil(st.RemainingSeconds)),
		NextPhaseName:       st.NextPhase.Name,
		NextDurationSeconds: st.NextDurationSeconds,
		Transitioning:       st.Transitioning,
		ActiveClusterID:     c.tracker.State().ActiveClusterID,
		AgentPosition:       agent,
		Running:             running,
		Phases:              c.scheduler.Phases(),
		Demand:              c.scheduler.Demand(),
	}
}

func (c *Controller) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.running
}

// Start launches the phase and proximity tickers. It returns false when already running.
func (c *Controller) Start(ctx context.Context) bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.running {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	go c.run(ctx, c.done)
	c.log.WithFields(logrus.Fields{
		"phase_interval":     c.opts.PhaseInterval,
		"proximity_interval": c.opts.ProximityInterval,
	}).Info("simulation started")
	return true
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	phaseTicker := time.NewTicker(c.opts.PhaseInterval)
	defer phaseTicker.Stop()
	proximityTicker := time.NewTicker(c.opts.ProximityInterval)
	defer proximityTicker.Stop()

	dt := c.opts.PhaseInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-phaseTicker.C:
			c.TickPhase(dt)
		case now := <-proximityTicker.C:
			c.TickProximity(ctx, now)
		}
	}
}

// Stop halts both tickers and clears transient state. Calling it again is a no-op apart from the clearing.
func (c *Controller) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.running {
		c.cancel()
		<-c.done
		c.running = false
		c.cancel = nil
		c.done = nil
		c.log.Info("simulation stopped")
	}
	c.clear()
}

// Reset clears scheduler, tracker and agent state without touching the tickers.
func (c *Controller) Reset() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.clear()
}

func (c *Controller) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler.Reset()
	c.tracker.Reset()
	c.playback = nil
	c.agent = nil
}
