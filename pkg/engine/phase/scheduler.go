package phase

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"lintang/greenwave/pkg/datastructure"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var ErrNoPhases = errors.New("phase scheduler needs at least one phase")

type TransitionKind string

const (
	// TransitionYellow: countdown phase habis, arah phase lama jadi yellow.
	TransitionYellow TransitionKind = "yellow"
	// TransitionGreen: yellow window selesai, phase berikutnya mulai green.
	TransitionGreen TransitionKind = "green"
)

type Transition struct {
	Kind            TransitionKind `json:"kind"`
	From            string         `json:"from"`
	To              string         `json:"to"`
	DurationSeconds int            `json:"duration_seconds,omitempty"`
	Emergency       bool           `json:"emergency,omitempty"`
}

// Scheduler is the cyclic Steady -> Transitioning -> Steady state machine of one intersection.
// Not safe for concurrent use.
type Scheduler struct {
	phases []datastructure.PhaseDefinition
	timing Timing
	demand map[string]datastructure.TrafficDemand
	log    *logrus.Entry

	current         int
	remaining       float64
	transitioning   bool
	yellowRemaining float64
}

func NewScheduler(phases []datastructure.PhaseDefinition, timing Timing, logger *logrus.Entry) (*Scheduler, error) {
	if len(phases) == 0 {
		return nil, ErrNoPhases
	}
	names := make(map[string]struct{}, len(phases))
	for i, p := range phases {
		if p.Name == "" {
			return nil, fmt.Errorf("phase %d: empty name", i)
		}
		if len(p.Directions) == 0 {
			return nil, fmt.Errorf("phase %q: no directions", p.Name)
		}
		if _, ok := names[p.Name]; ok {
			return nil, fmt.Errorf("phase %q: duplicate name", p.Name)
		}
		names[p.Name] = struct{}{}
	}
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.WithField("module", "phase")
	}

	s := &Scheduler{
		phases: append([]datastructure.PhaseDefinition(nil), phases...),
		timing: timing,
		demand: map[string]datastructure.TrafficDemand{},
		log:    logger,
	}
	s.Reset()
	return s, nil
}

// UpdateDemand replaces the demand snapshot used for the next duration computation.
func (s *Scheduler) UpdateDemand(demand map[string]datastructure.TrafficDemand) {
	s.demand = make(map[string]datastructure.TrafficDemand, len(demand))
	for dir, d := range demand {
		s.demand[dir] = d
	}
}

func (s *Scheduler) Demand() map[string]datastructure.TrafficDemand {
	out := make(map[string]datastructure.TrafficDemand, len(s.demand))
	for dir, d := range s.demand {
		out[dir] = d
	}
	return out
}

func (s *Scheduler) nextIndex() int {
	return (s.current + 1) % len(s.phases)
}

/*
Tick. majukan state machine sebanyak deltaSeconds.

Steady: remaining dikurangi delta. kalau habis masuk Transitioning selama Yellow detik.
Transitioning: counter yellow sendiri; kalau habis pindah ke phase berikutnya (cyclic) dengan durasi
dihitung dari demand snapshot saat itu. sisa delta dibawa ke state berikutnya.
*/
func (s *Scheduler) Tick(deltaSeconds float64) []Transition {
	transitions := []Transition{}
	if math.IsNaN(deltaSeconds) || math.IsInf(deltaSeconds, 0) || deltaSeconds <= 0 {
		return transitions
	}

	delta := deltaSeconds
	if limit := s.maxTickSeconds(); delta > limit {
		// lebih dari satu siklus penuh tidak menambah informasi, potong supaya loop tetap pendek
		s.log.WithFields(logrus.Fields{"delta": deltaSeconds, "limit": limit}).Warn("phase tick delta capped")
		delta = limit
	}
	for delta > 0 {
		if !s.transitioning {
			if delta < s.remaining {
				s.remaining -= delta
				return transitions
			}
			delta -= s.remaining
			s.remaining = 0
			s.transitioning = true
			s.yellowRemaining = s.timing.Yellow
			tr := Transition{
				Kind: TransitionYellow,
				From: s.phases[s.current].Name,
				To:   s.phases[s.nextIndex()].Name,
			}
			s.log.WithFields(logrus.Fields{"from": tr.From, "to": tr.To}).Debug("phase countdown finished, yellow")
			transitions = append(transitions, tr)
			continue
		}

		if delta < s.yellowRemaining {
			s.yellowRemaining -= delta
			return transitions
		}
		delta -= s.yellowRemaining
		from := s.phases[s.current].Name
		s.current = s.nextIndex()
		decision := Evaluate(s.phases[s.current], s.demand, s.timing)
		s.remaining = float64(decision.Seconds)
		s.transitioning = false
		s.yellowRemaining = 0

		tr := Transition{
			Kind:            TransitionGreen,
			From:            from,
			To:              s.phases[s.current].Name,
			DurationSeconds: decision.Seconds,
			Emergency:       decision.Emergency,
		}
		s.log.WithFields(logrus.Fields{
			"phase":     tr.To,
			"duration":  tr.DurationSeconds,
			"emergency": tr.Emergency,
		}).Info("phase green")
		transitions = append(transitions, tr)
	}
	return transitions
}

// maxTickSeconds is an upper bound on one full cycle: every phase at its longest duration plus yellow.
func (s *Scheduler) maxTickSeconds() float64 {
	longest := lo.Max([]int{s.timing.Max, s.timing.EmergencyOverride, s.timing.EmptyDemand, s.timing.Initial})
	return float64(len(s.phases)) * (float64(longest) + s.timing.Yellow)
}

func (s *Scheduler) State() datastructure.PhaseState {
	next := s.phases[s.nextIndex()]
	remaining := s.remaining
	if s.transitioning {
		remaining = s.yellowRemaining
	}
	return datastructure.PhaseState{
		CurrentPhase:        s.phases[s.current],
		RemainingSeconds:    remaining,
		NextPhase:           next,
		NextDurationSeconds: CalculateDuration(next, s.demand, s.timing),
		Transitioning:       s.transitioning,
	}
}

// Directions returns the union of phase directions and demand directions, sorted.
func (s *Scheduler) Directions() []string {
	dirs := lo.FlatMap(s.phases, func(p datastructure.PhaseDefinition, _ int) []string {
		return p.Directions
	})
	dirs = append(dirs, lo.Keys(s.demand)...)
	dirs = lo.Uniq(dirs)
	sort.Strings(dirs)
	return dirs
}

// Colors: Steady -> arah phase aktif green, lainnya red. Transitioning -> arah phase lama yellow, lainnya red.
func (s *Scheduler) Colors() map[string]datastructure.SignalColor {
	cur := s.phases[s.current]
	lit := datastructure.Green
	if s.transitioning {
		lit = datastructure.Yellow
	}

	colors := make(map[string]datastructure.SignalColor)
	for _, dir := range s.Directions() {
		if cur.Has(dir) {
			colors[dir] = lit
		} else {
			colors[dir] = datastructure.Red
		}
	}
	return colors
}

// Reset returns to the first phase with the initial duration and no transition in progress.
func (s *Scheduler) Reset() {
	s.current = 0
	s.remaining = float64(s.timing.Initial)
	s.transitioning = false
	s.yellowRemaining = 0
}

func (s *Scheduler) Phases() []datastructure.PhaseDefinition {
	return append([]datastructure.PhaseDefinition(nil), s.phases...)
}
