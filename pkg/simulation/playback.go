package simulation

import (
	"errors"
	"fmt"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"
)

const (
	MinSpeedMultiplier = 1
	MaxSpeedMultiplier = 4
)

var (
	ErrNoRoute           = errors.New("no route with at least two points")
	ErrNoPlayback        = errors.New("no playback running")
	ErrInvalidMultiplier = fmt.Errorf("speed multiplier must be within [%d, %d]", MinSpeedMultiplier, MaxSpeedMultiplier)
)

// Playback walks an agent along a route at speedMps x multiplier.
// Not safe for concurrent use.
type Playback struct {
	route      *geo.PathIndex
	speedMps   float64
	multiplier int
	traveled   float64
	last       time.Time
}

func NewPlayback(path []datastructure.Coordinate, speedMps float64, multiplier int) (*Playback, error) {
	route := geo.NewPathIndex(path)
	if !route.Valid() {
		return nil, ErrNoRoute
	}
	if multiplier < MinSpeedMultiplier || multiplier > MaxSpeedMultiplier {
		return nil, ErrInvalidMultiplier
	}
	return &Playback{route: route, speedMps: speedMps, multiplier: multiplier}, nil
}

// Step moves the agent by seconds of travel, stopping at the end of the route.
func (p *Playback) Step(seconds float64) datastructure.Coordinate {
	if seconds > 0 {
		p.traveled += p.speedMps * float64(p.multiplier) * seconds
		if l := p.route.Length(); p.traveled > l {
			p.traveled = l
		}
	}
	return p.Position()
}

// Advance steps by the wall time elapsed since the previous call. The first call only
// records the start time.
func (p *Playback) Advance(now time.Time) datastructure.Coordinate {
	if p.last.IsZero() {
		p.last = now
		return p.Position()
	}
	elapsed := now.Sub(p.last).Seconds()
	p.last = now
	return p.Step(elapsed)
}

func (p *Playback) Position() datastructure.Coordinate {
	return p.route.Interpolate(p.traveled)
}

func (p *Playback) Finished() bool {
	return p.traveled >= p.route.Length()
}

func (p *Playback) SetMultiplier(m int) error {
	if m < MinSpeedMultiplier || m > MaxSpeedMultiplier {
		return ErrInvalidMultiplier
	}
	p.multiplier = m
	return nil
}

type PlaybackStatus struct {
	Multiplier     int                      `json:"speed_multiplier"`
	SpeedMps       float64                  `json:"speed_mps"`
	TraveledMeters float64                  `json:"traveled_meters"`
	LengthMeters   float64                  `json:"length_meters"`
	Position       datastructure.Coordinate `json:"position"`
	Finished       bool                     `json:"finished"`
}

func (p *Playback) Status() PlaybackStatus {
	return PlaybackStatus{
		Multiplier:     p.multiplier,
		SpeedMps:       p.speedMps,
		TraveledMeters: p.traveled,
		LengthMeters:   p.route.Length(),
		Position:       p.Position(),
		Finished:       p.Finished(),
	}
}
