package phase

import (
	"errors"
	"fmt"
	"math"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/util"

	"github.com/samber/lo"
)

// Timing holds every constant of the adaptive green-duration formula. All values are seconds
// unless the name says otherwise.
type Timing struct {
	Base             float64 `yaml:"base"`
	PerVehicle       float64 `yaml:"per_vehicle"`
	VehicleCap       float64 `yaml:"vehicle_cap"`
	WaitDivisor      float64 `yaml:"wait_divisor"`
	WaitCap          float64 `yaml:"wait_cap"`
	CongestionWeight float64 `yaml:"congestion_weight"`
	CongestionCap    float64 `yaml:"congestion_cap"`
	PerQueued        float64 `yaml:"per_queued"`
	QueueCap         float64 `yaml:"queue_cap"`
	SpeedReference   float64 `yaml:"speed_reference_kmh"`
	SpeedDivisor     float64 `yaml:"speed_divisor"`
	SurgeThreshold   float64 `yaml:"surge_threshold"`
	SurgeMultiplier  float64 `yaml:"surge_multiplier"`

	Min               int     `yaml:"min"`
	Max               int     `yaml:"max"`
	EmergencyOverride int     `yaml:"emergency_override"`
	EmptyDemand       int     `yaml:"empty_demand"`
	Yellow            float64 `yaml:"yellow"`
	Initial           int     `yaml:"initial"`
}

func DefaultTiming() Timing {
	return Timing{
		Base:              30,
		PerVehicle:        2,
		VehicleCap:        40,
		WaitDivisor:       5,
		WaitCap:           25,
		CongestionWeight:  30,
		CongestionCap:     30,
		PerQueued:         1.5,
		QueueCap:          20,
		SpeedReference:    60,
		SpeedDivisor:      3,
		SurgeThreshold:    0.8,
		SurgeMultiplier:   1.3,
		Min:               20,
		Max:               120,
		EmergencyOverride: 90,
		EmptyDemand:       30,
		Yellow:            2,
		Initial:           45,
	}
}

var ErrInvalidTiming = errors.New("invalid phase timing")

func (t Timing) Validate() error {
	switch {
	case t.WaitDivisor <= 0:
		return fmt.Errorf("%w: wait_divisor must be positive", ErrInvalidTiming)
	case t.SpeedDivisor <= 0:
		return fmt.Errorf("%w: speed_divisor must be positive", ErrInvalidTiming)
	case t.Min <= 0 || t.Max < t.Min:
		return fmt.Errorf("%w: need 0 < min <= max, got [%d, %d]", ErrInvalidTiming, t.Min, t.Max)
	case t.EmergencyOverride <= 0:
		return fmt.Errorf("%w: emergency_override must be positive", ErrInvalidTiming)
	case t.EmptyDemand <= 0:
		return fmt.Errorf("%w: empty_demand must be positive", ErrInvalidTiming)
	case t.Yellow <= 0:
		return fmt.Errorf("%w: yellow must be positive", ErrInvalidTiming)
	case t.Initial <= 0:
		return fmt.Errorf("%w: initial must be positive", ErrInvalidTiming)
	case t.SurgeMultiplier <= 0:
		return fmt.Errorf("%w: surge_multiplier must be positive", ErrInvalidTiming)
	}
	return nil
}

// Decision is the outcome of the duration formula for one phase.
type Decision struct {
	Seconds   int
	Emergency bool
	NoDemand  bool
}

func CalculateDuration(phase datastructure.PhaseDefinition, demand map[string]datastructure.TrafficDemand,
	timing Timing) int {
	return Evaluate(phase, demand, timing).Seconds
}

/*
Evaluate. hitung durasi green adaptif untuk satu phase dari demand arah-arah phase tsb.

tidak ada record demand -> EmptyDemand. ada emergency vehicle -> tepat EmergencyOverride (tidak di clamp).
selain itu:

	round((base + min(Σveh*perVehicle, vehicleCap) + min(avgWait/waitDivisor, waitCap)
		+ min(avgCong*congestionWeight, congestionCap) + min(Σqueue*perQueued, queueCap)
		+ max(0, (speedRef-avgSpeed)/speedDivisor)) * (avgCong > surgeThreshold ? surgeMultiplier : 1))

lalu di clamp ke [Min, Max].
*/
func Evaluate(phase datastructure.PhaseDefinition, demand map[string]datastructure.TrafficDemand,
	timing Timing) Decision {
	records := lo.FilterMap(lo.Uniq(phase.Directions), func(dir string, _ int) (datastructure.TrafficDemand, bool) {
		r, ok := demand[dir]
		return r, ok
	})
	if len(records) == 0 {
		return Decision{Seconds: timing.EmptyDemand, NoDemand: true}
	}

	if lo.SomeBy(records, func(r datastructure.TrafficDemand) bool { return r.EmergencyVehicleDetected }) {
		return Decision{Seconds: timing.EmergencyOverride, Emergency: true}
	}

	n := float64(len(records))
	totalVehicles := lo.SumBy(records, func(r datastructure.TrafficDemand) float64 { return r.VehicleCount })
	avgWait := lo.SumBy(records, func(r datastructure.TrafficDemand) float64 { return r.WaitTimeSeconds }) / n
	avgCongestion := lo.SumBy(records, func(r datastructure.TrafficDemand) float64 { return r.CongestionLevel }) / n
	totalQueue := lo.SumBy(records, func(r datastructure.TrafficDemand) float64 { return r.QueueLength })
	avgSpeed := lo.SumBy(records, func(r datastructure.TrafficDemand) float64 { return r.AvgSpeedKmh }) / n

	vehicleFactor := math.Min(totalVehicles*timing.PerVehicle, timing.VehicleCap)
	waitFactor := math.Min(avgWait/timing.WaitDivisor, timing.WaitCap)
	congestionFactor := math.Min(avgCongestion*timing.CongestionWeight, timing.CongestionCap)
	queueFactor := math.Min(totalQueue*timing.PerQueued, timing.QueueCap)
	speedFactor := math.Max(0, (timing.SpeedReference-avgSpeed)/timing.SpeedDivisor)

	multiplier := 1.0
	if avgCongestion > timing.SurgeThreshold {
		multiplier = timing.SurgeMultiplier
	}

	raw := (timing.Base + vehicleFactor + waitFactor + congestionFactor + queueFactor + speedFactor) * multiplier
	if math.IsNaN(raw) {
		return Decision{Seconds: timing.Min}
	}
	// math.Round: half away from zero
	seconds := util.Clamp(math.Round(raw), float64(timing.Min), float64(timing.Max))
	return Decision{Seconds: int(seconds)}
}
