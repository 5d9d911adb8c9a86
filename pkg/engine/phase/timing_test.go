package phase_test

import (
	"math/rand"
	"testing"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/phase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nsPhase = datastructure.PhaseDefinition{Name: "NS", Directions: []string{"north", "south"}}

func TestCalculateDurationFormula(t *testing.T) {
	// Σveh 10, avgWait 50, avgCong 0.5, Σqueue 6, avgSpeed 40
	// round(30 + 20 + 10 + 15 + 9 + 6.67) = 91
	demand := map[string]datastructure.TrafficDemand{
		"north": {Direction: "north", VehicleCount: 4, WaitTimeSeconds: 40, CongestionLevel: 0.4, QueueLength: 2, AvgSpeedKmh: 35},
		"south": {Direction: "south", VehicleCount: 6, WaitTimeSeconds: 60, CongestionLevel: 0.6, QueueLength: 4, AvgSpeedKmh: 45},
	}
	assert.Equal(t, 91, phase.CalculateDuration(nsPhase, demand, phase.DefaultTiming()))
}

func TestCalculateDurationEmergency(t *testing.T) {
	demand := map[string]datastructure.TrafficDemand{
		"north": {Direction: "north", VehicleCount: 0, EmergencyVehicleDetected: true},
		"south": {Direction: "south", VehicleCount: 30, CongestionLevel: 1, QueueLength: 40},
	}
	d := phase.Evaluate(nsPhase, demand, phase.DefaultTiming())
	assert.Equal(t, 90, d.Seconds)
	assert.True(t, d.Emergency)

	timing := phase.DefaultTiming()
	timing.EmergencyOverride = 150
	assert.Equal(t, 150, phase.CalculateDuration(nsPhase, demand, timing))
}

func TestCalculateDurationEmptyDemand(t *testing.T) {
	demand := map[string]datastructure.TrafficDemand{
		"east": {Direction: "east", VehicleCount: 20, EmergencyVehicleDetected: true},
	}
	d := phase.Evaluate(nsPhase, demand, phase.DefaultTiming())
	assert.Equal(t, 30, d.Seconds)
	assert.True(t, d.NoDemand)
	assert.Equal(t, 30, phase.CalculateDuration(nsPhase, nil, phase.DefaultTiming()))
}

func TestCalculateDurationBounds(t *testing.T) {
	timing := phase.DefaultTiming()

	t.Run("floor", func(t *testing.T) {
		// base 30 + 0 ... speed 90 km/h -> 30; pakai base kecil biar kena floor
		low := timing
		low.Base = 0
		demand := map[string]datastructure.TrafficDemand{"north": {Direction: "north", AvgSpeedKmh: 90}}
		assert.Equal(t, 20, phase.CalculateDuration(nsPhase, demand, low))
	})

	t.Run("ceiling with surge", func(t *testing.T) {
		demand := map[string]datastructure.TrafficDemand{
			"north": {Direction: "north", VehicleCount: 50, WaitTimeSeconds: 300, CongestionLevel: 0.95, QueueLength: 30},
		}
		assert.Equal(t, 120, phase.CalculateDuration(nsPhase, demand, timing))
	})

	t.Run("random well formed demand stays in range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 500; i++ {
			demand := map[string]datastructure.TrafficDemand{}
			for _, dir := range []string{"north", "south"} {
				if rng.Intn(4) == 0 {
					continue
				}
				demand[dir] = datastructure.TrafficDemand{
					Direction:       dir,
					VehicleCount:    float64(rng.Intn(60)),
					WaitTimeSeconds: rng.Float64() * 400,
					CongestionLevel: rng.Float64(),
					QueueLength:     float64(rng.Intn(40)),
					AvgSpeedKmh:     rng.Float64() * 120,
				}
			}
			d := phase.CalculateDuration(nsPhase, demand, timing)
			assert.GreaterOrEqual(t, d, 20)
			assert.LessOrEqual(t, d, 120)
		}
	})
}

func TestTimingValidate(t *testing.T) {
	require.NoError(t, phase.DefaultTiming().Validate())

	bad := phase.DefaultTiming()
	bad.Yellow = 0
	assert.ErrorIs(t, bad.Validate(), phase.ErrInvalidTiming)

	bad = phase.DefaultTiming()
	bad.Max = 10
	assert.ErrorIs(t, bad.Validate(), phase.ErrInvalidTiming)
}
