package datastructure

type SignalColor string

const (
	Red    SignalColor = "red"
	Yellow SignalColor = "yellow"
	Green  SignalColor = "green"
)

// TrafficDemand is the per-direction demand measurement produced by the detection pipeline.
type TrafficDemand struct {
	Direction                string  `json:"direction"`
	VehicleCount             float64 `json:"vehicle_count"`
	WaitTimeSeconds          float64 `json:"wait_time_seconds"`
	CongestionLevel          float64 `json:"congestion_level"`
	QueueLength              float64 `json:"queue_length"`
	AvgSpeedKmh              float64 `json:"avg_speed_kmh"`
	EmergencyVehicleDetected bool    `json:"emergency_vehicle_detected"`
}

// PhaseDefinition is a set of directions granted green simultaneously.
type PhaseDefinition struct {
	Name       string   `json:"name" yaml:"name"`
	Directions []string `json:"directions" yaml:"directions"`
}

func (p PhaseDefinition) Has(direction string) bool {
	for _, d := range p.Directions {
		if d == direction {
			return true
		}
	}
	return false
}

type PhaseState struct {
	CurrentPhase        PhaseDefinition `json:"current_phase"`
	RemainingSeconds    float64         `json:"remaining_seconds"`
	NextPhase           PhaseDefinition `json:"next_phase"`
	NextDurationSeconds int             `json:"next_duration_seconds"`
	Transitioning       bool            `json:"transitioning"`
}
