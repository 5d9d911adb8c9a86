package demand

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/util"

	"github.com/samber/lo"
)

var ErrInvalidDocument = errors.New("invalid traffic demand document")

// alias field dari detection pipeline (camelCase frontend & snake_case backend)
var (
	vehicleKeys    = []string{"vehicleCount", "vehicle_count", "vehicles"}
	waitKeys       = []string{"waitTime", "wait_time", "waitTimeSeconds", "wait_time_seconds"}
	congestionKeys = []string{"congestionLevel", "congestion_level", "congestion"}
	queueKeys      = []string{"queueLength", "queue_length", "queue"}
	speedKeys      = []string{"avgSpeed", "avg_speed", "avgSpeedKmh", "avg_speed_kmh"}
	emergencyKeys  = []string{"emergencyVehicleDetected", "emergency_vehicle_detected", "ambulanceDetected", "ambulance_detected"}
)

/*
Normalize. parse record demand mentah jadi TrafficDemand.

dokumen boleh berupa array record atau object {"records": [...]}. field numerik yang hilang/malformed jadi 0,
string numerik di-parse, flag emergency yang hilang jadi false. nilai negatif jadi 0 dan congestion di clamp ke [0,1].
record tanpa direction di-drop. error hanya kalau dokumennya sendiri tidak valid.
*/
func Normalize(raw json.RawMessage) ([]datastructure.TrafficDemand, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []datastructure.TrafficDemand{}, nil
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case '{':
		var wrapper struct {
			Records []json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		items = wrapper.Records
	default:
		return nil, fmt.Errorf("%w: expected an array or an object with records", ErrInvalidDocument)
	}

	out := make([]datastructure.TrafficDemand, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			continue
		}
		dir := strings.TrimSpace(stringField(fields["direction"]))
		if dir == "" {
			continue
		}
		out = append(out, datastructure.TrafficDemand{
			Direction:                dir,
			VehicleCount:             util.NonNegative(numberField(fields, vehicleKeys)),
			WaitTimeSeconds:          util.NonNegative(numberField(fields, waitKeys)),
			CongestionLevel:          util.Clamp01(util.NonNegative(numberField(fields, congestionKeys))),
			QueueLength:              util.NonNegative(numberField(fields, queueKeys)),
			AvgSpeedKmh:              util.NonNegative(numberField(fields, speedKeys)),
			EmergencyVehicleDetected: boolField(fields, emergencyKeys),
		})
	}
	return out, nil
}

// ByDirection indexes records by direction; later records win.
func ByDirection(records []datastructure.TrafficDemand) map[string]datastructure.TrafficDemand {
	return lo.SliceToMap(records, func(r datastructure.TrafficDemand) (string, datastructure.TrafficDemand) {
		return r.Direction, r
	})
}

func firstPresent(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func numberField(fields map[string]json.RawMessage, keys []string) float64 {
	v, ok := firstPresent(fields, keys)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return finite(f)
		}
	}
	return 0
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func boolField(fields map[string]json.RawMessage, keys []string) bool {
	v, ok := firstPresent(fields, keys)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && b
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f != 0
	}
	return false
}

func stringField(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
