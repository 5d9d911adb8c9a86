package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/phase"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/geodata"
	"lintang/greenwave/pkg/notify"
	"lintang/greenwave/pkg/server/rest"
	"lintang/greenwave/pkg/server/rest/service"
	"lintang/greenwave/pkg/simulation"
	"lintang/greenwave/pkg/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

var origin = datastructure.NewCoordinate(12.9716, 77.5946)

func at(eastM, northM float64) datastructure.Coordinate {
	return datastructure.NewCoordinate(origin.Lat+northM/metersPerDegree,
		origin.Lon+eastM/(metersPerDegree*math.Cos(origin.Lat*math.Pi/180)))
}

type testServer struct {
	*httptest.Server
	reg *prometheus.Registry
	iot *rest.IoTHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	signals := []datastructure.SignalNode{
		{ID: "node/1", Position: at(300, 10), Label: "Richmond Circle"},
		{ID: "node/2", Position: at(310, -10), Label: "Unnamed"},
		{ID: "node/3", Position: at(700, 20), Label: ""},
	}
	src := geodata.NewFallback(nil, geodata.NewStaticSource(signals), nil, nil)
	sched, err := phase.NewScheduler([]datastructure.PhaseDefinition{
		{Name: "NS", Directions: []string{"north", "south"}},
		{Name: "EW", Directions: []string{"east", "west"}},
	}, phase.DefaultTiming(), nil)
	require.NoError(t, err)
	ctrl := simulation.NewController(sched, proximity.NewTracker(proximity.DefaultConfig(), nil, nil),
		simulation.Options{}, nil)
	svc := service.NewGreenWaveService(context.Background(), service.Config{
		ClusterThresholdMeters: 60,
		MatchThresholdMeters:   100,
	}, src, ctrl, nil)
	t.Cleanup(svc.Stop)

	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	r := chi.NewRouter()
	r.Use(rest.PromeHttpMiddleware(m))
	rest.GreenWaveRouter(r, svc, nil)
	iot := rest.IoTRouter(r, nil)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, reg: reg, iot: iot}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		bb, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(bb)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]interface{}{}
	var raw interface{}
	if err := json.NewDecoder(res.Body).Decode(&raw); err == nil {
		if obj, ok := raw.(map[string]interface{}); ok {
			out = obj
		} else {
			out["items"] = raw
		}
	}
	return res.StatusCode, out
}

func routeBody() map[string]interface{} {
	path := []map[string]float64{}
	for m := 0.0; m <= 1000; m += 100 {
		c := at(m, 0)
		path = append(path, map[string]float64{"lat": c.Lat, "lng": c.Lon})
	}
	return map[string]interface{}{"path": path}
}

func TestRouteEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/greenwave/route", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Resource not found.", body["status"])

	code, body = ts.do(t, http.MethodPost, "/api/greenwave/route", routeBody())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, geodata.SourceStatic, body["source"])
	assert.EqualValues(t, 2, body["num_clusters"])
	assert.Len(t, body["matched"], 2)
	assert.NotEmpty(t, body["polyline"])
	assert.InDelta(t, 1000, body["length_meters"], 1)

	code, body = ts.do(t, http.MethodGet, "/api/greenwave/route", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["matched"], 2)

	path := []datastructure.Coordinate{at(0, 0), at(500, 0), at(1000, 0)}
	code, body = ts.do(t, http.MethodPost, "/api/greenwave/route",
		map[string]string{"polyline": datastructure.EncodePath(path)})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["matched"], 2)
}

func TestRouteValidation(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/api/greenwave/route", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := ts.do(t, http.MethodPost, "/api/greenwave/route", map[string]interface{}{
		"path": []map[string]float64{{"lat": 100, "lng": 77.5}, {"lat": 12.9, "lng": 77.5}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["validation"])

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/route", map[string]interface{}{
		"path": []map[string]float64{{"lat": 12.9, "lng": 77.5}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/route", map[string]string{"polyline": "_p~iF~ps|U_"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/route", `{"path": [`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAgentAndProximity(t *testing.T) {
	ts := newTestServer(t)
	code, _ := ts.do(t, http.MethodPost, "/api/greenwave/route", routeBody())
	require.Equal(t, http.StatusOK, code)

	agent := at(200, 0)
	code, body := ts.do(t, http.MethodPost, "/api/greenwave/agent", map[string]float64{"lat": agent.Lat, "lng": agent.Lon})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, body["active_cluster_id"])
	require.NotNil(t, body["emitted"])
	emitted := body["emitted"].(map[string]interface{})
	assert.Equal(t, "Richmond Circle", emitted["label"])
	assert.Equal(t, "eastbound", emitted["heading"])

	code, body = ts.do(t, http.MethodGet, "/api/greenwave/proximity", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, body["active_cluster_id"], body["notified_approach_for_cluster_id"])

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/agent", map[string]float64{"lat": 12.9})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/agent", map[string]float64{"lat": 12.9, "lng": 200})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAgentOnZeroCoordinates(t *testing.T) {
	ts := newTestServer(t)

	// greenwich dan ekuator
	code, _ := ts.do(t, http.MethodPost, "/api/greenwave/agent", map[string]float64{"lat": 51.4779, "lng": 0})
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/agent", map[string]float64{"lat": 0, "lng": 32.5})
	assert.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, http.MethodGet, "/api/signals/state", nil)
	require.Equal(t, http.StatusOK, code)
	agent := body["agent_position"].(map[string]interface{})
	assert.EqualValues(t, 0, agent["lat"])

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/route", map[string]interface{}{
		"path": []map[string]float64{{"lat": 0, "lng": 0}, {"lat": 0, "lng": 0.01}},
	})
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodPost, "/iot/proximity", map[string]interface{}{
		"signalId": "jc-0", "lat": 0, "lng": 0, "distance": 12.5,
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestDemandAndState(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/signals/demand",
		`{"records":[{"direction":"north","vehicles":"12","wait_time":40,"congestion":1.4},{"vehicleCount":3}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = ts.do(t, http.MethodPost, "/api/signals/demand", `{"records": 5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodGet, "/api/signals/state", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NS", body["current_phase_name"])
	assert.Equal(t, "EW", body["next_phase_name"])
	assert.EqualValues(t, 45, body["remaining_seconds"])
	colors := body["per_direction_color"].(map[string]interface{})
	assert.Equal(t, "green", colors["north"])
	assert.Equal(t, "red", colors["west"])
	assert.Len(t, body["phases"], 2)
	demand := body["demand"].(map[string]interface{})
	require.Contains(t, demand, "north")
	assert.EqualValues(t, 12, demand["north"].(map[string]interface{})["vehicle_count"])
}

func TestPlaybackEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/api/greenwave/playback", map[string]int{"speed_multiplier": 2})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/route", routeBody())
	require.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodPost, "/api/greenwave/playback", map[string]int{"speed_multiplier": 5})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := ts.do(t, http.MethodPost, "/api/greenwave/playback", map[string]int{"speed_multiplier": 2})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["speed_multiplier"])

	code, _ = ts.do(t, http.MethodGet, "/api/greenwave/playback", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodPut, "/api/greenwave/playback", map[string]int{"speed_multiplier": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodPut, "/api/greenwave/playback", map[string]int{"speed_multiplier": 4})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 4, body["speed_multiplier"])

	code, body = ts.do(t, http.MethodGet, "/api/greenwave/playback", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 4, body["speed_multiplier"])

	code, body = ts.do(t, http.MethodDelete, "/api/greenwave/playback", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["stopped"])

	code, _ = ts.do(t, http.MethodGet, "/api/greenwave/playback", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodPut, "/api/greenwave/playback", map[string]int{"speed_multiplier": 2})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSimulationLifecycle(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/simulation/start", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "simulation started", body["message"])

	_, body = ts.do(t, http.MethodPost, "/api/simulation/start", nil)
	assert.Equal(t, "simulation already running", body["message"])

	_, body = ts.do(t, http.MethodGet, "/api/signals/state", nil)
	assert.Equal(t, true, body["running"])

	_, body = ts.do(t, http.MethodPost, "/api/simulation/reset", nil)
	assert.Equal(t, true, body["running"])

	code, body = ts.do(t, http.MethodPost, "/api/simulation/stop", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["running"])

	_, body = ts.do(t, http.MethodGet, "/api/signals/state", nil)
	assert.Equal(t, false, body["running"])
	assert.Equal(t, false, body["transitioning"])
}

func TestIoTReceiver(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/iot/proximity", map[string]interface{}{
		"signalId": "jc-1", "lat": 12.97, "lng": 77.59, "command": "explode",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	n := notify.NewHTTPNotifier(notify.HTTPConfig{DefaultURL: ts.URL + "/iot/proximity"}, nil)
	err := n.Notify(context.Background(), datastructure.ProximityEvent{
		ClusterID:      "jc-00000000000000ab",
		Label:          "Richmond Circle",
		Lat:            12.97,
		Lng:            77.59,
		DistanceMeters: 150,
		Timestamp:      "2024-05-01T08:00:00Z",
		Heading:        "eastbound",
	})
	require.NoError(t, err)

	entries := ts.iot.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "jc-00000000000000ab", entries[0].SignalID)
	assert.Equal(t, notify.CommandSetGreen, entries[0].Command)
	assert.Equal(t, 10, entries[0].Duration)

	code, body := ts.do(t, http.MethodGet, "/iot/proximity", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 1)
}

func TestPromeHttpMiddleware(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/signals/state", nil)
	ts.do(t, http.MethodGet, "/api/greenwave/route", nil)

	assert.Equal(t, 2, testutil.CollectAndCount(ts.reg, "greenwave_total_requests"))
	assert.Equal(t, 2, testutil.CollectAndCount(ts.reg, "greenwave_response_status_code"))
}
