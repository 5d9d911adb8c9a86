package rest

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const proximityLogSize = 100

// ProximityReceiveRequest model info
//
//	@Description	payload proximity yang dikirim ke signal controller device
type ProximityReceiveRequest struct {
	SignalID  string  `json:"signalId" validate:"required"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64 `json:"lng" validate:"gte=-180,lte=180"`
	Distance  float64 `json:"distance" validate:"gte=0"`
	Timestamp string  `json:"timestamp"`
	Direction string  `json:"direction"`
	Command   string  `json:"command" validate:"omitempty,oneof=set_green"`
	Duration  int     `json:"duration" validate:"gte=0"`
}

func (s *ProximityReceiveRequest) Bind(r *http.Request) error {
	return nil
}

type ProximityLogEntry struct {
	ProximityReceiveRequest
	ReceivedAt time.Time `json:"receivedAt"`
}

// IoTHandler plays the signal-controller side of the device bridge: it accepts the payload the
// HTTP notifier sends and keeps the latest ones in memory.
type IoTHandler struct {
	log *logrus.Entry

	mu      sync.Mutex
	entries []ProximityLogEntry
}

func IoTRouter(r *chi.Mux, logger *logrus.Entry) *IoTHandler {
	if logger == nil {
		logger = logrus.WithField("module", "iot")
	}
	handler := &IoTHandler{log: logger}

	r.Route("/iot", func(r chi.Router) {
		r.Post("/proximity", handler.receiveProximity)
		r.Get("/proximity", handler.proximityLog)
	})
	return handler
}

// receiveProximity
//
//	@Summary		terima proximity event dari notifier (sisi device).
//	@Tags			iot
//	@Param			body	body	ProximityReceiveRequest	true	"payload device"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/iot/proximity [post]
//	@Success		200	{object}	ProximityLogEntry
//	@Failure		400	{object}	ErrResponse
func (h *IoTHandler) receiveProximity(w http.ResponseWriter, r *http.Request) {
	data := &ProximityReceiveRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	entry := ProximityLogEntry{ProximityReceiveRequest: *data, ReceivedAt: time.Now().UTC()}
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > proximityLogSize {
		h.entries = h.entries[len(h.entries)-proximityLogSize:]
	}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"signal_id": data.SignalID,
		"name":      data.Name,
		"distance":  data.Distance,
		"direction": data.Direction,
		"command":   data.Command,
	}).Info("proximity received")

	render.Status(r, http.StatusOK)
	render.JSON(w, r, entry)
}

// proximityLog
//
//	@Summary		proximity event terakhir yang diterima.
//	@Tags			iot
//	@Produce		application/json
//	@Router			/iot/proximity [get]
//	@Success		200	{array}	ProximityLogEntry
func (h *IoTHandler) proximityLog(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.Entries())
}

func (h *IoTHandler) Entries() []ProximityLogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ProximityLogEntry{}, h.entries...)
}
