package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geo"
	"lintang/greenwave/pkg/server"
	"lintang/greenwave/pkg/server/rest/service"
	"lintang/greenwave/pkg/simulation"
	"lintang/greenwave/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sirupsen/logrus"
)

type GreenWaveService interface {
	SetRoute(ctx context.Context, path []datastructure.Coordinate) (service.RouteContext, error)
	RouteContext() (service.RouteContext, error)
	UpdateAgentPosition(ctx context.Context, pos datastructure.Coordinate) proximity.TickResult
	ProximityState() datastructure.ProximityState
	IngestDemand(raw json.RawMessage) ([]datastructure.TrafficDemand, error)
	Snapshot() datastructure.SignalSnapshot
	StartPlayback(multiplier int) (simulation.PlaybackStatus, error)
	SetPlaybackSpeed(multiplier int) (simulation.PlaybackStatus, error)
	StopPlayback() bool
	PlaybackStatus() (simulation.PlaybackStatus, bool)
	Start() bool
	Stop()
	Reset()
}

type GreenWaveHandler struct {
	svc GreenWaveService
	log *logrus.Entry
}

func GreenWaveRouter(r *chi.Mux, svc GreenWaveService, logger *logrus.Entry) {
	if logger == nil {
		logger = logrus.WithField("module", "rest")
	}
	handler := &GreenWaveHandler{svc, logger}

	r.Group(func(r chi.Router) {
		r.Route("/api/greenwave", func(r chi.Router) {
			r.Post("/route", handler.setRoute)
			r.Get("/route", handler.getRoute)
			r.Post("/agent", handler.updateAgent)
			r.Get("/proximity", handler.proximityState)
			r.Post("/playback", handler.startPlayback)
			r.Get("/playback", handler.playbackStatus)
			r.Put("/playback", handler.setPlaybackSpeed)
			r.Delete("/playback", handler.stopPlayback)
		})
		r.Route("/api/signals", func(r chi.Router) {
			r.Post("/demand", handler.ingestDemand)
			r.Get("/state", handler.signalState)
		})
		r.Route("/api/simulation", func(r chi.Router) {
			r.Post("/start", handler.startSimulation)
			r.Post("/stop", handler.stopSimulation)
			r.Post("/reset", handler.resetSimulation)
		})
	})
}

// validateRequest mengembalikan false kalau request tidak valid (response error sudah ditulis).
func validateRequest(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

// Coord model info
//
//	@Description	model untuk koordinat
type Coord struct {
	// pointer supaya 0 (ekuator / meridian greenwich) tetap valid tapi field yang hilang ditolak
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90" swaggertype:"number"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180" swaggertype:"number"`
}

func (c Coord) toCoordinate() datastructure.Coordinate {
	return datastructure.NewCoordinate(*c.Lat, *c.Lng)
}

// RouteRequest model info
//
//	@Description	request body rute agent. isi path (list koordinat) atau polyline (google encoded polyline)
type RouteRequest struct {
	Path     []Coord `json:"path" validate:"omitempty,min=2,dive"`
	Polyline string  `json:"polyline"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if len(s.Path) == 0 && s.Polyline == "" {
		return errors.New("path or polyline is required")
	}
	return nil
}

func (s *RouteRequest) coordinates() ([]datastructure.Coordinate, error) {
	if len(s.Path) > 0 {
		path := make([]datastructure.Coordinate, 0, len(s.Path))
		for _, c := range s.Path {
			path = append(path, c.toCoordinate())
		}
		return path, nil
	}
	return datastructure.DecodePath(s.Polyline)
}

// RouteResponse model info
//
//	@Description	route context: junction cluster di sekitar rute dan cluster yang ter-match ke rute
type RouteResponse struct {
	Polyline     string                         `json:"polyline"`
	LengthMeters float64                        `json:"length_meters"`
	Source       string                         `json:"source"`
	NumClusters  int                            `json:"num_clusters"`
	Clusters     []datastructure.SignalCluster  `json:"clusters"`
	Matched      []datastructure.MatchedCluster `json:"matched"`
	BuiltAt      time.Time                      `json:"built_at"`
}

func NewRouteResponse(rc service.RouteContext) *RouteResponse {
	return &RouteResponse{
		Polyline:     datastructure.EncodePath(rc.Path),
		LengthMeters: util.RoundFloat(geo.PathLength(rc.Path), 2),
		Source:       rc.Source,
		NumClusters:  len(rc.Clusters),
		Clusters:     rc.Clusters,
		Matched:      rc.Matched,
		BuiltAt:      rc.BuiltAt,
	}
}

// setRoute
//
//	@Summary		set rute agent dan bangun route context.
//	@Description	ambil traffic signal di sekitar rute, cluster jadi junction, lalu match junction ke rute sesuai urutan traversal
//	@Tags			greenwave
//	@Param			body	body	RouteRequest	true	"request body rute"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/greenwave/route [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *GreenWaveHandler) setRoute(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	path, err := data.coordinates()
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rc, err := h.svc.SetRoute(r.Context(), path)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewRouteResponse(rc))
}

// getRoute
//
//	@Summary		route context aktif.
//	@Tags			greenwave
//	@Produce		application/json
//	@Router			/api/greenwave/route [get]
//	@Success		200	{object}	RouteResponse
//	@Failure		404	{object}	ErrResponse
func (h *GreenWaveHandler) getRoute(w http.ResponseWriter, r *http.Request) {
	rc, err := h.svc.RouteContext()
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewRouteResponse(rc))
}

// AgentRequest model info
//
//	@Description	posisi agent terbaru
type AgentRequest struct {
	Coord
}

func (s *AgentRequest) Bind(r *http.Request) error {
	return nil
}

// updateAgent
//
//	@Summary		update posisi agent lalu jalankan satu proximity tick.
//	@Tags			greenwave
//	@Param			body	body	AgentRequest	true	"posisi agent"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/greenwave/agent [post]
//	@Success		200	{object}	proximity.TickResult
//	@Failure		400	{object}	ErrResponse
func (h *GreenWaveHandler) updateAgent(w http.ResponseWriter, r *http.Request) {
	data := &AgentRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	res := h.svc.UpdateAgentPosition(r.Context(), data.toCoordinate())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// proximityState
//
//	@Summary		proximity state (cluster active & cluster yang sudah dinotifikasi).
//	@Tags			greenwave
//	@Produce		application/json
//	@Router			/api/greenwave/proximity [get]
//	@Success		200	{object}	datastructure.ProximityState
func (h *GreenWaveHandler) proximityState(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.svc.ProximityState())
}

// PlaybackRequest model info
//
//	@Description	mulai route playback dengan kelipatan kecepatan 1..4
type PlaybackRequest struct {
	SpeedMultiplier int `json:"speed_multiplier" validate:"required,min=1,max=4"`
}

func (s *PlaybackRequest) Bind(r *http.Request) error {
	return nil
}

// startPlayback
//
//	@Summary		jalankan agent di sepanjang rute aktif.
//	@Tags			greenwave
//	@Param			body	body	PlaybackRequest	true	"speed multiplier"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/greenwave/playback [post]
//	@Success		200	{object}	simulation.PlaybackStatus
//	@Failure		400	{object}	ErrResponse
//	@Failure		409	{object}	ErrResponse
func (h *GreenWaveHandler) startPlayback(w http.ResponseWriter, r *http.Request) {
	data := &PlaybackRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	st, err := h.svc.StartPlayback(data.SpeedMultiplier)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, st)
}

// setPlaybackSpeed
//
//	@Summary		ganti kelipatan kecepatan playback yang sedang jalan, posisi agent tidak direset.
//	@Tags			greenwave
//	@Param			body	body	PlaybackRequest	true	"speed multiplier"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/greenwave/playback [put]
//	@Success		200	{object}	simulation.PlaybackStatus
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *GreenWaveHandler) setPlaybackSpeed(w http.ResponseWriter, r *http.Request) {
	data := &PlaybackRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	st, err := h.svc.SetPlaybackSpeed(data.SpeedMultiplier)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, st)
}

// playbackStatus
//
//	@Summary		status route playback.
//	@Tags			greenwave
//	@Produce		application/json
//	@Router			/api/greenwave/playback [get]
//	@Success		200	{object}	simulation.PlaybackStatus
//	@Failure		404	{object}	ErrResponse
func (h *GreenWaveHandler) playbackStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := h.svc.PlaybackStatus()
	if !ok {
		render.Render(w, r, ErrChi(server.WrapErrorf(simulation.ErrNoPlayback, server.ErrNotFound, "no playback running")))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, st)
}

type StoppedResponse struct {
	Stopped bool `json:"stopped"`
}

// stopPlayback
//
//	@Summary		hentikan route playback.
//	@Tags			greenwave
//	@Produce		application/json
//	@Router			/api/greenwave/playback [delete]
//	@Success		200	{object}	StoppedResponse
func (h *GreenWaveHandler) stopPlayback(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, StoppedResponse{Stopped: h.svc.StopPlayback()})
}

// DemandResponse model info
//
//	@Description	traffic demand setelah normalisasi
type DemandResponse struct {
	Count   int                           `json:"count"`
	Records []datastructure.TrafficDemand `json:"records"`
}

// ingestDemand
//
//	@Summary		kirim traffic demand per arah dari detection pipeline.
//	@Description	body berupa array record atau {"records": [...]}. alias field dari pipeline deteksi diterima.
//	@Tags			signals
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/signals/demand [post]
//	@Success		200	{object}	DemandResponse
//	@Failure		400	{object}	ErrResponse
func (h *GreenWaveHandler) ingestDemand(w http.ResponseWriter, r *http.Request) {
	bb, err := io.ReadAll(r.Body)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	records, err := h.svc.IngestDemand(json.RawMessage(bb))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, DemandResponse{Count: len(records), Records: records})
}

// signalState
//
//	@Summary		snapshot warna signal per arah, phase aktif dan cluster active.
//	@Tags			signals
//	@Produce		application/json
//	@Router			/api/signals/state [get]
//	@Success		200	{object}	datastructure.SignalSnapshot
func (h *GreenWaveHandler) signalState(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.svc.Snapshot())
}

type SimulationResponse struct {
	Running bool   `json:"running"`
	Message string `json:"message"`
}

// startSimulation
//
//	@Summary		start ticker phase & proximity.
//	@Tags			simulation
//	@Produce		application/json
//	@Router			/api/simulation/start [post]
//	@Success		200	{object}	SimulationResponse
func (h *GreenWaveHandler) startSimulation(w http.ResponseWriter, r *http.Request) {
	msg := "simulation started"
	if !h.svc.Start() {
		msg = "simulation already running"
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SimulationResponse{Running: true, Message: msg})
}

// stopSimulation
//
//	@Summary		stop ticker dan clear state transient.
//	@Tags			simulation
//	@Produce		application/json
//	@Router			/api/simulation/stop [post]
//	@Success		200	{object}	SimulationResponse
func (h *GreenWaveHandler) stopSimulation(w http.ResponseWriter, r *http.Request) {
	h.svc.Stop()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SimulationResponse{Running: false, Message: "simulation stopped"})
}

// resetSimulation
//
//	@Summary		reset phase scheduler & proximity tracker tanpa stop ticker.
//	@Tags			simulation
//	@Produce		application/json
//	@Router			/api/simulation/reset [post]
//	@Success		200	{object}	SimulationResponse
func (h *GreenWaveHandler) resetSimulation(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset()
	snap := h.svc.Snapshot()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SimulationResponse{Running: snap.Running, Message: "simulation reset"})
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	errText := err.Error()
	if getStatusCode(err) == http.StatusInternalServerError {
		errText = server.MessageInternalServerError
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      errText,
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case server.ErrInternalServerError:
		return http.StatusInternalServerError
	case server.ErrNotFound:
		return http.StatusNotFound
	case server.ErrConflict:
		return http.StatusConflict
	case server.ErrBadParamInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
