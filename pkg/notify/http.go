package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lintang/greenwave/pkg/datastructure"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/sirupsen/logrus"
)

const CommandSetGreen = "set_green"

type HTTPConfig struct {
	// Devices maps a cluster id or label to the device proximity URL.
	Devices              map[string]string `yaml:"devices"`
	DefaultURL           string            `yaml:"default_url"`
	Timeout              time.Duration     `yaml:"timeout"`
	Retries              int               `yaml:"retries"`
	GreenDurationSeconds int               `yaml:"green_duration_seconds"`
}

// DevicePayload is the JSON body a signal controller device receives.
type DevicePayload struct {
	SignalID  string  `json:"signalId"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Distance  float64 `json:"distance"`
	Timestamp string  `json:"timestamp"`
	Direction string  `json:"direction,omitempty"`
	Command   string  `json:"command"`
	Duration  int     `json:"duration"`
}

// HTTPNotifier posts proximity events to the signal controller device of the junction.
type HTTPNotifier struct {
	cfg    HTTPConfig
	client *httpclient.Client
	log    *logrus.Entry
}

func NewHTTPNotifier(cfg HTTPConfig, logger *logrus.Entry) *HTTPNotifier {
	if logger == nil {
		logger = logrus.WithField("module", "notify")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.GreenDurationSeconds <= 0 {
		cfg.GreenDurationSeconds = 10
	}
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetryCount(cfg.Retries),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(200*time.Millisecond, time.Millisecond))),
	)
	return &HTTPNotifier{cfg: cfg, client: client, log: logger}
}

func (h *HTTPNotifier) Name() string {
	return "http"
}

func (h *HTTPNotifier) deviceURL(event datastructure.ProximityEvent) string {
	if url, ok := h.cfg.Devices[event.ClusterID]; ok {
		return url
	}
	if url, ok := h.cfg.Devices[event.Label]; ok && event.Label != datastructure.UnnamedLabel {
		return url
	}
	return h.cfg.DefaultURL
}

func (h *HTTPNotifier) Notify(ctx context.Context, event datastructure.ProximityEvent) error {
	url := h.deviceURL(event)
	if url == "" {
		h.log.WithField("cluster_id", event.ClusterID).Debug("no device configured for junction, skip")
		return nil
	}

	body, err := json.Marshal(DevicePayload{
		SignalID:  event.ClusterID,
		Name:      event.Label,
		Lat:       event.Lat,
		Lng:       event.Lng,
		Distance:  event.DistanceMeters,
		Timestamp: event.Timestamp,
		Direction: event.Heading,
		Command:   CommandSetGreen,
		Duration:  h.cfg.GreenDurationSeconds,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("device request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("post %s: status %d", url, res.StatusCode)
	}
	h.log.WithFields(logrus.Fields{"cluster_id": event.ClusterID, "url": url}).Debug("device notified")
	return nil
}
