package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/geo"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"
)

const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

type OverpassConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

func DefaultOverpassConfig() OverpassConfig {
	return OverpassConfig{
		Endpoint:     DefaultOverpassEndpoint,
		Timeout:      10 * time.Second,
		Retries:      2,
		RetryBackoff: 2 * time.Second,
	}
}

type OverpassSource struct {
	cfg    OverpassConfig
	client *httpclient.Client
	log    *logrus.Entry
}

func NewOverpassSource(cfg OverpassConfig, logger *logrus.Entry) *OverpassSource {
	if logger == nil {
		logger = logrus.WithField("module", "geodata")
	}
	backoff := heimdall.NewConstantBackoff(cfg.RetryBackoff, time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetryCount(cfg.Retries),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)
	return &OverpassSource{cfg: cfg, client: client, log: logger}
}

func (o *OverpassSource) Name() string {
	return SourceOverpass
}

// Query returns the Overpass QL query for traffic signals in bbox.
func Query(bbox geo.BBox) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("[out:json];\n(\n  node[\"highway\"=\"traffic_signals\"](%s,%s,%s,%s);\n);\nout body;\n",
		f(bbox.South), f(bbox.West), f(bbox.North), f(bbox.East))
}

func (o *OverpassSource) FetchSignals(ctx context.Context, bbox geo.BBox) ([]datastructure.SignalNode, error) {
	if bbox.IsEmpty() {
		return []datastructure.SignalNode{}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint, strings.NewReader(Query(bbox)))
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	res, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}
	defer res.Body.Close()

	// heimdall tidak mengembalikan error kalau attempt terakhir 5xx
	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("overpass: unexpected status %d", res.StatusCode)
	}

	var data osm.OSM
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("overpass: decode response: %w", err)
	}

	nodes := make([]datastructure.SignalNode, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		nodes = append(nodes, signalFromNode(n))
	}
	o.log.WithFields(logrus.Fields{"signals": len(nodes), "bbox": bbox}).Debug("overpass signals fetched")
	return nodes, nil
}
