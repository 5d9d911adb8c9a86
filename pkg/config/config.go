package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"lintang/greenwave/pkg/datastructure"
	"lintang/greenwave/pkg/engine/phase"
	"lintang/greenwave/pkg/engine/proximity"
	"lintang/greenwave/pkg/geodata"
	"lintang/greenwave/pkg/kv"
	"lintang/greenwave/pkg/notify"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Server struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Profiler       bool     `yaml:"profiler"`
}

type Log struct {
	Level  string `yaml:"level"`  // trace debug info warn error critical off
	Format string `yaml:"format"` // text | json
}

type Clustering struct {
	ThresholdMeters float64 `yaml:"threshold_meters"`
}

type Matching struct {
	ThresholdMeters float64 `yaml:"threshold_meters"`
}

type Proximity struct {
	proximity.Config `yaml:",inline"`
	TickInterval     time.Duration `yaml:"tick_interval"`
}

type Phase struct {
	Phases       []datastructure.PhaseDefinition `yaml:"phases"`
	Timing       phase.Timing                    `yaml:"timing"`
	TickInterval time.Duration                   `yaml:"tick_interval"`
}

type Playback struct {
	SpeedMps float64 `yaml:"speed_mps"`
}

type StaticSignal struct {
	ID    string  `yaml:"id"`
	Lat   float64 `yaml:"lat"`
	Lng   float64 `yaml:"lng"`
	Label string  `yaml:"label"`
}

type Geodata struct {
	OverpassEnabled bool                   `yaml:"overpass_enabled"`
	Overpass        geodata.OverpassConfig `yaml:"overpass"`
	PBFPath         string                 `yaml:"pbf_path"`
	PBFProcs        int                    `yaml:"pbf_procs"`
	CacheEnabled    bool                   `yaml:"cache_enabled"`
	CacheDir        string                 `yaml:"cache_dir"` // kosong: in-memory
	CacheResolution int                    `yaml:"cache_resolution"`
	Static          []StaticSignal         `yaml:"static"`
}

// StaticNodes converts the configured fallback list into signal nodes.
func (g Geodata) StaticNodes() []datastructure.SignalNode {
	nodes := make([]datastructure.SignalNode, 0, len(g.Static))
	for i, s := range g.Static {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("static/%d", i)
		}
		label := s.Label
		if label == "" {
			label = datastructure.UnnamedLabel
		}
		nodes = append(nodes, datastructure.SignalNode{
			ID:       id,
			Position: datastructure.NewCoordinate(s.Lat, s.Lng),
			Label:    label,
		})
	}
	return nodes
}

type HTTPSink struct {
	Enabled           bool `yaml:"enabled"`
	notify.HTTPConfig `yaml:",inline"`
}

type MQTTSink struct {
	Enabled           bool `yaml:"enabled"`
	notify.MQTTConfig `yaml:",inline"`
}

type KafkaSink struct {
	Enabled            bool `yaml:"enabled"`
	notify.KafkaConfig `yaml:",inline"`
}

type Notify struct {
	Log        bool                    `yaml:"log"`
	Dispatcher notify.DispatcherConfig `yaml:"dispatcher"`
	HTTP       HTTPSink                `yaml:"http"`
	MQTT       MQTTSink                `yaml:"mqtt"`
	Kafka      KafkaSink               `yaml:"kafka"`
}

type Config struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Clustering Clustering `yaml:"clustering"`
	Matching   Matching   `yaml:"matching"`
	Proximity  Proximity  `yaml:"proximity"`
	Phase      Phase      `yaml:"phase"`
	Playback   Playback   `yaml:"playback"`
	Geodata    Geodata    `yaml:"geodata"`
	Notify     Notify     `yaml:"notify"`
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddr:     ":5000",
			AllowedOrigins: []string{"https://*", "http://*"},
			Profiler:       true,
		},
		Log: Log{Level: "info", Format: "text"},
		Clustering: Clustering{
			ThresholdMeters: 60,
		},
		Matching: Matching{
			ThresholdMeters: 100,
		},
		Proximity: Proximity{
			Config:       proximity.DefaultConfig(),
			TickInterval: time.Second,
		},
		Phase: Phase{
			Phases: []datastructure.PhaseDefinition{
				{Name: "NS", Directions: []string{"north", "south"}},
				{Name: "EW", Directions: []string{"east", "west"}},
			},
			Timing:       phase.DefaultTiming(),
			TickInterval: time.Second,
		},
		Playback: Playback{SpeedMps: 12.5},
		Geodata: Geodata{
			OverpassEnabled: true,
			Overpass:        geodata.DefaultOverpassConfig(),
			PBFProcs:        2,
			CacheEnabled:    true,
			CacheResolution: kv.DefaultResolution,
		},
		Notify: Notify{
			Log:        true,
			Dispatcher: notify.DefaultDispatcherConfig(),
			HTTP: HTTPSink{HTTPConfig: notify.HTTPConfig{
				Devices:              map[string]string{},
				Timeout:              2 * time.Second,
				GreenDurationSeconds: 10,
			}},
			MQTT: MQTTSink{MQTTConfig: notify.MQTTConfig{
				Broker:         "tcp://localhost:1883",
				ClientID:       "greenwave",
				TopicPrefix:    "bengaluru_traffic/",
				QoS:            1,
				PublishTimeout: 2 * time.Second,
			}},
			Kafka: KafkaSink{KafkaConfig: notify.KafkaConfig{
				BootstrapServers: "localhost:9092",
				Topic:            "greenwave.proximity",
				Acks:             "all",
			}},
		},
	}
}

// Load reads a yaml file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	bb, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(bb)
}

func Parse(bb []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(bb, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Clustering.ThresholdMeters <= 0:
		return fmt.Errorf("%w: clustering.threshold_meters must be positive", ErrInvalidConfig)
	case c.Matching.ThresholdMeters <= 0:
		return fmt.Errorf("%w: matching.threshold_meters must be positive", ErrInvalidConfig)
	case c.Proximity.EntryThresholdMeters <= 0:
		return fmt.Errorf("%w: proximity.entry_threshold_meters must be positive", ErrInvalidConfig)
	case c.Proximity.ExitHysteresisMeters <= 0:
		return fmt.Errorf("%w: proximity.exit_hysteresis_meters must be positive", ErrInvalidConfig)
	case c.Proximity.TickInterval <= 0:
		return fmt.Errorf("%w: proximity.tick_interval must be positive", ErrInvalidConfig)
	case c.Phase.TickInterval <= 0:
		return fmt.Errorf("%w: phase.tick_interval must be positive", ErrInvalidConfig)
	case len(c.Phase.Phases) == 0:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, phase.ErrNoPhases)
	case c.Playback.SpeedMps <= 0:
		return fmt.Errorf("%w: playback.speed_mps must be positive", ErrInvalidConfig)
	case c.Notify.Dispatcher.Workers <= 0 || c.Notify.Dispatcher.QueueSize <= 0:
		return fmt.Errorf("%w: notify.dispatcher needs positive workers and queue_size", ErrInvalidConfig)
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format must be text or json", ErrInvalidConfig)
	}
	if err := c.Phase.Timing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
