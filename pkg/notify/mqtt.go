package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lintang/greenwave/pkg/datastructure"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	QoS            byte          `yaml:"qos"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// ConnectMQTT connects a paho client to the configured broker.
func ConnectMQTT(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", cfg.Broker, token.Error())
	}
	return client, nil
}

// MQTTNotifier publishes each event to <prefix>proximity/<cluster id>.
type MQTTNotifier struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

func NewMQTTNotifier(client mqtt.Client, cfg MQTTConfig) *MQTTNotifier {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &MQTTNotifier{client: client, prefix: cfg.TopicPrefix, qos: cfg.QoS, timeout: timeout}
}

func (m *MQTTNotifier) Name() string {
	return "mqtt"
}

func (m *MQTTNotifier) Topic(clusterID string) string {
	return m.prefix + "proximity/" + clusterID
}

func (m *MQTTNotifier) Notify(ctx context.Context, event datastructure.ProximityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.Topic(event.ClusterID), m.qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("mqtt publish %s: timeout after %s", m.Topic(event.ClusterID), m.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

func (m *MQTTNotifier) Close() {
	m.client.Disconnect(250)
}
