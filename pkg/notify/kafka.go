package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"lintang/greenwave/pkg/datastructure"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type KafkaConfig struct {
	BootstrapServers string `yaml:"bootstrap_servers"`
	Topic            string `yaml:"topic"`
	Acks             string `yaml:"acks"`
}

// Producer is the subset of *kafka.Producer the notifier uses.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaNotifier produces events keyed by cluster id. Delivery reports are consumed
// asynchronously, so Notify only reports enqueue failures.
type KafkaNotifier struct {
	producer     Producer
	topic        string
	deliveryChan chan kafka.Event
	log          *logrus.Entry

	acked  atomic.Int64
	failed atomic.Int64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewKafkaNotifier(cfg KafkaConfig, logger *logrus.Entry) (*KafkaNotifier, error) {
	acks := cfg.Acks
	if acks == "" {
		acks = "all"
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"acks":               acks,
		"linger.ms":          5,
		"request.timeout.ms": 30000,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaNotifierWithProducer(p, cfg.Topic, logger), nil
}

func NewKafkaNotifierWithProducer(p Producer, topic string, logger *logrus.Entry) *KafkaNotifier {
	if logger == nil {
		logger = logrus.WithField("module", "notify")
	}
	k := &KafkaNotifier{
		producer:     p,
		topic:        topic,
		deliveryChan: make(chan kafka.Event, 1024),
		log:          logger,
	}
	k.wg.Add(1)
	go k.handleDeliveryReports()
	return k
}

func (k *KafkaNotifier) Name() string {
	return "kafka"
}

func (k *KafkaNotifier) handleDeliveryReports() {
	defer k.wg.Done()
	for e := range k.deliveryChan {
		m, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if m.TopicPartition.Error != nil {
			k.failed.Add(1)
			k.log.WithError(m.TopicPartition.Error).WithField("key", string(m.Key)).Warn("kafka delivery failed")
			continue
		}
		k.acked.Add(1)
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, event datastructure.ProximityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.ClusterID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "heading", Value: []byte(event.Heading)},
		},
	}
	if err := k.producer.Produce(msg, k.deliveryChan); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

// Stats returns acknowledged and failed delivery counts.
func (k *KafkaNotifier) Stats() (acked, failed int64) {
	return k.acked.Load(), k.failed.Load()
}

func (k *KafkaNotifier) Close() {
	k.closeOnce.Do(func() {
		if remaining := k.producer.Flush(10000); remaining > 0 {
			k.log.WithField("remaining", remaining).Warn("kafka messages still queued after flush")
		}
		k.producer.Close()
		close(k.deliveryChan)
		k.wg.Wait()
	})
}
