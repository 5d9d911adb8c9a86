package notify

import (
	"context"
	"errors"
	"fmt"

	"lintang/greenwave/pkg/datastructure"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a proximity event to one sink (device, broker, log).
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event datastructure.ProximityEvent) error
}

// Observer is told the outcome of every delivery attempt per sink.
type Observer func(sink string, err error)

// Fanout delivers every event to all of its notifiers and joins their errors.
type Fanout struct {
	notifiers []Notifier
	observer  Observer
}

func NewFanout(observer Observer, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, observer: observer}
}

func (f *Fanout) Name() string {
	return "fanout"
}

func (f *Fanout) Len() int {
	return len(f.notifiers)
}

func (f *Fanout) Notify(ctx context.Context, event datastructure.ProximityEvent) error {
	var errs []error
	for _, n := range f.notifiers {
		err := n.Notify(ctx, event)
		if f.observer != nil {
			f.observer(n.Name(), err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes each event as a structured log line.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(logger *logrus.Entry) *LogNotifier {
	if logger == nil {
		logger = logrus.WithField("module", "notify")
	}
	return &LogNotifier{log: logger}
}

func (l *LogNotifier) Name() string {
	return "log"
}

func (l *LogNotifier) Notify(ctx context.Context, event datastructure.ProximityEvent) error {
	l.log.WithFields(logrus.Fields{
		"event_id":    event.ID,
		"cluster_id":  event.ClusterID,
		"label":       event.Label,
		"distance_m":  event.DistanceMeters,
		"heading":     event.Heading,
		"route_index": event.RouteOrderIndex,
	}).Info("agent approaching junction")
	return nil
}
