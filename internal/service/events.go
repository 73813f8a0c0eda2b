package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/repository"
)

// EventPublisher fans committed events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Event) error { return nil }

// SettlementObserver receives settlement outcomes, typically for metrics.
type SettlementObserver interface {
	ObserveSettlement(kind string, price uint64)
	ObserveRejection(operation, code string)
}

type nopObserver struct{}

func (nopObserver) ObserveSettlement(string, uint64) {}
func (nopObserver) ObserveRejection(string, string)  {}

// Settlement kinds reported to the observer.
const (
	SettlementPrimary = "primary"
	SettlementResale  = "resale"
)

// Deps bundles the collaborators shared by every service.
type Deps struct {
	Store     repository.Store
	Policy    Policy
	Clock     Clock
	Publisher EventPublisher
	Observer  SettlementObserver
	Logger    *logrus.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return d
}

// eventLog collects events emitted inside one transaction. They are stored
// with the transaction and published only once it has committed.
type eventLog struct {
	ctx     context.Context
	store   repository.EventRepository
	pending []*models.Event
}

// record accepts the result of models.NewEvent directly.
func (l *eventLog) record(event *models.Event, err error) error {
	if err != nil {
		return err
	}
	if err := l.store.Append(l.ctx, event); err != nil {
		return fmt.Errorf("failed to record %s: %w", event.Type, err)
	}
	l.pending = append(l.pending, event)
	return nil
}

func (l *eventLog) publish(ctx context.Context, publisher EventPublisher, log *logrus.Logger) {
	for _, e := range l.pending {
		if err := publisher.Publish(ctx, e); err != nil {
			log.WithFields(logrus.Fields{
				"event_id":   e.ID,
				"event_type": e.Type,
				"error":      err.Error(),
			}).Warn("failed to publish event")
		}
	}
	l.pending = nil
}

// runTx executes fn in a transaction and publishes its events after commit.
func runTx(ctx context.Context, d Deps, fn func(ctx context.Context, repos repository.Repositories, events *eventLog) error) error {
	var events *eventLog
	err := d.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		events = &eventLog{ctx: ctx, store: repos.Events}
		return fn(ctx, repos, events)
	})
	if err != nil {
		return err
	}
	events.publish(ctx, d.Publisher, d.Logger)
	return nil
}

// observeRejection reports policy rejections from the anti-abuse gate.
func observeRejection(d Deps, op, actor string, err error) {
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.KindPolicy {
		return
	}
	d.Observer.ObserveRejection(op, e.Code)
	d.Logger.WithFields(logrus.Fields{
		"operation": op,
		"actor":     actor,
		"code":      e.Code,
	}).Warn("operation rejected")
}
