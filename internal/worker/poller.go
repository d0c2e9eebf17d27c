// Package worker contains the poll loop that stands in for the dashboard's
// periodic refresh: due reminders and low stock are detected by comparing
// stored state against the wall clock on a fixed interval, never by alarm.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/repository"
	"github.com/glucolog/glucolog-api/internal/service/inventory"
	"github.com/glucolog/glucolog-api/internal/service/reminder"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/messaging"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

type PollerConfig struct {
	PollInterval time.Duration
}

// Poller sweeps reminders and inventory on a fixed interval. Due detection
// resolution equals the poll interval; a due reminder is announced once and
// then left alone until the user resolves or skips it.
type Poller struct {
	reminders *reminder.Service
	inventory *inventory.Service
	users     repository.UserRepository
	broker    messaging.Broker
	emailSvc  email.Service
	config    PollerConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics

	announcedReminders map[uuid.UUID]bool
	announcedItems     map[uuid.UUID]bool
}

func NewPoller(
	reminders *reminder.Service,
	inventory *inventory.Service,
	users repository.UserRepository,
	broker messaging.Broker,
	emailSvc email.Service,
	config PollerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Poller {
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	return &Poller{
		reminders:          reminders,
		inventory:          inventory,
		users:              users,
		broker:             broker,
		emailSvc:           emailSvc,
		config:             config,
		logger:             logger,
		metrics:            metrics,
		announcedReminders: make(map[uuid.UUID]bool),
		announcedItems:     make(map[uuid.UUID]bool),
	}
}

func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting poller", "interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down poller")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	timer := prometheus.NewTimer(p.metrics.ReminderSweepTime)
	defer timer.ObserveDuration()

	p.sweepReminders(ctx)
	p.sweepInventory(ctx)
}

func (p *Poller) sweepReminders(ctx context.Context) {
	due := p.reminders.ListDue()

	seen := make(map[uuid.UUID]bool, len(due))
	for i := range due {
		rem := due[i]
		seen[rem.ID] = true
		if p.announcedReminders[rem.ID] {
			continue
		}

		if err := p.broker.Publish(ctx, messaging.ChannelRemindersDue, rem); err != nil {
			// Announce again next sweep rather than losing the event.
			p.logger.Error(err, "failed to publish due reminder", "reminder_id", rem.ID.String())
			continue
		}
		p.notifyByEmail(ctx, rem.Record.UserID, func(u *model.User) error {
			return p.emailSvc.SendDueReminder(u.Email, &rem)
		})
		p.announcedReminders[rem.ID] = true
	}

	// Forget resolved/skipped reminders so the map doesn't grow unbounded.
	for id := range p.announcedReminders {
		if !seen[id] {
			delete(p.announcedReminders, id)
		}
	}
}

func (p *Poller) sweepInventory(ctx context.Context) {
	low := p.inventory.AllLowStock()

	seen := make(map[uuid.UUID]bool, len(low))
	for i := range low {
		item := low[i]
		seen[item.ID] = true
		if p.announcedItems[item.ID] {
			continue
		}

		if err := p.broker.Publish(ctx, messaging.ChannelLowStock, item); err != nil {
			p.logger.Error(err, "failed to publish low stock item", "item_id", item.ID.String())
			continue
		}
		p.notifyByEmail(ctx, item.UserID, func(u *model.User) error {
			return p.emailSvc.SendLowStockAlert(u.Email, &item)
		})
		p.announcedItems[item.ID] = true
	}

	for id := range p.announcedItems {
		if !seen[id] {
			delete(p.announcedItems, id)
		}
	}
}

// notifyByEmail mails PRO accounts only; a remote lookup failure just means
// no mail this sweep.
func (p *Poller) notifyByEmail(ctx context.Context, userID uuid.UUID, send func(*model.User) error) {
	user, err := p.users.Get(ctx, userID)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_user", "error").Inc()
		return
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_user", "success").Inc()
	if !user.IsPro() {
		return
	}
	if err := send(user); err != nil {
		p.logger.Error(err, "failed to send notification email", "user_id", userID.String())
	}
}
