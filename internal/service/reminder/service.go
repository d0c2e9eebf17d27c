// Package reminder models the one-shot post-meal check reminder. There is no
// alarm primitive: due reminders are found by comparing stored trigger times
// against the wall clock whenever a consumer polls, so detection resolution
// equals the poll interval.
package reminder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/errors"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

// Delay is the fixed offset between a reading and its post-meal check.
// It is deliberately not configurable per reminder.
const Delay = 120 * time.Minute

type Service struct {
	store   localstore.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store localstore.Store, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Create stores a reminder snapshotting the source reading, triggering a
// fixed Delay after now.
func (s *Service) Create(record *model.GlucoseRecord) (*model.Reminder, error) {
	now := s.now()
	reminder := model.Reminder{
		ID:        uuid.New(),
		RecordID:  record.ID,
		Record:    *record,
		CreatedAt: now,
		TriggerAt: now.Add(Delay),
	}

	reminders := s.load()
	reminders = append(reminders, reminder)
	if err := s.save(reminders); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.metrics.RemindersCreated.Inc()
	return &reminder, nil
}

// List returns all stored reminders across users, due or not. The poll
// worker sweeps this; request paths use ListForUser.
func (s *Service) List() []model.Reminder {
	return s.load()
}

// ListForUser returns the reminders whose source reading belongs to the user.
func (s *Service) ListForUser(userID uuid.UUID) []model.Reminder {
	mine := make([]model.Reminder, 0)
	for _, r := range s.load() {
		if r.Record.UserID == userID {
			mine = append(mine, r)
		}
	}
	return mine
}

// ListDue filters reminders whose trigger time has elapsed. Pure and
// idempotent; a due reminder stays due until resolved or skipped.
func (s *Service) ListDue() []model.Reminder {
	now := s.now()
	due := make([]model.Reminder, 0)
	for _, r := range s.load() {
		if r.Due(now) {
			due = append(due, r)
		}
	}
	s.metrics.RemindersDue.Set(float64(len(due)))
	return due
}

// ListDueForUser is ListDue restricted to the user's own reminders.
func (s *Service) ListDueForUser(userID uuid.UUID) []model.Reminder {
	now := s.now()
	due := make([]model.Reminder, 0)
	for _, r := range s.ListForUser(userID) {
		if r.Due(now) {
			due = append(due, r)
		}
	}
	return due
}

// Resolve deletes the user's reminder. The caller records the captured
// post-meal value on the source reading before calling this.
func (s *Service) Resolve(userID, id uuid.UUID) error {
	return s.remove(userID, id)
}

// Skip deletes the user's reminder without a captured value.
func (s *Service) Skip(userID, id uuid.UUID) error {
	return s.remove(userID, id)
}

// remove treats another user's reminder the same as a missing one, so the
// response does not reveal whether the identifier exists.
func (s *Service) remove(userID, id uuid.UUID) error {
	reminders := s.load()
	kept := reminders[:0]
	found := false
	for _, r := range reminders {
		if r.ID == id && r.Record.UserID == userID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return errors.NotFound("reminder", nil)
	}
	if err := s.save(kept); err != nil {
		return fmt.Errorf("failed to remove reminder: %w", err)
	}
	return nil
}

// load reads the stored collection, degrading to empty on absence or
// corruption, the same tolerance as the rest of the local storage layer.
func (s *Service) load() []model.Reminder {
	blob, ok, err := s.store.Get(localstore.KeyReminders)
	if err != nil {
		s.logger.Error(err, "failed to read reminders")
		return []model.Reminder{}
	}
	if !ok {
		return []model.Reminder{}
	}

	var reminders []model.Reminder
	if err := json.Unmarshal(blob, &reminders); err != nil {
		s.logger.Error(err, "malformed reminder collection, starting empty")
		return []model.Reminder{}
	}
	return reminders
}

func (s *Service) save(reminders []model.Reminder) error {
	blob, err := json.Marshal(reminders)
	if err != nil {
		return err
	}
	return s.store.Set(localstore.KeyReminders, blob)
}
