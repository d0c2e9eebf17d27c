package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/model"
	inventoryservice "github.com/glucolog/glucolog-api/internal/service/inventory"
	reminderservice "github.com/glucolog/glucolog-api/internal/service/reminder"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/messaging"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

var testMetrics = metrics.New("workertest")

type fakeBroker struct {
	published map[string]int
	err       error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string]int)}
}

func (f *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published[channel]++
	return nil
}

func (f *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

type fakeUserRepo struct {
	user *model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if f.user == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.user, nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }

type fakeEmailService struct {
	dueReminders int
	lowStock     int
}

func (f *fakeEmailService) SendWelcome(to, name string) error { return nil }
func (f *fakeEmailService) SendDueReminder(to string, reminder *model.Reminder) error {
	f.dueReminders++
	return nil
}
func (f *fakeEmailService) SendLowStockAlert(to string, item *model.InventoryItem) error {
	f.lowStock++
	return nil
}

var _ email.Service = (*fakeEmailService)(nil)

type pollerEnv struct {
	poller    *Poller
	store     localstore.Store
	inventory *inventoryservice.Service
	broker    *fakeBroker
	users     *fakeUserRepo
	emails    *fakeEmailService
}

func newPollerEnv(t *testing.T) *pollerEnv {
	t.Helper()
	store, err := localstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log := logger.New(nil)
	syncSvc := syncservice.NewService(store, nil, nil, nil, log, testMetrics)
	reminders := reminderservice.NewService(store, log, testMetrics)
	inventory := inventoryservice.NewService(store, syncSvc, log)
	broker := newFakeBroker()
	users := &fakeUserRepo{}
	emails := &fakeEmailService{}

	poller := NewPoller(
		reminders, inventory, users, broker, emails,
		PollerConfig{PollInterval: time.Second}, log, testMetrics,
	)
	return &pollerEnv{
		poller:    poller,
		store:     store,
		inventory: inventory,
		broker:    broker,
		users:     users,
		emails:    emails,
	}
}

// seedReminder writes a stored reminder whose trigger time is offset from now.
func seedReminder(t *testing.T, env *pollerEnv, offset time.Duration) model.Reminder {
	t.Helper()
	rem := model.Reminder{
		ID:       uuid.New(),
		RecordID: uuid.New(),
		Record: model.GlucoseRecord{
			ID:      uuid.New(),
			UserID:  uuid.New(),
			Period:  model.PeriodLunch,
			Glucose: 120,
			Date:    "2024-03-10",
		},
		CreatedAt: time.Now().Add(offset - reminderservice.Delay),
		TriggerAt: time.Now().Add(offset),
	}
	blob, err := json.Marshal([]model.Reminder{rem})
	require.NoError(t, err)
	require.NoError(t, env.store.Set(localstore.KeyReminders, blob))
	return rem
}

func TestSweepAnnouncesDueReminderOnce(t *testing.T) {
	env := newPollerEnv(t)
	seedReminder(t, env, -time.Minute)

	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.broker.published[messaging.ChannelRemindersDue])

	// A still-due reminder is not re-announced on the next sweep.
	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.broker.published[messaging.ChannelRemindersDue])
}

func TestSweepIgnoresFutureReminder(t *testing.T) {
	env := newPollerEnv(t)
	seedReminder(t, env, time.Hour)

	env.poller.sweep(context.Background())
	assert.Zero(t, env.broker.published[messaging.ChannelRemindersDue])
}

func TestSweepRetriesAfterPublishFailure(t *testing.T) {
	env := newPollerEnv(t)
	seedReminder(t, env, -time.Minute)

	env.broker.err = fmt.Errorf("redis down")
	env.poller.sweep(context.Background())
	assert.Zero(t, env.broker.published[messaging.ChannelRemindersDue])

	env.broker.err = nil
	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.broker.published[messaging.ChannelRemindersDue])
}

func TestSweepEmailsProUsersOnly(t *testing.T) {
	env := newPollerEnv(t)
	rem := seedReminder(t, env, -time.Minute)

	env.users.user = &model.User{
		Base:  model.Base{ID: rem.Record.UserID},
		Email: "user@example.com",
		Plan:  model.PlanFree,
	}
	env.poller.sweep(context.Background())
	assert.Zero(t, env.emails.dueReminders)

	// Same reminder, PRO plan: announced state reset to replay the sweep.
	env.poller.announcedReminders = map[uuid.UUID]bool{}
	env.users.user.Plan = model.PlanPro
	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.emails.dueReminders)
}

func TestSweepAnnouncesLowStockOnce(t *testing.T) {
	env := newPollerEnv(t)

	_, err := env.inventory.Create(uuid.New(), &model.CreateInventoryItemRequest{
		Name: "Insulin", Quantity: 1, Unit: model.UnitUI, Threshold: 5,
	})
	require.NoError(t, err)

	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.broker.published[messaging.ChannelLowStock])

	env.poller.sweep(context.Background())
	assert.Equal(t, 1, env.broker.published[messaging.ChannelLowStock])
}
