package record

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog-api/internal/model"
	inventoryservice "github.com/glucolog/glucolog-api/internal/service/inventory"
	reminderservice "github.com/glucolog/glucolog-api/internal/service/reminder"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/errors"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

var testMetrics = metrics.New("recordtest")

type testEnv struct {
	svc       *Service
	syncSvc   *syncservice.Service
	reminders *reminderservice.Service
	inventory *inventoryservice.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := localstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log := logger.New(nil)
	syncSvc := syncservice.NewService(store, nil, nil, nil, log, testMetrics)
	reminders := reminderservice.NewService(store, log, testMetrics)
	inventory := inventoryservice.NewService(store, syncSvc, log)

	return &testEnv{
		svc:       NewService(syncSvc, reminders, inventory, log),
		syncSvc:   syncSvc,
		reminders: reminders,
		inventory: inventory,
	}
}

func validRequest() *model.CreateRecordRequest {
	return &model.CreateRecordRequest{
		Period:  string(model.PeriodLunch),
		Glucose: 120,
		Dose:    "10ui",
		Date:    "2024-03-10",
	}
}

func TestCreateValidRecord(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	rec, err := env.svc.Create(userID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, model.DeriveTimestamp("2024-03-10", model.PeriodLunch), rec.Timestamp)

	records, source := env.svc.List(userID)
	require.Len(t, records, 1)
	assert.Equal(t, syncservice.SourcePrimary, source)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	cases := map[string]func(*model.CreateRecordRequest){
		"bad period":       func(r *model.CreateRecordRequest) { r.Period = "brunch" },
		"glucose too low":  func(r *model.CreateRecordRequest) { r.Glucose = 5 },
		"glucose too high": func(r *model.CreateRecordRequest) { r.Glucose = 1500 },
		"bad dose":         func(r *model.CreateRecordRequest) { r.Dose = "ten units" },
		"bad date":         func(r *model.CreateRecordRequest) { r.Date = "10/03/2024" },
		"bad post-meal":    func(r *model.CreateRecordRequest) { v := 3.0; r.PostMealGlucose = &v },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(req)

			_, err := env.svc.Create(userID, req)
			require.Error(t, err)
			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrValidation, appErr.Code)

			// Nothing was written.
			records, _ := env.svc.List(userID)
			assert.Empty(t, records)
		})
	}
}

func TestListSortsByDerivedTimestamp(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	dinner := validRequest()
	dinner.Period = string(model.PeriodDinner)
	_, err := env.svc.Create(userID, dinner)
	require.NoError(t, err)

	breakfast := validRequest()
	breakfast.Period = string(model.PeriodBreakfast)
	_, err = env.svc.Create(userID, breakfast)
	require.NoError(t, err)

	earlier := validRequest()
	earlier.Date = "2024-03-09"
	earlier.Period = string(model.PeriodBedtime)
	_, err = env.svc.Create(userID, earlier)
	require.NoError(t, err)

	records, _ := env.svc.List(userID)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-09", records[0].Date)
	assert.Equal(t, model.PeriodBreakfast, records[1].Period)
	assert.Equal(t, model.PeriodDinner, records[2].Period)
}

func TestCreateWithReminder(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	req := validRequest()
	req.WantReminder = true

	rec, err := env.svc.Create(userID, req)
	require.NoError(t, err)

	reminders := env.reminders.List()
	require.Len(t, reminders, 1)
	assert.Equal(t, rec.ID, reminders[0].RecordID)
	assert.Equal(t, reminderservice.Delay, reminders[0].TriggerAt.Sub(reminders[0].CreatedAt))
}

func TestCreateConsumesInventory(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	_, err := env.inventory.Create(userID, &model.CreateInventoryItemRequest{
		Name: "Insulin", Quantity: 10, Unit: model.UnitUI, Threshold: 2,
	})
	require.NoError(t, err)

	req := validRequest()
	req.Medication = "Insulin"
	_, err = env.svc.Create(userID, req)
	require.NoError(t, err)

	items := env.inventory.List(userID)
	assert.Equal(t, float64(9), items[0].Quantity)
}

func TestUpdateRevalidates(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	rec, err := env.svc.Create(userID, validRequest())
	require.NoError(t, err)

	bad := 2000.0
	_, err = env.svc.Update(userID, rec.ID, &model.UpdateRecordRequest{Glucose: &bad})
	require.Error(t, err)

	good := 140.0
	updated, err := env.svc.Update(userID, rec.ID, &model.UpdateRecordRequest{Glucose: &good})
	require.NoError(t, err)
	assert.Equal(t, good, updated.Glucose)
}

func TestGetScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	rec, err := env.svc.Create(userID, validRequest())
	require.NoError(t, err)

	_, err = env.svc.Get(uuid.New(), rec.ID)
	assert.Error(t, err)

	got, err := env.svc.Get(userID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	rec, err := env.svc.Create(userID, validRequest())
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(userID, rec.ID))
	records, _ := env.svc.List(userID)
	assert.Empty(t, records)

	assert.Error(t, env.svc.Delete(userID, rec.ID))
}

func TestResolveReminderStoresPostMealValue(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	req := validRequest()
	req.WantReminder = true
	rec, err := env.svc.Create(userID, req)
	require.NoError(t, err)

	reminders := env.reminders.List()
	require.Len(t, reminders, 1)

	require.NoError(t, env.svc.ResolveReminder(userID, reminders[0].ID, 145))

	got, err := env.svc.Get(userID, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PostMealGlucose)
	assert.Equal(t, 145.0, *got.PostMealGlucose)

	assert.Empty(t, env.reminders.List())
}

func TestResolveReminderRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	req := validRequest()
	req.WantReminder = true
	_, err := env.svc.Create(userID, req)
	require.NoError(t, err)

	reminders := env.reminders.List()
	require.Len(t, reminders, 1)

	err = env.svc.ResolveReminder(userID, reminders[0].ID, 5)
	require.Error(t, err)

	// The reminder survives a rejected capture.
	assert.Len(t, env.reminders.List(), 1)
}

func TestResolveReminderRejectsOtherUser(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	intruder := uuid.New()

	req := validRequest()
	req.WantReminder = true
	rec, err := env.svc.Create(owner, req)
	require.NoError(t, err)

	reminders := env.reminders.List()
	require.Len(t, reminders, 1)

	// Resolving someone else's reminder fails and must not delete it.
	err = env.svc.ResolveReminder(intruder, reminders[0].ID, 140)
	require.Error(t, err)
	assert.Len(t, env.reminders.List(), 1)

	// And the owner's reading is untouched.
	got, err := env.svc.Get(owner, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PostMealGlucose)
}

func TestResolveUnknownReminder(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.ResolveReminder(uuid.New(), uuid.New(), 120)
	require.Error(t, err)
}

func TestListEmptyStoreIsEmptySource(t *testing.T) {
	env := newTestEnv(t)

	records, source := env.svc.List(uuid.New())
	assert.Empty(t, records)
	assert.Equal(t, syncservice.SourceEmpty, source)
}
