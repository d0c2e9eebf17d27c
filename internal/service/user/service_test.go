package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/model"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/auth"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/metrics"
	"github.com/glucolog/glucolog-api/pkg/security"
)

var testMetrics = metrics.New("usertest")

type memoryUserRepo struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, assert.AnError
	}
	return u, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, assert.AnError
	}
	return u, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user *model.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type memoryPaymentRepo struct {
	payments []*model.Payment
}

func (r *memoryPaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	r.payments = append(r.payments, payment)
	return nil
}

func (r *memoryPaymentRepo) List(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error) {
	return r.payments, nil
}

type fakeEmailService struct {
	welcomes int
}

func (f *fakeEmailService) SendWelcome(to, name string) error { f.welcomes++; return nil }
func (f *fakeEmailService) SendDueReminder(to string, reminder *model.Reminder) error {
	return nil
}
func (f *fakeEmailService) SendLowStockAlert(to string, item *model.InventoryItem) error {
	return nil
}

var _ email.Service = (*fakeEmailService)(nil)

type testEnv struct {
	svc      *Service
	repo     *memoryUserRepo
	payments *memoryPaymentRepo
	emails   *fakeEmailService
	syncSvc  *syncservice.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := localstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log := logger.New(nil)
	repo := newMemoryUserRepo()
	payments := &memoryPaymentRepo{}
	emails := &fakeEmailService{}
	syncSvc := syncservice.NewService(store, repo, nil, nil, log, testMetrics)
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	return &testEnv{
		svc: NewService(
			repo, payments, syncSvc, jwtSvc,
			security.NewBcryptHasher(4), emails, log,
		),
		repo:     repo,
		payments: payments,
		emails:   emails,
		syncSvc:  syncSvc,
	}
}

func registerReq() *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:    "test@example.com",
		Name:     "Test",
		Password: "secret-password",
	}
}

func TestRegisterDefaults(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, model.PlanFree, u.Plan)
	assert.Equal(t, model.ThemeLight, u.Theme)
	assert.False(t, u.OnboardingDone)
	assert.NotEqual(t, "secret-password", u.PasswordHash)
	assert.Equal(t, 1, env.emails.welcomes)

	// The profile was cached locally for FREE exports.
	snap := env.syncSvc.ExportSnapshot(context.Background(), u.ID, false)
	assert.Equal(t, u.Email, snap.User.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = env.svc.Register(context.Background(), registerReq())
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	tokens, loggedIn, err := env.svc.Login(context.Background(), u.Email, "secret-password")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := env.svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.PlanFree, claims.Plan)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, _, err = env.svc.Login(context.Background(), u.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.svc.Login(context.Background(), "nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	tokens, _, err := env.svc.Login(context.Background(), u.Email, "secret-password")
	require.NoError(t, err)

	fresh, err := env.svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token is not accepted as a refresh token.
	_, err = env.svc.RefreshToken(context.Background(), tokens.AccessToken)
	assert.Error(t, err)
}

func TestUpgradeToPro(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	upgraded, err := env.svc.UpgradeToPro(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, upgraded.Plan)

	require.Len(t, env.payments.payments, 1)
	assert.Equal(t, model.PlanPro, env.payments.payments[0].Plan)

	// Upgrading twice books no second payment.
	_, err = env.svc.UpgradeToPro(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, env.payments.payments, 1)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	name := "Renamed"
	theme := model.ThemeDark
	done := true
	updated, err := env.svc.UpdateProfile(context.Background(), u.ID, &model.UpdateProfileRequest{
		Name:           &name,
		Theme:          &theme,
		OnboardingDone: &done,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, model.ThemeDark, updated.Theme)
	assert.True(t, updated.OnboardingDone)
}
