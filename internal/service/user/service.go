package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/repository"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/pkg/auth"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// proPlanPrice is what an upgrade books into payment_history.
const proPlanPrice = 9.90

type Service struct {
	repo     repository.UserRepository
	payments repository.PaymentRepository
	syncSvc  *syncservice.Service
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	logger   *logger.Logger
}

func NewService(
	repo repository.UserRepository,
	payments repository.PaymentRepository,
	syncSvc *syncservice.Service,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		payments: payments,
		syncSvc:  syncSvc,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		emailSvc: emailSvc,
		logger:   logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if existing, _ := s.repo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base: model.Base{
			ID: uuid.New(),
		},
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Plan:         model.PlanFree,
		Theme:        model.ThemeLight,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.syncSvc.CacheProfile(user)

	if err := s.emailSvc.SendWelcome(user.Email, user.Name); err != nil {
		// Registration stands; the welcome mail is a courtesy.
		s.logger.Error(err, "failed to send welcome email", "email", user.Email)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, *model.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.syncSvc.CacheProfile(user)
	return tokens, user, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.repo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokens(user)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Theme != nil {
		user.Theme = *req.Theme
	}
	if req.OnboardingDone != nil {
		user.OnboardingDone = *req.OnboardingDone
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.BirthDate != nil {
		user.BirthDate = req.BirthDate
	}
	if req.WeightKg != nil {
		user.WeightKg = req.WeightKg
	}
	if req.HeightCm != nil {
		user.HeightCm = req.HeightCm
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.syncSvc.CacheProfile(user)
	return user, nil
}

// UpgradeToPro books a payment and flips the plan, unlocking remote sync.
func (s *Service) UpgradeToPro(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsPro() {
		return user, nil
	}

	payment := &model.Payment{
		ID:     uuid.New(),
		UserID: user.ID,
		Plan:   model.PlanPro,
		Amount: proPlanPrice,
		PaidAt: time.Now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	user.Plan = model.PlanPro
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upgrade plan: %w", err)
	}

	s.syncSvc.CacheProfile(user)
	return user, nil
}

func (s *Service) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
