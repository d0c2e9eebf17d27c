package model

import (
	"time"

	"github.com/google/uuid"
)

// Plan tiers. FREE is local-storage only; PRO adds remote sync.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// Theme preferences
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// User represents an account and its profile.
type User struct {
	Base
	Email          string     `json:"email" db:"email"`
	Name           string     `json:"name" db:"name"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Plan           Plan       `json:"plan" db:"plan"`
	OnboardingDone bool       `json:"onboardingDone" db:"onboarding_done"`
	Theme          string     `json:"theme" db:"theme"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	BirthDate      *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	WeightKg       *float64   `json:"weightKg,omitempty" db:"weight_kg"`
	HeightCm       *float64   `json:"heightCm,omitempty" db:"height_cm"`
}

// IsPro reports whether remote sync is available to this account.
func (u *User) IsPro() bool {
	return u.Plan == PlanPro
}

// RegisterRequest represents signup parameters
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents profile update parameters
type UpdateProfileRequest struct {
	Name           *string    `json:"name"`
	Theme          *string    `json:"theme" binding:"omitempty,oneof=light dark"`
	OnboardingDone *bool      `json:"onboardingDone"`
	Phone          *string    `json:"phone"`
	BirthDate      *time.Time `json:"birthDate"`
	WeightKg       *float64   `json:"weightKg" binding:"omitempty,gt=0"`
	HeightCm       *float64   `json:"heightCm" binding:"omitempty,gt=0"`
}

// RefreshTokenRequest carries the refresh token to exchange
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse carries issued tokens
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenClaims are the validated contents of an access token
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Plan   Plan
}
