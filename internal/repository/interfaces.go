package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/model"
)

// UserRepository persists accounts in the remote store.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GlucoseRecordRepository persists readings in the remote glucose_records table.
// Create returns the remote identifier assigned to the row; the sync glue keeps
// it on the local record so later pushes become updates.
type GlucoseRecordRepository interface {
	Create(ctx context.Context, record *model.GlucoseRecord) (uuid.UUID, error)
	Update(ctx context.Context, remoteID uuid.UUID, record *model.GlucoseRecord) error
	List(ctx context.Context, userID uuid.UUID) ([]*model.GlucoseRecord, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

// AlertRepository persists alerts in the remote store.
type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) (uuid.UUID, error)
	List(ctx context.Context, userID uuid.UUID) ([]*model.Alert, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

// PaymentRepository persists the payment_history table.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	List(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error)
}
