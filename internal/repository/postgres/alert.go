package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/repository"
)

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (uuid.UUID, error) {
	query := `
		INSERT INTO alerts (id, user_id, title, description, date, severity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	remoteID := uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		remoteID,
		alert.UserID,
		alert.Title,
		alert.Description,
		alert.Date,
		alert.Severity,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return remoteID, nil
}

func (r *alertRepository) List(ctx context.Context, userID uuid.UUID) ([]*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE user_id = $1 ORDER BY date`
	var alerts []*model.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (r *alertRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM alerts WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
