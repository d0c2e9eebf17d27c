package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/repository"
)

type recordRepository struct {
	db *sqlx.DB
}

func NewGlucoseRecordRepository(db *sqlx.DB) repository.GlucoseRecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *model.GlucoseRecord) (uuid.UUID, error) {
	query := `
		INSERT INTO glucose_records (id, user_id, period, medication, glucose,
			post_meal_glucose, dose, notes, date, ts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	remoteID := uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		remoteID,
		record.UserID,
		record.Period,
		record.Medication,
		record.Glucose,
		record.PostMealGlucose,
		record.Dose,
		record.Notes,
		record.Date,
		record.Timestamp,
		time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create glucose record: %w", err)
	}
	return remoteID, nil
}

func (r *recordRepository) Update(ctx context.Context, remoteID uuid.UUID, record *model.GlucoseRecord) error {
	query := `
		UPDATE glucose_records SET period = $1, medication = $2, glucose = $3,
			post_meal_glucose = $4, dose = $5, notes = $6, date = $7, ts = $8
		WHERE id = $9
	`
	_, err := r.db.ExecContext(ctx, query,
		record.Period,
		record.Medication,
		record.Glucose,
		record.PostMealGlucose,
		record.Dose,
		record.Notes,
		record.Date,
		record.Timestamp,
		remoteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update glucose record: %w", err)
	}
	return nil
}

func (r *recordRepository) List(ctx context.Context, userID uuid.UUID) ([]*model.GlucoseRecord, error) {
	query := `SELECT * FROM glucose_records WHERE user_id = $1 ORDER BY ts`
	var records []*model.GlucoseRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list glucose records: %w", err)
	}
	return records, nil
}

func (r *recordRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM glucose_records WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
