package record

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/service/inventory"
	"github.com/glucolog/glucolog-api/internal/service/reminder"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/pkg/errors"
	"github.com/glucolog/glucolog-api/pkg/logger"
)

// Glucose sanity bounds in mg/dL. Values outside are rejected before any
// write is attempted.
const (
	minGlucose = 10
	maxGlucose = 1000
)

type Service struct {
	syncSvc      *syncservice.Service
	reminderSvc  *reminder.Service
	inventorySvc *inventory.Service
	logger       *logger.Logger
}

func NewService(
	syncSvc *syncservice.Service,
	reminderSvc *reminder.Service,
	inventorySvc *inventory.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		syncSvc:      syncSvc,
		reminderSvc:  reminderSvc,
		inventorySvc: inventorySvc,
		logger:       logger,
	}
}

// Create validates and persists a reading, decrements medication stock, and
// optionally schedules the post-meal reminder. Validation failures surface
// synchronously; nothing is written on a bad request.
func (s *Service) Create(userID uuid.UUID, req *model.CreateRecordRequest) (*model.GlucoseRecord, error) {
	if err := validate(req.Period, req.Glucose, req.PostMealGlucose, req.Dose, req.Date); err != nil {
		return nil, err
	}

	record := &model.GlucoseRecord{
		ID:              uuid.New(),
		UserID:          userID,
		Period:          model.MealPeriod(req.Period),
		Medication:      req.Medication,
		Glucose:         req.Glucose,
		PostMealGlucose: req.PostMealGlucose,
		Dose:            req.Dose,
		Notes:           req.Notes,
		Date:            req.Date,
		CreatedAt:       time.Now(),
	}

	if err := s.syncSvc.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	s.inventorySvc.ConsumeDose(userID, record.Medication)

	if req.WantReminder {
		if _, err := s.reminderSvc.Create(record); err != nil {
			// The reading itself is saved; a missing reminder is not fatal.
			s.logger.Error(err, "failed to schedule post-meal reminder", "record_id", record.ID.String())
		}
	}

	return record, nil
}

// List returns the user's readings from the unified local view, oldest first,
// plus the source that satisfied the read.
func (s *Service) List(userID uuid.UUID) ([]model.GlucoseRecord, syncservice.LoadSource) {
	result := s.syncSvc.ReadUnified()

	records := make([]model.GlucoseRecord, 0, len(result.Data.Records))
	for _, r := range result.Data.Records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	sortByTimestamp(records)
	return records, result.Source
}

func (s *Service) Get(userID, id uuid.UUID) (*model.GlucoseRecord, error) {
	records, _ := s.List(userID)
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, errors.NotFound("record", nil)
}

func (s *Service) Update(userID, id uuid.UUID, req *model.UpdateRecordRequest) (*model.GlucoseRecord, error) {
	record, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Medication != nil {
		record.Medication = *req.Medication
	}
	if req.Glucose != nil {
		record.Glucose = *req.Glucose
	}
	if req.PostMealGlucose != nil {
		record.PostMealGlucose = req.PostMealGlucose
	}
	if req.Dose != nil {
		record.Dose = *req.Dose
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	if err := validate(string(record.Period), record.Glucose, record.PostMealGlucose, record.Dose, record.Date); err != nil {
		return nil, err
	}

	if err := s.syncSvc.UpdateRecord(record); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	return record, nil
}

func (s *Service) Delete(userID, id uuid.UUID) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	return s.syncSvc.DeleteRecord(id)
}

// ResolveReminder stores the captured post-meal value on the source reading,
// then deletes the reminder. Skip is the same deletion without the capture.
func (s *Service) ResolveReminder(userID, reminderID uuid.UUID, postMealGlucose float64) error {
	if postMealGlucose < minGlucose || postMealGlucose > maxGlucose {
		return errors.Validation(fmt.Sprintf("post-meal glucose must be between %d and %d mg/dL", minGlucose, maxGlucose), nil)
	}

	// Another user's reminder is indistinguishable from a missing one.
	for _, rem := range s.reminderSvc.ListForUser(userID) {
		if rem.ID != reminderID {
			continue
		}
		if record, err := s.Get(userID, rem.RecordID); err == nil {
			record.PostMealGlucose = &postMealGlucose
			if err := s.syncSvc.UpdateRecord(record); err != nil {
				return fmt.Errorf("failed to store post-meal value: %w", err)
			}
		}
		return s.reminderSvc.Resolve(userID, reminderID)
	}
	return errors.NotFound("reminder", nil)
}

func validate(period string, glucose float64, postMeal *float64, dose, date string) error {
	if !model.MealPeriod(period).Valid() {
		return errors.Validation(fmt.Sprintf("invalid meal period %q", period), nil)
	}
	if glucose < minGlucose || glucose > maxGlucose {
		return errors.Validation(fmt.Sprintf("glucose must be between %d and %d mg/dL", minGlucose, maxGlucose), nil)
	}
	if postMeal != nil && (*postMeal < minGlucose || *postMeal > maxGlucose) {
		return errors.Validation(fmt.Sprintf("post-meal glucose must be between %d and %d mg/dL", minGlucose, maxGlucose), nil)
	}
	if !model.ValidDose(dose) {
		return errors.Validation(fmt.Sprintf("invalid dose %q: expected a number followed by UI, mg, ml or co", dose), nil)
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return errors.Validation(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", date), nil)
	}
	return nil
}

func sortByTimestamp(records []model.GlucoseRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
}
