package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// MealPeriod is the meal slot a glucose reading belongs to.
type MealPeriod string

const (
	PeriodBreakfast MealPeriod = "breakfast"
	PeriodLunch     MealPeriod = "lunch"
	PeriodSnack     MealPeriod = "snack"
	PeriodDinner    MealPeriod = "dinner"
	PeriodBedtime   MealPeriod = "bedtime"
)

// periodHours maps each meal period to a fixed hour of the day. The mapping
// keeps derived timestamps deterministic, so readings sort chronologically the
// same way no matter which store they were loaded from.
var periodHours = map[MealPeriod]int{
	PeriodBreakfast: 7,
	PeriodLunch:     12,
	PeriodSnack:     16,
	PeriodDinner:    20,
	PeriodBedtime:   23,
}

func (p MealPeriod) Valid() bool {
	_, ok := periodHours[p]
	return ok
}

// Dose unit constants
const (
	UnitUI = "UI"
	UnitMg = "mg"
	UnitCo = "co"
	UnitMl = "ml"
)

// DateLayout is the calendar-date format used by records and exports.
const DateLayout = "2006-01-02"

// doseRe accepts a numeral followed by one of the known unit suffixes,
// with optional whitespace in between ("10ui", "10 UI", "2.5 mg").
var doseRe = regexp.MustCompile(`(?i)^[0-9]+(\.[0-9]+)?\s*(ui|mg|ml|co)$`)

// ValidDose reports whether a free-text dose matches the unit-suffix pattern.
// Empty doses are allowed: not every reading has medication attached.
func ValidDose(dose string) bool {
	if dose == "" {
		return true
	}
	return doseRe.MatchString(dose)
}

// GlucoseRecord is a single glucose measurement event tied to a meal period.
// Local and export JSON is camelCase; db tags carry the snake_case column
// names of the remote glucose_records table.
type GlucoseRecord struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"userId" db:"user_id"`
	RemoteID        *uuid.UUID `json:"remoteId,omitempty" db:"-"`
	Period          MealPeriod `json:"period" db:"period"`
	Medication      string     `json:"medication" db:"medication"`
	Glucose         float64    `json:"glucose" db:"glucose"`
	PostMealGlucose *float64   `json:"postMealGlucose,omitempty" db:"post_meal_glucose"`
	Dose            string     `json:"dose" db:"dose"`
	Notes           string     `json:"notes" db:"notes"`
	Date            string     `json:"date" db:"date"`
	Timestamp       int64      `json:"timestamp" db:"ts"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// NormalizeTimestamp fills in the derived sort timestamp when it was not
// explicitly supplied. Derivation is deterministic from (Date, Period):
// the calendar date at UTC midnight plus the period's fixed hour, in epoch
// milliseconds.
func (r *GlucoseRecord) NormalizeTimestamp() {
	if r.Timestamp != 0 {
		return
	}
	r.Timestamp = DeriveTimestamp(r.Date, r.Period)
}

// DeriveTimestamp computes the sort timestamp for a (date, period) pair.
// An unparseable date yields zero rather than an error; a malformed record
// must never break ordering of the rest of the collection.
func DeriveTimestamp(date string, period MealPeriod) int64 {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return 0
	}
	return day.Add(time.Duration(periodHours[period]) * time.Hour).UnixMilli()
}

// CreateRecordRequest represents reading creation parameters
type CreateRecordRequest struct {
	Period          string   `json:"period" binding:"required,oneof=breakfast lunch snack dinner bedtime"`
	Medication      string   `json:"medication"`
	Glucose         float64  `json:"glucose" binding:"required,gt=0"`
	PostMealGlucose *float64 `json:"postMealGlucose" binding:"omitempty,gt=0"`
	Dose            string   `json:"dose" binding:"omitempty,dose"`
	Notes           string   `json:"notes"`
	Date            string   `json:"date" binding:"required,caldate"`
	WantReminder    bool     `json:"wantReminder"`
}

// UpdateRecordRequest represents reading update parameters
type UpdateRecordRequest struct {
	Medication      *string  `json:"medication"`
	Glucose         *float64 `json:"glucose" binding:"omitempty,gt=0"`
	PostMealGlucose *float64 `json:"postMealGlucose" binding:"omitempty,gt=0"`
	Dose            *string  `json:"dose" binding:"omitempty,dose"`
	Notes           *string  `json:"notes"`
}
