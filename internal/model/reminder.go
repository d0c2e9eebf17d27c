package model

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a one-shot post-meal check reminder. It captures a snapshot of
// the source reading at creation time; the trigger is a fixed offset from
// creation. Resolution and skip both delete it; there is no snooze and no
// expiry, and a due-but-ignored reminder stays due until acted on.
type Reminder struct {
	ID        uuid.UUID     `json:"id"`
	RecordID  uuid.UUID     `json:"recordId"`
	Record    GlucoseRecord `json:"record"`
	CreatedAt time.Time     `json:"createdAt"`
	TriggerAt time.Time     `json:"triggerAt"`
}

// Due reports whether the trigger time has elapsed at the given instant.
func (r *Reminder) Due(now time.Time) bool {
	return !r.TriggerAt.After(now)
}

// ResolveReminderRequest carries the captured post-meal value.
type ResolveReminderRequest struct {
	PostMealGlucose float64 `json:"postMealGlucose" binding:"required,gt=0"`
}
