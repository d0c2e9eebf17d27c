package model

import (
	"github.com/google/uuid"
)

// AlertSeverity levels
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Alert is a dismissable notice shown on the dashboard. There is no
// read/unread state; deleting the alert is the dismissal.
type Alert struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	UserID      uuid.UUID     `json:"userId" db:"user_id"`
	RemoteID    *uuid.UUID    `json:"remoteId,omitempty" db:"-"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Date        string        `json:"date" db:"date"`
	Severity    AlertSeverity `json:"severity" db:"severity"`
}

// CreateAlertRequest represents alert creation parameters
type CreateAlertRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	Severity    string `json:"severity" binding:"required,oneof=low medium high"`
}
