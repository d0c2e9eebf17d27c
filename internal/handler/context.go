package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/model"
)

const (
	ContextUserIDKey = "userID"
	ContextPlanKey   = "userPlan"
)

// UserID returns the authenticated user's ID from the request context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

// IsPro reports whether the authenticated user is on the PRO plan.
func IsPro(c *gin.Context) bool {
	raw, exists := c.Get(ContextPlanKey)
	if !exists {
		return false
	}
	plan, ok := raw.(model.Plan)
	return ok && plan == model.PlanPro
}
