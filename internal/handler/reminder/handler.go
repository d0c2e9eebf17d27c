package reminder

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/handler"
	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/service/record"
	"github.com/glucolog/glucolog-api/internal/service/reminder"
	"github.com/glucolog/glucolog-api/pkg/httputil"
)

type Handler struct {
	svc       *reminder.Service
	recordSvc *record.Service
}

func NewHandler(svc *reminder.Service, recordSvc *record.Service) *Handler {
	return &Handler{svc: svc, recordSvc: recordSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.GET("", h.List)
		reminders.GET("/due", h.ListDue)
		reminders.POST("/:id/resolve", h.Resolve)
		reminders.POST("/:id/skip", h.Skip)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	httputil.RespondWithSuccess(c, h.svc.ListForUser(userID))
}

func (h *Handler) ListDue(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	httputil.RespondWithSuccess(c, h.svc.ListDueForUser(userID))
}

// Resolve captures the post-meal value on the source reading and removes the
// reminder in one action.
func (h *Handler) Resolve(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid reminder ID"))
		return
	}

	var req model.ResolveReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.recordSvc.ResolveReminder(userID, id, req.PostMealGlucose); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"resolved": id})
}

func (h *Handler) Skip(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid reminder ID"))
		return
	}

	if err := h.svc.Skip(userID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"skipped": id})
}
