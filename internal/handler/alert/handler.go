package alert

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glucolog/glucolog-api/internal/handler"
	"github.com/glucolog/glucolog-api/internal/model"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/pkg/httputil"
)

type Handler struct {
	syncSvc *syncservice.Service
}

func NewHandler(syncSvc *syncservice.Service) *Handler {
	return &Handler{syncSvc: syncSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.List)
		alerts.POST("", h.Create)
		alerts.DELETE("/:id", h.Dismiss)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	result := h.syncSvc.ReadUnified()
	alerts := make([]model.Alert, 0, len(result.Data.Alerts))
	for _, a := range result.Data.Alerts {
		if a.UserID == userID {
			alerts = append(alerts, a)
		}
	}
	c.Header("X-Data-Source", string(result.Source))
	httputil.RespondWithSuccess(c, alerts)
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	alert := &model.Alert{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Severity:    model.AlertSeverity(req.Severity),
	}
	if err := h.syncSvc.SaveAlert(alert); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, alert)
}

// Dismiss deletes the alert; there is no read/unread state to flip.
func (h *Handler) Dismiss(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid alert ID"))
		return
	}

	if err := h.syncSvc.DismissAlert(userID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"dismissed": id})
}
