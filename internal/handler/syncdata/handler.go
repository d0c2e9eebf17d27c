// Package syncdata exposes the sync surface: snapshot export, remote push,
// legacy migration, backup and the full wipe.
package syncdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glucolog/glucolog-api/internal/handler"
	syncservice "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/pkg/errors"
	"github.com/glucolog/glucolog-api/pkg/httputil"
)

type Handler struct {
	svc *syncservice.Service
}

func NewHandler(svc *syncservice.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sync := r.Group("/sync")
	{
		sync.GET("/export", h.Export)
		sync.POST("/push", h.Push)
		sync.GET("/status", h.Status)
		sync.POST("/migrate", h.Migrate)
		sync.POST("/backup", h.Backup)
		sync.DELETE("/everything", h.DeleteEverything)
	}
}

// Export streams the snapshot as a downloadable JSON attachment, the same
// document for FREE and PRO accounts; only the source differs.
func (h *Handler) Export(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	snap := h.svc.ExportSnapshot(c.Request.Context(), userID, handler.IsPro(c))

	blob, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}

	filename := fmt.Sprintf("glucolog-export-%s.json", snap.ExportedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", blob)
}

// Push sends the local data set to the remote store. PRO only.
func (h *Handler) Push(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	if !handler.IsPro(c) {
		httputil.RespondWithError(c, errors.PlanRequired("remote sync"))
		return
	}

	result := h.svc.ReadUnified()
	if err := h.svc.SyncToRemote(c.Request.Context(), userID, &result.Data); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"syncedAt": h.svc.LastSyncedAt(userID),
		"source":   result.Source,
	})
}

func (h *Handler) Status(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var lastSynced *time.Time
	if t := h.svc.LastSyncedAt(userID); !t.IsZero() {
		lastSynced = &t
	}

	result := h.svc.ReadUnified()
	httputil.RespondWithSuccess(c, gin.H{
		"lastSyncedAt": lastSynced,
		"source":       result.Source,
		"reason":       result.Reason,
		"records":      len(result.Data.Records),
		"alerts":       len(result.Data.Alerts),
	})
}

// Migrate folds a legacy-only data set into the primary key.
func (h *Handler) Migrate(c *gin.Context) {
	migrated, err := h.svc.MigrateLegacy()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"migrated": migrated})
}

// Backup writes the per-user backup copy of the current data set.
func (h *Handler) Backup(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	result := h.svc.ReadUnified()
	if err := h.svc.WriteBackup(userID, &result.Data); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"backedUp": true})
}

// DeleteEverything wipes the user's remote data (PRO) and every local key
// scoped to their identifier.
func (h *Handler) DeleteEverything(c *gin.Context) {
	userID, ok := handler.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	if err := h.svc.DeleteEverything(c.Request.Context(), userID, handler.IsPro(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
