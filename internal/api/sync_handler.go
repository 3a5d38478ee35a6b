package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"video_importer/internal/domain"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type SyncHandler struct {
	syncer Syncer
	runs   RunHistory
	logger *slog.Logger
}

func NewSyncHandler(syncer Syncer, runs RunHistory, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		runs:   runs,
		logger: logger.With("handler", "sync"),
	}
}

// Trigger handles POST /v1/sync. The run executes within the request and its
// summary is returned. A client disconnect does not cancel the run; it is
// bounded by the run timeout only.
func (h *SyncHandler) Trigger(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	summary, err := h.syncer.Sync(ctx, domain.TriggerManual)
	if err == nil {
		c.JSON(http.StatusOK, summary)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConfigurationMissing):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrListing):
		status = http.StatusBadGateway
	}

	h.logger.Warn("manual sync did not complete", "status", status, "error", err)

	body := gin.H{"error": err.Error()}
	if summary != nil {
		body["run"] = summary
	}
	c.JSON(status, body)
}

// ListRuns handles GET /v1/runs?limit=N.
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
