package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GCRun is the outcome of one orphan collection.
type GCRun struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Removed   int       `json:"removed"`
	Error     string    `json:"error,omitempty"`
}

// GCStatusResponse describes the orphan collection schedule.
type GCStatusResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *GCRun     `json:"last_run,omitempty"`
}

type AdminController struct {
	store     LocalStore
	collector OrphanCollector
	logger    *zap.Logger
}

func NewAdminController(store LocalStore, collector OrphanCollector, logger *zap.Logger) *AdminController {
	return &AdminController{store: store, collector: collector, logger: logger}
}

// Reset drops and recreates every local table. Requires confirm=true.
// POST /api/admin/reset?confirm=true
func (ac *AdminController) Reset(c *gin.Context) {
	if !parseBoolQuery(c, "confirm") {
		respondBadRequest(c, "reset deletes all local data; repeat with confirm=true")
		return
	}

	if err := ac.store.Reset(c.Request.Context()); err != nil {
		respondErr(c, ac.logger, err, "reset local store")
		return
	}
	ac.logger.Warn("Local store reset on request")
	respondSuccess(c, "Local store reset")
}

// CollectOrphans starts orphan file collection in the background.
// POST /api/admin/gc
func (ac *AdminController) CollectOrphans(c *gin.Context) {
	if ac.collector == nil {
		respondError(c, http.StatusServiceUnavailable, "orphan collection is not configured", "unsupported")
		return
	}
	ac.collector.RunNow()
	respondAccepted(c, "orphan collection started", nil)
}

// GCStatus reports whether collection is scheduled and how the last run went.
// GET /api/admin/gc
func (ac *AdminController) GCStatus(c *gin.Context) {
	if ac.collector == nil {
		respondError(c, http.StatusServiceUnavailable, "orphan collection is not configured", "unsupported")
		return
	}

	resp := GCStatusResponse{
		Scheduled: ac.collector.IsRunning(),
		NextRun:   ac.collector.GetNextRunTime(),
	}
	if last := ac.collector.LastRun(); last != nil {
		resp.LastRun = &GCRun{
			StartedAt: last.StartedAt,
			Duration:  last.Duration.String(),
			Removed:   last.Removed,
		}
		if last.Err != nil {
			resp.LastRun.Error = last.Err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}
