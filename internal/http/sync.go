package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultSyncLimit = 50
	maxSyncLimit     = 500
)

// SyncController exposes local changes waiting for cloud sync. Nothing here
// consumes them.
type SyncController struct {
	progress UnsyncedProgressReader
	queue    SyncQueueReader
	logger   *zap.Logger
}

func NewSyncController(progress UnsyncedProgressReader, queue SyncQueueReader, logger *zap.Logger) *SyncController {
	return &SyncController{progress: progress, queue: queue, logger: logger}
}

// Pending lists unsynced progress rows and queued changes.
// GET /api/sync/pending?limit=
func (sc *SyncController) Pending(c *gin.Context) {
	limit := parseIntQuery(c, "limit", defaultSyncLimit)
	if limit <= 0 || limit > maxSyncLimit {
		limit = defaultSyncLimit
	}
	ctx := c.Request.Context()

	rows, err := sc.progress.ListUnsynced(ctx, limit)
	if err != nil {
		respondErr(c, sc.logger, err, "list unsynced progress")
		return
	}
	entries, err := sc.queue.Pending(ctx, limit)
	if err != nil {
		respondErr(c, sc.logger, err, "list sync queue")
		return
	}
	total, err := sc.queue.Count(ctx)
	if err != nil {
		respondErr(c, sc.logger, err, "count sync queue")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":    rows,
		"queue":       entries,
		"queue_total": total,
	})
}
