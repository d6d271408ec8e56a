package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/progress"
)

// PositionRequest is a reader position event.
type PositionRequest struct {
	CFI      string             `json:"cfi"`
	Fallback progress.Fallback  `json:"fallback"`
	Page     *progress.PageInfo `json:"page"`
}

// LocationsRequest carries the breakpoints generated for a book.
type LocationsRequest struct {
	Locations []string `json:"locations" binding:"required"`
}

type ProgressController struct {
	tracker   PositionTracker
	locations LocationStore
	logger    *zap.Logger
}

func NewProgressController(tracker PositionTracker, locations LocationStore, logger *zap.Logger) *ProgressController {
	return &ProgressController{tracker: tracker, locations: locations, logger: logger}
}

// GetPosition returns the last position, or null when the book was never
// opened by this identity.
// GET /api/progress/:bookId
func (pc *ProgressController) GetPosition(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}

	pos, err := pc.tracker.GetLastPosition(c.Request.Context(), bookID, auth.GetIdentity(c))
	if err != nil {
		respondErr(c, pc.logger, err, "get position")
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": pos})
}

// RecordPosition records a position event. Persistence is debounced.
// PUT /api/progress/:bookId
func (pc *ProgressController) RecordPosition(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}

	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	pc.tracker.RecordPosition(bookID, auth.GetIdentity(c), req.CFI, req.Fallback, req.Page)
	c.Status(http.StatusAccepted)
}

// Flush writes the latest position now and closes the reading session. A
// failed write is logged and reported but never an HTTP error, since it must
// not block leaving the reader.
// POST /api/progress/:bookId/flush
func (pc *ProgressController) Flush(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}

	if err := pc.tracker.Flush(c.Request.Context(), bookID, auth.GetIdentity(c)); err != nil {
		c.JSON(http.StatusOK, gin.H{"flushed": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flushed": true})
}

// SetLocations stores the location breakpoints used to compute percent.
// POST /api/progress/:bookId/locations
func (pc *ProgressController) SetLocations(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}
	if pc.locations == nil {
		respondError(c, http.StatusServiceUnavailable, "locations are not supported", "unsupported")
		return
	}

	var req LocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := pc.locations.SetLocations(bookID, req.Locations); err != nil {
		respondErr(c, pc.logger, err, "set locations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(req.Locations)})
}
