package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

// DownloadRequest names the book to download: either the full catalog
// record, or just its id to be fetched from the catalog first.
type DownloadRequest struct {
	Book   *entities.Book `json:"book"`
	BookID string         `json:"book_id"`
}

// DownloadResponse is returned by a finished download.
type DownloadResponse struct {
	BookID    string `json:"book_id"`
	LocalPath string `json:"local_path"`
}

// DownloadStatusResponse describes one book's local state.
type DownloadStatusResponse struct {
	BookID     string                       `json:"book_id"`
	Downloaded bool                         `json:"downloaded"`
	Record     *entities.LocalBook          `json:"record,omitempty"`
	Queue      *entities.DownloadQueueEntry `json:"queue,omitempty"`
}

type DownloadsController struct {
	downloader BookDownloader
	enqueuer   DownloadEnqueuer
	catalog    catalog.Catalog
	logger     *zap.Logger
}

// NewDownloadsController creates the controller. enqueuer and catalog may be
// nil; async downloads and downloads by id are then rejected.
func NewDownloadsController(downloader BookDownloader, enqueuer DownloadEnqueuer, c catalog.Catalog, logger *zap.Logger) *DownloadsController {
	return &DownloadsController{downloader: downloader, enqueuer: enqueuer, catalog: c, logger: logger}
}

// ListDownloaded returns the metadata snapshot of every downloaded book.
// GET /api/downloads
func (dc *DownloadsController) ListDownloaded(c *gin.Context) {
	books, err := dc.downloader.GetDownloadedBooks(c.Request.Context())
	if err != nil {
		respondErr(c, dc.logger, err, "list downloaded books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": books, "total": len(books)})
}

// ListQueue returns download queue rows, optionally filtered by status.
// GET /api/downloads/queue?status=
func (dc *DownloadsController) ListQueue(c *gin.Context) {
	entries, err := dc.downloader.Queue(c.Request.Context(), entities.DownloadStatus(c.Query("status")))
	if err != nil {
		respondErr(c, dc.logger, err, "list download queue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// Download fetches a book synchronously, or enqueues it with ?async=true.
// POST /api/downloads
func (dc *DownloadsController) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, ok := dc.resolveBook(c, req)
	if !ok {
		return
	}
	identity := auth.GetIdentity(c)
	ctx := c.Request.Context()

	if parseBoolQuery(c, "async") {
		if dc.enqueuer == nil {
			respondError(c, http.StatusServiceUnavailable, "background downloads are disabled", "tasks_disabled")
			return
		}
		taskID, err := dc.enqueuer.Enqueue(ctx, book, identity)
		if err != nil {
			respondErr(c, dc.logger, err, "enqueue download")
			return
		}
		respondAccepted(c, "download queued", gin.H{"book_id": book.ID, "task_id": taskID})
		return
	}

	path, err := dc.downloader.DownloadBook(ctx, book, identity)
	if err != nil {
		respondErr(c, dc.logger, err, "download book")
		return
	}
	respondCreated(c, DownloadResponse{BookID: book.ID, LocalPath: path})
}

func (dc *DownloadsController) resolveBook(c *gin.Context, req DownloadRequest) (*entities.Book, bool) {
	if req.Book != nil {
		return req.Book, true
	}
	if req.BookID == "" {
		respondBadRequest(c, "book or book_id is required")
		return nil, false
	}
	if dc.catalog == nil {
		respondBadRequest(c, "catalog is not configured, send the full book")
		return nil, false
	}

	res := dc.catalog.FetchBookByID(c.Request.Context(), req.BookID)
	if res.Error != nil {
		if res.Error.Code == notFoundCode {
			respondNotFound(c, "book")
		} else {
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: res.Error.Message, Code: "query_failed", Details: res.Error.Details})
		}
		return nil, false
	}
	book := res.Data
	return &book, true
}

// GetStatus returns a book's local record and queue row.
// GET /api/downloads/:id
func (dc *DownloadsController) GetStatus(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	resp := DownloadStatusResponse{BookID: id}
	record, err := dc.downloader.Record(ctx, id)
	switch {
	case err == nil:
		resp.Record, resp.Downloaded = record, true
	case !errors.Is(err, errs.ErrNotFound):
		respondErr(c, dc.logger, err, "get local book")
		return
	}

	entry, err := dc.downloader.Status(ctx, id)
	switch {
	case err == nil:
		resp.Queue = entry
	case !errors.Is(err, errs.ErrNotFound):
		respondErr(c, dc.logger, err, "get download status")
		return
	}

	if resp.Record == nil && resp.Queue == nil {
		respondNotFound(c, "download")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Open stamps the book as opened and returns its content file.
// POST /api/downloads/:id/open
func (dc *DownloadsController) Open(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	path, err := dc.downloader.LocalPath(ctx, id)
	if err != nil {
		respondErr(c, dc.logger, err, "open book")
		return
	}
	if err := dc.downloader.Touch(ctx, id); err != nil {
		dc.logger.Warn("Failed to stamp book access", zap.String("book_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, DownloadResponse{BookID: id, LocalPath: path})
}

// Delete removes a downloaded book and its files.
// DELETE /api/downloads/:id
func (dc *DownloadsController) Delete(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	if err := dc.downloader.DeleteBook(c.Request.Context(), id); err != nil {
		respondErr(c, dc.logger, err, "delete book")
		return
	}
	respondSuccess(c, "Book deleted")
}
