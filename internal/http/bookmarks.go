package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/bookmarks"
)

type BookmarksController struct {
	store  BookmarkStore
	logger *zap.Logger
}

func NewBookmarksController(store BookmarkStore, logger *zap.Logger) *BookmarksController {
	return &BookmarksController{store: store, logger: logger}
}

// List returns the caller's bookmarks in a book.
// GET /api/bookmarks/:bookId
func (bc *BookmarksController) List(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}

	marks, err := bc.store.List(c.Request.Context(), bookID, auth.GetIdentity(c))
	if err != nil {
		respondErr(c, bc.logger, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": marks})
}

// Create adds a bookmark.
// POST /api/bookmarks/:bookId
func (bc *BookmarksController) Create(c *gin.Context) {
	bookID, ok := requireParam(c, "bookId")
	if !ok {
		return
	}

	var in bookmarks.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	b, err := bc.store.Create(c.Request.Context(), bookID, auth.GetIdentity(c), in)
	if err != nil {
		respondErr(c, bc.logger, err, "create bookmark")
		return
	}
	respondCreated(c, b)
}

// Delete removes one of the caller's bookmarks.
// DELETE /api/bookmarks/item/:id
func (bc *BookmarksController) Delete(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(c.Request.Context(), id, auth.GetIdentity(c)); err != nil {
		respondErr(c, bc.logger, err, "delete bookmark")
		return
	}
	respondSuccess(c, "Bookmark deleted")
}
