package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/bookmarks"
	"github.com/khaleelElias/YA/internal/entities"
)

func setupBookmarksRouter(t *testing.T) *gin.Engine {
	t.Helper()
	bc := NewBookmarksController(bookmarks.NewService(setupTestStore(t), zap.NewNop()), zap.NewNop())
	router := gin.New()
	router.Use(auth.NewMiddleware(testSecret, zap.NewNop()).Handler())
	router.GET("/api/bookmarks/:bookId", bc.List)
	router.POST("/api/bookmarks/:bookId", bc.Create)
	router.DELETE("/api/bookmarks/item/:id", bc.Delete)
	return router
}

func listBookmarks(t *testing.T, router *gin.Engine, headers ...string) []entities.Bookmark {
	t.Helper()
	w := doRequest(router, http.MethodGet, "/api/bookmarks/b1", nil, headers...)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []entities.Bookmark `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestBookmarksController_CreateListDelete(t *testing.T) {
	router := setupBookmarksRouter(t)
	user := bearer(t, "u1")

	w := doRequest(router, http.MethodPost, "/api/bookmarks/b1",
		bookmarks.Input{CFI: "epubcfi(/6/4!/4/2)", Note: "opening verse"}, "Authorization", user)
	require.Equal(t, http.StatusCreated, w.Code)
	var created entities.Bookmark
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.UserID)
	assert.Equal(t, "u1", *created.UserID)

	assert.Len(t, listBookmarks(t, router, "Authorization", user), 1)
	assert.Empty(t, listBookmarks(t, router), "anonymous identity has its own bookmarks")

	// Another identity cannot delete it.
	w = doRequest(router, http.MethodDelete, "/api/bookmarks/item/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/bookmarks/item/"+created.ID, nil, "Authorization", user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listBookmarks(t, router, "Authorization", user))
}

func TestBookmarksController_Validation(t *testing.T) {
	router := setupBookmarksRouter(t)

	w := doRequest(router, http.MethodPost, "/api/bookmarks/b1", bookmarks.Input{Note: "no anchor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, w).Code)

	w = doRequest(router, http.MethodPost, "/api/bookmarks/b1", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
