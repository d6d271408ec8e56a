package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/catalog"
)

// notFoundCode is the backend code for a single-row fetch with no row.
const notFoundCode = "PGRST116"

type CatalogController struct {
	catalog catalog.Catalog
	logger  *zap.Logger
}

func NewCatalogController(c catalog.Catalog, logger *zap.Logger) *CatalogController {
	return &CatalogController{catalog: c, logger: logger}
}

// ListBooks returns one page of published books. A catalog failure is still
// a 200: the page is empty and carries the error, so the client can offer a
// retry.
// GET /api/catalog/books?language=&category=&search=&tags=a,b&page=&pageSize=&sortBy=&sortOrder=
func (cc *CatalogController) ListBooks(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query: "+err.Error())
		return
	}
	q.Tags = splitTags(q.Tags)

	page := cc.catalog.FetchPublishedBooks(c.Request.Context(), q)
	if page.Error != nil {
		cc.logger.Warn("Catalog query failed", zap.String("message", page.Error.Message))
	}
	c.JSON(http.StatusOK, page)
}

// GetBook returns a single published book.
// GET /api/catalog/books/:id
func (cc *CatalogController) GetBook(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	res := cc.catalog.FetchBookByID(c.Request.Context(), id)
	if res.Error != nil {
		if res.Error.Code == notFoundCode {
			respondNotFound(c, "book")
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: res.Error.Message, Code: "query_failed", Details: res.Error.Details})
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

// GetTranslations returns the books sharing a translation group.
// GET /api/catalog/translations/:groupId
func (cc *CatalogController) GetTranslations(c *gin.Context) {
	groupID, ok := requireParam(c, "groupId")
	if !ok {
		return
	}

	res := cc.catalog.FetchBookTranslations(c.Request.Context(), groupID)
	if res.Error != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: res.Error.Message, Code: "query_failed", Details: res.Error.Details})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Data})
}

// Categories returns the published book count per category.
// GET /api/catalog/categories
func (cc *CatalogController) Categories(c *gin.Context) {
	res := cc.catalog.FetchCategories(c.Request.Context())
	if res.Error != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: res.Error.Message, Code: "query_failed", Details: res.Error.Details})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Data})
}

// splitTags accepts both repeated and comma separated tag parameters.
func splitTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
