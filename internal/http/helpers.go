package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/errs"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (catalog error details, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

var kindStatus = map[string]int{
	"missing_file":        http.StatusUnprocessableEntity,
	"already_downloaded":  http.StatusConflict,
	"not_found":           http.StatusNotFound,
	"transfer_failed":     http.StatusBadGateway,
	"storage_unavailable": http.StatusServiceUnavailable,
	"query_failed":        http.StatusBadGateway,
	"invalid_argument":    http.StatusBadRequest,
}

// statusForError maps an error to its HTTP status via errs.Kind.
func statusForError(err error) int {
	if status, ok := kindStatus[errs.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondErr sends err with the status and code of its kind. Errors that do
// not wrap a known sentinel are logged and hidden behind a generic message.
func respondErr(c *gin.Context, logger *zap.Logger, err error, context string) {
	kind := errs.Kind(err)
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Internal error", zap.String("context", context), zap.Error(err))
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: kind})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: kind})
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_argument"})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// requireParam returns a non-empty URL parameter or responds with 400.
func requireParam(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		respondBadRequest(c, name+" is required")
		return "", false
	}
	return v, true
}

// parseIntQuery parses an optional integer query parameter with a default value.
func parseIntQuery(c *gin.Context, name string, defaultVal int) int {
	s := c.Query(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolQuery parses an optional boolean query parameter.
func parseBoolQuery(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
