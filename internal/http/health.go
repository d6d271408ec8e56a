package http

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthOptions lists what /health inspects. Zero fields are reported as
// not configured.
type HealthOptions struct {
	Store        LocalStore
	DataDir      string
	TasksEnabled bool
	Version      string
}

type HealthController struct {
	opts    HealthOptions
	started time.Time
}

func NewHealthController(opts HealthOptions) *HealthController {
	return &HealthController{opts: opts, started: time.Now()}
}

// Status reports the local store and the documents directory. Either one
// failing makes the response 503.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	healthy := true
	ctx := c.Request.Context()

	if store := h.opts.Store; store == nil {
		checks["database"] = "not configured"
	} else if err := store.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
		if v, err := store.Version(ctx); err == nil {
			checks["schema_version"] = strconv.Itoa(v)
		}
	}

	if h.opts.DataDir == "" {
		checks["data_dir"] = "not configured"
	} else {
		info, err := os.Stat(h.opts.DataDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			checks["data_dir"] = "not created"
		case err != nil:
			checks["data_dir"] = "error: " + err.Error()
			healthy = false
		case !info.IsDir():
			checks["data_dir"] = "error: not a directory"
			healthy = false
		default:
			checks["data_dir"] = "ok"
		}
	}

	checks["tasks"] = "disabled"
	if h.opts.TasksEnabled {
		checks["tasks"] = "enabled"
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: h.opts.Version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}
