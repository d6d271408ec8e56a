package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/catalog"
)

// SessionResponse describes the app's sign-in state.
type SessionResponse struct {
	State       string           `json:"state"`
	IdentityKey string           `json:"identity_key"`
	Profile     *catalog.Profile `json:"profile,omitempty"`
}

// SignInRequest carries the access token issued by the identity provider.
type SignInRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// SessionController exposes the local sign-in state. Tokenless API requests
// act as the session's identity.
type SessionController struct {
	session  *auth.Session
	secret   string
	profiles auth.ProfileFetcher
	logger   *zap.Logger
}

func NewSessionController(session *auth.Session, secret string, profiles auth.ProfileFetcher, logger *zap.Logger) *SessionController {
	return &SessionController{session: session, secret: secret, profiles: profiles, logger: logger}
}

func sessionResponse(state auth.State) SessionResponse {
	resp := SessionResponse{State: state.Name(), IdentityKey: state.Identity().Key()}
	if a, ok := state.(auth.Authenticated); ok {
		profile := a.Profile
		resp.Profile = &profile
	}
	return resp
}

// Get handles GET /api/session
func (h *SessionController) Get(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(h.session.State()))
}

// SignIn handles POST /api/session
func (h *SessionController) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "access_token is required")
		return
	}

	state, err := h.session.Restore(c.Request.Context(), req.AccessToken, h.secret, h.profiles)
	if err != nil {
		h.logger.Debug("Sign-in rejected", zap.Error(err))
		respondError(c, http.StatusUnauthorized, "invalid access token", "unauthorized")
		return
	}
	h.logger.Info("Signed in", zap.String("user_id", state.Identity().Key()))
	c.JSON(http.StatusOK, sessionResponse(state))
}

// SignOut handles DELETE /api/session
func (h *SessionController) SignOut(c *gin.Context) {
	h.session.SignedOut()
	c.JSON(http.StatusOK, sessionResponse(h.session.State()))
}
