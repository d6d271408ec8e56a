package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextKeyIdentity = "auth_identity"

// Middleware derives the request identity from an optional bearer token.
// Requests without a token take the identity of the attached Session, or
// are anonymous when there is none. A malformed or unverifiable token is
// rejected rather than silently downgraded.
type Middleware struct {
	secret  string
	session *Session
	logger  *zap.Logger
}

// NewMiddleware creates a new identity middleware.
func NewMiddleware(secret string, logger *zap.Logger) *Middleware {
	return &Middleware{secret: secret, logger: logger.Named("auth")}
}

// WithSession makes tokenless requests act as the session's identity.
func (m *Middleware) WithSession(s *Session) *Middleware {
	m.session = s
	return m
}

// Handler returns a Gin middleware handler that sets the request identity.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			identity := AnonymousIdentity
			if m.session != nil {
				identity = m.session.Identity()
			}
			c.Set(ContextKeyIdentity, identity)
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "malformed authorization header",
				"code":  "unauthorized",
			})
			return
		}

		sub, err := SubjectFromToken(parts[1], m.secret)
		if err != nil {
			m.logger.Debug("Rejected access token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid access token",
				"code":  "unauthorized",
			})
			return
		}

		c.Set(ContextKeyIdentity, User(sub))
		c.Next()
	}
}

// GetIdentity retrieves the request identity. Requests that bypassed the
// middleware are anonymous.
func GetIdentity(c *gin.Context) Identity {
	if v, exists := c.Get(ContextKeyIdentity); exists {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return AnonymousIdentity
}
