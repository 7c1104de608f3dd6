package ginserver

import (
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/access"
	authsvc "leasehub/internal/app/services/auth"
	domainauth "leasehub/internal/domain/auth"
	domainuser "leasehub/internal/domain/user"
)

const (
	userContextKey  = "leasehub.user"
	tokenContextKey = "leasehub.token"
)

// AuthMiddleware resolves a bearer token into the caller's identity. Requests
// without a valid token continue anonymously; handlers reject them when the
// operation needs a caller.
type AuthMiddleware struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	id, user, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Warn("token resolution failed", "error", err)
		}
		c.Next()
		return
	}
	c.Request = c.Request.WithContext(access.ContextWithIdentity(c.Request.Context(), id))
	c.Set(userContextKey, user)
	c.Set(tokenContextKey, token)
	c.Next()
}

// identity returns the caller or the zero identity for anonymous requests.
func identity(c *gin.Context) access.Identity {
	id, _ := access.IdentityFromContext(c.Request.Context())
	return id
}

func currentUser(c *gin.Context) (*domainuser.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := val.(*domainuser.User)
	return u, ok && u != nil
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
