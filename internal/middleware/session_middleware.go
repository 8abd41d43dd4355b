package middleware

import (
	"context"
	"errors"
	"strings"

	"signupvault/internal/model"
	"signupvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookieName = "session"

	contextUserIDKey = "userID"
	contextIsAdmin   = "isAdmin"
)

type SessionVerifier interface {
	Verify(token string) (*services.SessionClaims, error)
}

type UserLookup interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

type SessionMiddleware struct {
	sessions SessionVerifier
	users    UserLookup
}

func NewSessionMiddleware(sessions SessionVerifier, users UserLookup) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		users:    users,
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")

		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}

		return ""
	}

	cookie, err := c.Cookie(SessionCookieName)

	if err != nil {
		return ""
	}

	return cookie
}

// Required rejects requests without a valid session and stores the caller in the
// gin context for Actor. The account is reloaded on every request so deactivation
// and role changes apply to sessions that were already issued.
func (m *SessionMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)

		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := m.sessions.Verify(token)

		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := m.users.Get(c.Request.Context(), claims.Subject)

		if err != nil && !errors.Is(err, services.ErrNotFound) {
			log.Error().Err(err).Msg("failed to load session user")
			c.AbortWithStatusJSON(500, gin.H{"error": "Internal server error"})
			return
		}

		if user == nil || !user.IsActive {
			c.AbortWithStatusJSON(401, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(contextUserIDKey, user.ID)
		c.Set(contextIsAdmin, user.IsAdmin())
		c.Next()
	}
}

// AdminRequired must run after Required.
func (m *SessionMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(contextIsAdmin) {
			c.AbortWithStatusJSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}

func Actor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:  c.GetString(contextUserIDKey),
		IsAdmin: c.GetBool(contextIsAdmin),
	}
}
