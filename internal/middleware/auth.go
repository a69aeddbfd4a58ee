package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/auth"
	"poetica/internal/db"
	"poetica/internal/models"
)

const (
	CurrentUserKey = "user"
	SessionUserKey = "user_id"
)

// TokenValidator checks bearer tokens issued at login.
type TokenValidator interface {
	ValidateAccessToken(token string) (auth.AccessToken, error)
}

// LoadUser resolves the caller from the session cookie, or from an
// Authorization: Bearer token when there is no session. The user is
// always re-read so a deleted account or changed role takes effect at once,
// and a bearer token issued before the last password change is ignored.
func LoadUser(users db.UserStore, tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := sessionUserID(c)
		var issuedAt *time.Time
		if userID == "" && tokens != nil {
			if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
				if token, err := tokens.ValidateAccessToken(raw); err == nil {
					userID = token.UserID
					issuedAt = &token.IssuedAt
				}
			}
		}

		if userID != "" {
			user, err := users.GetUserByID(c.Request.Context(), userID)
			switch {
			case err != nil:
				RequestLogger(c).Error("Failed to load current user", zap.Error(err))
			case user == nil:
			case issuedAt != nil && tokenRevoked(user, *issuedAt):
				RequestLogger(c).Info("Bearer token predates password change", zap.String("user_id", user.ID))
			default:
				c.Set(CurrentUserKey, user)
			}
		}
		c.Next()
	}
}

// tokenRevoked compares at second precision, the resolution of the iat claim.
func tokenRevoked(user *models.User, issuedAt time.Time) bool {
	if user.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(user.PasswordChangedAt.Truncate(time.Second))
}

func sessionUserID(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	id, _ := sessions.Default(c).Get(SessionUserKey).(string)
	return id
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// AuthRequired ensures a user is signed in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			Abort(c, apperr.Unauthorized("Authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole lets through only signed-in users holding role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Abort(c, apperr.Unauthorized("Authentication required"))
			return
		}
		if user.Role != role {
			msg := "Insufficient permissions"
			if role == models.RoleAdmin {
				msg = "Admin access required"
			}
			Abort(c, apperr.Forbidden(msg))
			return
		}
		c.Next()
	}
}

// Abort ends the request with the JSON error body. Unexpected errors are
// logged with their cause and reach the client as a bare 500.
func Abort(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		RequestLogger(c).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(appErr.Status, appErr.Body())
}
