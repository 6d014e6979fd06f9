package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sweetbox/pkg/database"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
	"sweetbox/pkg/services"
	"sweetbox/pkg/utils"
)

// SessionUserKey is the session field holding the signed-in user id.
const SessionUserKey = "userId"

// bearerToken reads the token cookie, then the Authorization header.
func bearerToken(c *gin.Context) string {
	if cookieToken, err := c.Cookie("token"); err == nil && cookieToken != "" {
		return cookieToken
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func sessionUserID(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	if id, ok := sessions.Default(c).Get(SessionUserKey).(string); ok {
		return id
	}
	return ""
}

// AuthenticateToken resolves the caller from a JWT (cookie or bearer) or,
// failing that, the signed session cookie, and loads them from the roster.
func AuthenticateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}
		c.Next()
	}
}

// authenticate stores the caller on the context, or answers and aborts.
func authenticate(c *gin.Context) bool {
	userID := ""
	if token := bearerToken(c); token != "" {
		claims, err := utils.VerifyToken(token)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Token expired."})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token."})
			}
			c.Abort()
			return false
		}
		if services.IsTokenBlacklisted(c.Request.Context(), claims.RegisteredClaims.ID) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Token revoked."})
			c.Abort()
			return false
		}
		userID = claims.ID
	} else {
		userID = sessionUserID(c)
	}

	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Access denied. No token provided."})
		c.Abort()
		return false
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token. User not found."})
		c.Abort()
		return false
	}

	if user.Archived || user.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is inactive."})
		c.Abort()
		return false
	}

	c.Set("user", user)
	return true
}

// CurrentUser returns the user AuthenticateToken stored on the context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// AuthorizePermissions lets through callers holding any of permissions.
func AuthorizePermissions(permissions ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
			c.Abort()
			return
		}

		for _, p := range permissions {
			if user.Permission == p {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied. Insufficient permissions."})
		c.Abort()
	}
}

// RestrictToAdmin authenticates and requires the admin permission.
func RestrictToAdmin() gin.HandlerFunc {
	requireAdmin := AuthorizePermissions(models.PermissionAdmin)
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}
		requireAdmin(c)
	}
}
