package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/middleware"
	"sweetbox/pkg/models"
	"sweetbox/pkg/services"
	"sweetbox/pkg/utils"
)

func cookieSecure() bool {
	return config.AppConfig != nil && (config.AppConfig.CookieSecure || config.IsProduction())
}

func session(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

// SignIn exchanges a roster id and PIN for a JWT, also set as a cookie and
// recorded in the session.
func SignIn(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
		PIN    string `json:"pin" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User and PIN are required"})
		return
	}

	var user models.User
	if err := database.DB.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerErrorResponse(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if user.PinHash == nil || utils.ComparePIN(*user.PinHash, req.PIN) != nil {
		logger.Log.Warn("failed sign-in", zap.String("user_id", req.UserID), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if user.Archived || user.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is inactive."})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, user.Permission)
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	c.SetCookie(
		"token",
		token,
		int(config.AppConfig.TokenTTL().Seconds()),
		"/",
		"",
		cookieSecure(),
		true,
	)

	if s := session(c); s != nil {
		s.Set(middleware.SessionUserKey, user.ID)
		if err := s.Save(); err != nil {
			logger.Log.Warn("failed to save session", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"token":   token,
		"user":    user,
	})
}

// SignOut clears the cookie and session and revokes the presented token.
func SignOut(c *gin.Context) {
	token := ""
	if cookieToken, err := c.Cookie("token"); err == nil {
		token = cookieToken
	}
	if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		token = parts[1]
	}
	if token != "" {
		if claims, err := utils.VerifyToken(token); err == nil && claims.ExpiresAt != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if err := services.BlacklistToken(c.Request.Context(), claims.RegisteredClaims.ID, ttl); err != nil {
				logger.Log.Warn("failed to revoke token", zap.Error(err))
			}
		}
	}

	c.SetCookie(
		"token",
		"",
		-1,
		"/",
		"",
		cookieSecure(),
		true,
	)

	if s := session(c); s != nil {
		s.Clear()
		_ = s.Save()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// CheckAuth returns the authenticated roster entry.
func CheckAuth(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
