package entities

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/middleware"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

type userBody struct {
	models.User
	PIN string `json:"pin"`
}

// PutUser upserts a roster entry. The stored PIN hash is kept unless a new
// PIN is supplied.
func PutUser(c *gin.Context) {
	var body userBody
	if !bindBody(c, &body) {
		return
	}
	user := body.User
	user.ID = c.Param("id")
	user.Name = strings.TrimSpace(user.Name)
	user.PinHash = nil

	if user.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name is required"})
		return
	}
	if user.Permission == "" {
		user.Permission = models.PermissionFrontStaff
	}
	if !user.Permission.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown permission " + string(user.Permission)})
		return
	}
	if user.IsAdmin() {
		user.ShiftStart = nil
	} else if user.ShiftStart != nil && *user.ShiftStart != "" {
		if _, _, ok := engine.ParseShiftStart(*user.ShiftStart); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Shift start must be HH:MM"})
			return
		}
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	omit := []string{"pin_hash"}
	if body.PIN != "" {
		if err := utils.ValidatePIN(body.PIN); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		hash, err := utils.HashPIN(body.PIN)
		if err != nil {
			utils.InternalServerErrorResponse(c, err)
			return
		}
		user.PinHash = &hash
		omit = nil
	}

	if !saveRecord(c, &user, nil, omit...) {
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "User saved", "user": user})
}

// DeleteUser removes a roster entry. Admins cannot remove themselves.
func DeleteUser(c *gin.Context) {
	if me, ok := middleware.CurrentUser(c); ok && me.ID == c.Param("id") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You cannot delete your own account"})
		return
	}
	deleteRecord(c, &models.User{}, "User", nil)
}
