package entities

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/config"
	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/database"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

const maxListLimit = 1000

func listLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

// ListAttendanceLogs returns logs newest first, filtered by employeeId and a from/to day range.
func ListAttendanceLogs(c *gin.Context) {
	from, to, ok := dayRange(c)
	if !ok {
		return
	}

	q := database.DB.Order("timestamp DESC").Limit(listLimit(c, config.StateLimits().AttendanceLogs))
	if emp := c.Query("employeeId"); emp != "" {
		q = q.Where("employee_id = ?", emp)
	}
	if from != nil {
		q = q.Where("timestamp >= ?", *from)
	}
	if to != nil {
		q = q.Where("timestamp < ?", *to)
	}

	var logs []models.AttendanceLog
	if err := q.Find(&logs).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func saveAttendanceLog(c *gin.Context, log models.AttendanceLog, status int, message string) {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if validationFailed(c, engine.ValidateLog(log)) {
		return
	}
	if !saveRecord(c, &log, nil) {
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(status, gin.H{"message": message, "log": log})
}

// CreateAttendanceLog records a clock action.
func CreateAttendanceLog(c *gin.Context) {
	var log models.AttendanceLog
	if !bindBody(c, &log) {
		return
	}
	if log.ID == "" {
		log.ID = newID("att")
	}
	saveAttendanceLog(c, log, http.StatusCreated, "Attendance recorded")
}

// PutAttendanceLog upserts a clock action.
func PutAttendanceLog(c *gin.Context) {
	var log models.AttendanceLog
	if !bindBody(c, &log) {
		return
	}
	log.ID = c.Param("id")
	saveAttendanceLog(c, log, http.StatusOK, "Attendance saved")
}

// DeleteAttendanceLog removes a clock action.
func DeleteAttendanceLog(c *gin.Context) {
	deleteRecord(c, &models.AttendanceLog{}, "Attendance log", nil)
}
