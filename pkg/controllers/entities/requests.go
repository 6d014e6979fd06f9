package entities

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/models"
)

func validRequest(c *gin.Context, req *models.LeaveRequest) bool {
	if req.EmployeeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Employee is required"})
		return false
	}
	if req.RequestType == "" {
		req.RequestType = models.RequestTypeLeave
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	switch req.Status {
	case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown request status " + string(req.Status)})
		return false
	}
	switch req.RequestType {
	case models.RequestTypeLeave:
		if req.StartDate == nil || req.EndDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Leave requests need a start and end date"})
			return false
		}
		if *req.EndDate < *req.StartDate {
			c.JSON(http.StatusBadRequest, gin.H{"message": "End date must not be before start date"})
			return false
		}
	case models.RequestTypeProfileEdit:
		if len(req.RequestedChanges) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Profile edit requests need requested changes"})
			return false
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown request type " + string(req.RequestType)})
		return false
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	return true
}

func saveRequest(c *gin.Context, req models.LeaveRequest, status int, message string) {
	if !validRequest(c, &req) {
		return
	}
	if !saveRecord(c, &req, nil) {
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(status, gin.H{"message": message, "request": req})
}

// CreateRequest submits a leave or profile edit request.
func CreateRequest(c *gin.Context) {
	var req models.LeaveRequest
	if !bindBody(c, &req) {
		return
	}
	if req.ID == "" {
		req.ID = newID("req")
	}
	saveRequest(c, req, http.StatusCreated, "Request submitted")
}

// PutRequest upserts a request, typically to record its review.
func PutRequest(c *gin.Context) {
	var req models.LeaveRequest
	if !bindBody(c, &req) {
		return
	}
	req.ID = c.Param("id")
	saveRequest(c, req, http.StatusOK, "Request saved")
}

// DeleteRequest removes a request.
func DeleteRequest(c *gin.Context) {
	deleteRecord(c, &models.LeaveRequest{}, "Request", nil)
}
