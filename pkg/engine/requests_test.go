package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/models"
)

func TestApprovedLeaveOverridesAttendance(t *testing.T) {
	e, clk := newTestEngine(t)
	clk.Set(at(9, 0))
	_, err := e.Attendance.ClockIn("u-ana", "")
	require.NoError(t, err)

	req, err := e.Requests.SubmitLeave("u-ana", "2026-03-10", "2026-03-12", "family")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)

	st, _ := e.Attendance.Status("u-ana")
	assert.Equal(t, StatusPresent, st.Status, "pending leave does not count")

	reviewed, err := e.Requests.Review(req.ID, true, "u-boss")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)

	st, _ = e.Attendance.Status("u-ana")
	assert.Equal(t, StatusOnLeave, st.Status)

	_, err = e.Requests.Review(req.ID, false, "u-boss")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmitLeaveValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	var verr *ValidationError

	_, err := e.Requests.SubmitLeave("u-ana", "2026-03-12", "2026-03-10", "")
	assert.ErrorAs(t, err, &verr)
	_, err = e.Requests.SubmitLeave("", "2026-03-10", "2026-03-10", "")
	assert.ErrorAs(t, err, &verr)
	_, err = e.Requests.SubmitLeave("u-ana", "tomorrow", "2026-03-10", "")
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, e.Requests.Pending())
}

func TestProfileEditAppliesOnApproval(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Requests.SubmitProfileEdit("u-ben", map[string]interface{}{"permission": "admin"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	req, err := e.Requests.SubmitProfileEdit("u-ben", map[string]interface{}{"shiftStart": "12:30", "name": "Benjamin"})
	require.NoError(t, err)
	require.Len(t, e.Requests.Pending(), 1)

	_, err = e.Requests.Review(req.ID, true, "u-boss")
	require.NoError(t, err)

	u, ok := e.User("u-ben")
	require.True(t, ok)
	assert.Equal(t, "Benjamin", u.Name)
	assert.Equal(t, "12:30", *u.ShiftStart)
	assert.Len(t, e.Requests.ForEmployee("u-ben"), 1)
}
