package engine

import (
	"sort"
	"strings"

	"sweetbox/pkg/models"
)

// profileFields are the user fields an employee may ask to change.
var profileFields = map[string]bool{"name": true, "email": true, "shiftStart": true}

// Requests handles leave and profile-edit requests.
type Requests struct {
	st *State
}

func (r *Requests) requester(employeeID string) error {
	if employeeID == "" {
		return invalid("employeeId", "no employee selected")
	}
	if indexOf(r.st.data.Users, employeeID, func(u models.User) string { return u.ID }) < 0 {
		return invalid("employeeId", "unknown employee %q", employeeID)
	}
	return nil
}

// SubmitLeave files a pending leave request for [start, end].
func (r *Requests) SubmitLeave(employeeID string, start, end models.Date, reason string) (models.LeaveRequest, error) {
	if _, err := models.ParseDate(string(start)); err != nil {
		return models.LeaveRequest{}, invalid("startDate", "must be YYYY-MM-DD")
	}
	if _, err := models.ParseDate(string(end)); err != nil {
		return models.LeaveRequest{}, invalid("endDate", "must be YYYY-MM-DD")
	}
	if end < start {
		return models.LeaveRequest{}, invalid("endDate", "must not be before the start date")
	}
	var out models.LeaveRequest
	err := r.st.update(func() error {
		if err := r.requester(employeeID); err != nil {
			return err
		}
		out = models.LeaveRequest{
			ID:          r.st.newID("req"),
			EmployeeID:  employeeID,
			RequestType: models.RequestTypeLeave,
			StartDate:   &start,
			EndDate:     &end,
			Reason:      strPtr(strings.TrimSpace(reason)),
			Status:      models.RequestStatusPending,
			RequestedAt: r.st.now(),
		}
		r.st.data.Requests = append(r.st.data.Requests, out)
		r.st.touch(KindRequests, out.ID, OpUpsert)
		return nil
	})
	return out, err
}

// SubmitProfileEdit files a pending change to name, email or shiftStart.
func (r *Requests) SubmitProfileEdit(employeeID string, changes map[string]interface{}) (models.LeaveRequest, error) {
	if len(changes) == 0 {
		return models.LeaveRequest{}, invalid("requestedChanges", "nothing to change")
	}
	for k, v := range changes {
		if !profileFields[k] {
			return models.LeaveRequest{}, invalid("requestedChanges", "%s cannot be changed by request", k)
		}
		if _, ok := v.(string); !ok {
			return models.LeaveRequest{}, invalid("requestedChanges", "%s must be text", k)
		}
	}
	if s, ok := changes["shiftStart"].(string); ok && s != "" {
		if _, _, valid := ParseShiftStart(s); !valid {
			return models.LeaveRequest{}, invalid("shiftStart", "must be HH:MM, got %q", s)
		}
	}
	var out models.LeaveRequest
	err := r.st.update(func() error {
		if err := r.requester(employeeID); err != nil {
			return err
		}
		out = models.LeaveRequest{
			ID:               r.st.newID("req"),
			EmployeeID:       employeeID,
			RequestType:      models.RequestTypeProfileEdit,
			RequestedChanges: models.JSONMap(changes),
			Status:           models.RequestStatusPending,
			RequestedAt:      r.st.now(),
		}
		r.st.data.Requests = append(r.st.data.Requests, out)
		r.st.touch(KindRequests, out.ID, OpUpsert)
		return nil
	})
	return out, err
}

// Review approves or rejects a pending request. Approving a profile edit
// applies the requested changes to the user.
func (r *Requests) Review(id string, approve bool, reviewer string) (models.LeaveRequest, error) {
	var out models.LeaveRequest
	err := r.st.update(func() error {
		i := indexOf(r.st.data.Requests, id, func(x models.LeaveRequest) string { return x.ID })
		if i < 0 {
			return notFound(KindRequests, id)
		}
		req := &r.st.data.Requests[i]
		if req.Status != models.RequestStatusPending {
			return invalid("status", "request %s was already %s", id, req.Status)
		}
		now := r.st.now()
		req.Status = models.RequestStatusRejected
		if approve {
			req.Status = models.RequestStatusApproved
		}
		req.ReviewedBy = strPtr(reviewer)
		req.ReviewedAt = &now
		r.st.touch(KindRequests, req.ID, OpUpsert)

		if approve && req.RequestType == models.RequestTypeProfileEdit {
			r.applyProfileEdit(req.EmployeeID, req.RequestedChanges)
		}
		out = *req
		return nil
	})
	return out, err
}

func (r *Requests) applyProfileEdit(employeeID string, changes models.JSONMap) {
	i := indexOf(r.st.data.Users, employeeID, func(u models.User) string { return u.ID })
	if i < 0 {
		return
	}
	u := &r.st.data.Users[i]
	if v, ok := changes["name"].(string); ok && v != "" {
		u.Name = v
	}
	if v, ok := changes["email"].(string); ok {
		u.Email = strPtr(v)
	}
	if v, ok := changes["shiftStart"].(string); ok && !u.IsAdmin() {
		u.ShiftStart = strPtr(v)
	}
	r.st.touch(KindUsers, u.ID, OpUpsert)
}

// Pending returns requests awaiting review, oldest first.
func (r *Requests) Pending() []models.LeaveRequest {
	var out []models.LeaveRequest
	r.st.view(func() {
		for _, x := range r.st.data.Requests {
			if x.Status == models.RequestStatusPending {
				out = append(out, x)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out
}

// ForEmployee returns one employee's requests, newest first.
func (r *Requests) ForEmployee(employeeID string) []models.LeaveRequest {
	var out []models.LeaveRequest
	r.st.view(func() {
		for _, x := range r.st.data.Requests {
			if x.EmployeeID == employeeID {
				out = append(out, x)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}
