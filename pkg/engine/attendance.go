package engine

import (
	"sort"
	"strings"
	"time"

	"sweetbox/pkg/models"
)

// Status is an employee's derived attendance state for today. It is never stored.
type Status string

const (
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusAbsent     Status = "absent"
	StatusOnLeave    Status = "on-leave"
	StatusClockedOut Status = "clocked-out"
)

// AbsenceDetail qualifies an absent status without changing it.
type AbsenceDetail string

const (
	DetailNotYetDue AbsenceDetail = "not-yet-due"
	DetailNoLog     AbsenceDetail = "no-log"
)

// EmployeeStatus is the resolved view of one employee for one day.
type EmployeeStatus struct {
	EmployeeID string                  `json:"employeeId"`
	Name       string                  `json:"name"`
	ShiftStart string                  `json:"shiftStart,omitempty"`
	Status     Status                  `json:"status"`
	Detail     AbsenceDetail           `json:"detail,omitempty"`
	LastAction models.AttendanceAction `json:"lastAction,omitempty"`
	LastSeen   *time.Time              `json:"lastSeen,omitempty"`
	FirstIn    *time.Time              `json:"firstIn,omitempty"`
	LateBy     time.Duration           `json:"lateBy,omitempty"`
}

// Resolve derives user's status on the calendar day of now (in now's location).
//
// Precedence: approved leave, then no logs (absent), then a latest "out"
// (clocked-out), then no "in" (absent), then first "in" against the shift.
func Resolve(user models.User, logs []models.AttendanceLog, requests []models.LeaveRequest, now time.Time) EmployeeStatus {
	today := models.DateOf(now)
	shift := ""
	if user.ShiftStart != nil {
		shift = *user.ShiftStart
	}
	st := EmployeeStatus{EmployeeID: user.ID, Name: user.Name, ShiftStart: shift}

	for _, r := range requests {
		if r.EmployeeID == user.ID && r.Covers(today) {
			st.Status = StatusOnLeave
			return st
		}
	}

	todays := logsOn(logs, user.ID, today, now.Location())
	if len(todays) == 0 {
		st.Status = StatusAbsent
		st.Detail = DetailNoLog
		if !IsDue(shift, now) {
			st.Detail = DetailNotYetDue
		}
		return st
	}

	latest := todays[len(todays)-1]
	st.LastAction = latest.Action
	seen := latest.Timestamp
	st.LastSeen = &seen
	if latest.Action == models.ActionOut {
		st.Status = StatusClockedOut
		return st
	}

	for _, l := range todays {
		if l.Action != models.ActionIn {
			continue
		}
		first := l.Timestamp
		st.FirstIn = &first
		if IsLate(shift, first.In(now.Location())) {
			st.Status = StatusLate
			st.LateBy, _ = LateBy(shift, first.In(now.Location()))
		} else {
			st.Status = StatusPresent
		}
		return st
	}
	st.Status = StatusAbsent
	return st
}

// logsOn returns the employee's active logs on day, oldest first.
func logsOn(logs []models.AttendanceLog, employeeID string, day models.Date, loc *time.Location) []models.AttendanceLog {
	var out []models.AttendanceLog
	for _, l := range logs {
		if l.EmployeeID != employeeID || l.Archived {
			continue
		}
		if models.DateOf(l.Timestamp.In(loc)) == day {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// ValidateLog checks a log at the boundary.
func ValidateLog(l models.AttendanceLog) error {
	if l.EmployeeID == "" {
		return invalid("employeeId", "no employee selected")
	}
	if !l.Action.Valid() {
		return invalid("action", "unknown action %q", l.Action)
	}
	if l.Action.RequiresReason() && (l.Note == nil || strings.TrimSpace(*l.Note) == "") {
		return invalid("note", "a reason is required for %s", l.Action)
	}
	if l.Timestamp.IsZero() {
		return invalid("timestamp", "is required")
	}
	return nil
}

// Trend counts present, late and on-leave employees for each of the last days
// days, oldest first. Admins and archived users are left out.
func Trend(users []models.User, logs []models.AttendanceLog, requests []models.LeaveRequest, now time.Time, days int) []models.TrendPoint {
	if days <= 0 {
		return nil
	}
	loc := now.Location()
	type key struct {
		emp string
		day models.Date
	}
	firstIn := map[key]time.Time{}
	for _, l := range logs {
		if l.Archived || l.Action != models.ActionIn {
			continue
		}
		k := key{l.EmployeeID, models.DateOf(l.Timestamp.In(loc))}
		if prev, ok := firstIn[k]; !ok || l.Timestamp.Before(prev) {
			firstIn[k] = l.Timestamp
		}
	}

	today := models.DateOf(now)
	out := make([]models.TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		p := models.TrendPoint{Date: day}
		if t, err := day.In(loc); err == nil {
			p.Label = t.Format("01/02")
		}
		for _, u := range users {
			if u.IsAdmin() || u.Archived {
				continue
			}
			onLeave := false
			for _, r := range requests {
				if r.EmployeeID == u.ID && r.Covers(day) {
					onLeave = true
					break
				}
			}
			if onLeave {
				p.OnLeave++
				continue
			}
			in, ok := firstIn[key{u.ID, day}]
			if !ok {
				continue
			}
			shift := ""
			if u.ShiftStart != nil {
				shift = *u.ShiftStart
			}
			if IsLate(shift, in.In(loc)) {
				p.Late++
			} else {
				p.Present++
			}
		}
		out = append(out, p)
	}
	return out
}

// Attendance resolves statuses and records clock actions.
type Attendance struct {
	st *State
}

// Status resolves one employee for today.
func (a *Attendance) Status(employeeID string) (EmployeeStatus, error) {
	var (
		out EmployeeStatus
		err error
	)
	a.st.view(func() {
		i := indexOf(a.st.data.Users, employeeID, func(u models.User) string { return u.ID })
		if i < 0 {
			err = notFound(KindUsers, employeeID)
			return
		}
		out = Resolve(a.st.data.Users[i], a.st.data.AttendanceLogs, a.st.data.Requests, a.st.now())
	})
	return out, err
}

// Snapshot resolves every active, non-admin employee, sorted by name.
func (a *Attendance) Snapshot() []EmployeeStatus {
	var out []EmployeeStatus
	a.st.view(func() {
		now := a.st.now()
		for _, u := range a.st.data.Users {
			if u.IsAdmin() || u.Archived || u.Status == models.UserStatusInactive {
				continue
			}
			out = append(out, Resolve(u, a.st.data.AttendanceLogs, a.st.data.Requests, now))
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Trend is the engine-state form of Trend.
func (a *Attendance) Trend(days int) []models.TrendPoint {
	var out []models.TrendPoint
	a.st.view(func() {
		out = Trend(a.st.data.Users, a.st.data.AttendanceLogs, a.st.data.Requests, a.st.now(), days)
	})
	return out
}

// Today returns the employee's active logs for today, oldest first.
func (a *Attendance) Today(employeeID string) []models.AttendanceLog {
	var out []models.AttendanceLog
	a.st.view(func() {
		out = logsOn(a.st.data.AttendanceLogs, employeeID, a.st.today(), a.st.loc)
	})
	return out
}

// ClockIn opens a shift. A late clock-in needs a note, which gets the
// lateness prefixed to it.
func (a *Attendance) ClockIn(employeeID, note string) (models.AttendanceLog, error) {
	var out models.AttendanceLog
	err := a.st.update(func() error {
		u, err := a.clockable(employeeID)
		if err != nil {
			return err
		}
		now := a.st.now()
		todays := logsOn(a.st.data.AttendanceLogs, u.ID, a.st.today(), a.st.loc)
		if n := len(todays); n > 0 && todays[n-1].Action == models.ActionIn {
			return invalid("employeeId", "%s is already clocked in", u.Name)
		}
		note = strings.TrimSpace(note)
		if u.ShiftStart != nil && IsLate(*u.ShiftStart, now) {
			late, _ := LateBy(*u.ShiftStart, now)
			if note == "" {
				return invalid("note", "%s: a reason is required", FormatLateBy(late))
			}
			note = FormatLateBy(late) + ": " + note
		}
		out = a.append(u, models.ActionIn, note, now)
		return nil
	})
	return out, err
}

// ClockOut closes the employee's open shift.
func (a *Attendance) ClockOut(employeeID, note string) (models.AttendanceLog, error) {
	var out models.AttendanceLog
	err := a.st.update(func() error {
		u, err := a.clockable(employeeID)
		if err != nil {
			return err
		}
		todays := logsOn(a.st.data.AttendanceLogs, u.ID, a.st.today(), a.st.loc)
		if n := len(todays); n == 0 || todays[n-1].Action != models.ActionIn {
			return invalid("employeeId", "%s is not clocked in", u.Name)
		}
		out = a.append(u, models.ActionOut, strings.TrimSpace(note), a.st.now())
		return nil
	})
	return out, err
}

// MarkUnavailable records a sick or absent day. A reason is mandatory.
func (a *Attendance) MarkUnavailable(employeeID string, action models.AttendanceAction, reason string) (models.AttendanceLog, error) {
	if !action.RequiresReason() {
		return models.AttendanceLog{}, invalid("action", "must be sick or absent, got %q", action)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.AttendanceLog{}, invalid("note", "a reason is required for %s", action)
	}
	var out models.AttendanceLog
	err := a.st.update(func() error {
		u, err := a.clockable(employeeID)
		if err != nil {
			return err
		}
		out = a.append(u, action, reason, a.st.now())
		return nil
	})
	return out, err
}

// Record adds a hand-entered log (manager correction).
func (a *Attendance) Record(l models.AttendanceLog) (models.AttendanceLog, error) {
	if err := ValidateLog(l); err != nil {
		return models.AttendanceLog{}, err
	}
	err := a.st.update(func() error {
		if indexOf(a.st.data.Users, l.EmployeeID, func(u models.User) string { return u.ID }) < 0 {
			return invalid("employeeId", "unknown employee %q", l.EmployeeID)
		}
		if l.ID == "" {
			l.ID = a.st.newID("log")
		}
		l.ArchiveInfo = models.ArchiveInfo{}
		a.st.data.AttendanceLogs = append(a.st.data.AttendanceLogs, l)
		a.st.touch(KindAttendanceLogs, l.ID, OpUpsert)
		return nil
	})
	return l, err
}

func (a *Attendance) clockable(employeeID string) (models.User, error) {
	if employeeID == "" {
		return models.User{}, invalid("employeeId", "no employee selected")
	}
	i := indexOf(a.st.data.Users, employeeID, func(u models.User) string { return u.ID })
	if i < 0 || a.st.data.Users[i].Archived {
		return models.User{}, invalid("employeeId", "unknown employee %q", employeeID)
	}
	u := a.st.data.Users[i]
	if u.Status == models.UserStatusInactive {
		return models.User{}, invalid("employeeId", "%s is inactive", u.Name)
	}
	if u.IsAdmin() {
		return models.User{}, invalid("employeeId", "admins do not track attendance")
	}
	return u, nil
}

func (a *Attendance) append(u models.User, action models.AttendanceAction, note string, at time.Time) models.AttendanceLog {
	l := models.AttendanceLog{
		ID:         a.st.newID("log"),
		EmployeeID: u.ID,
		Action:     action,
		Timestamp:  at,
		Shift:      u.ShiftStart,
		Note:       strPtr(note),
	}
	a.st.data.AttendanceLogs = append(a.st.data.AttendanceLogs, l)
	a.st.touch(KindAttendanceLogs, l.ID, OpUpsert)
	return l
}
