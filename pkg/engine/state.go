package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/models"
)

// EntityKind names a collection of the state tree. Values match the snapshot keys.
type EntityKind string

const (
	KindUsers          EntityKind = "users"
	KindOrders         EntityKind = "orders"
	KindInventory      EntityKind = "inventory"
	KindAttendanceLogs EntityKind = "attendanceLogs"
	KindUsageLogs      EntityKind = "inventoryUsageLogs"
	KindRequests       EntityKind = "requests"
	KindSalesHistory   EntityKind = "salesHistory"
)

// ParseKind accepts the snapshot key or the REST path segment for a collection.
func ParseKind(s string) (EntityKind, error) {
	switch s {
	case "users", "user", "employees":
		return KindUsers, nil
	case "orders", "order":
		return KindOrders, nil
	case "inventory", "item", "items":
		return KindInventory, nil
	case "attendanceLogs", "attendance-logs", "attendance":
		return KindAttendanceLogs, nil
	case "inventoryUsageLogs", "inventory-usage-logs", "usage":
		return KindUsageLogs, nil
	case "requests", "request":
		return KindRequests, nil
	case "salesHistory", "sales":
		return KindSalesHistory, nil
	}
	return "", invalid("kind", "unknown entity kind %q", s)
}

// Op is the kind of write a Change records.
type Op int

const (
	OpUpsert Op = iota
	OpDelete
)

func (o Op) String() string {
	if o == OpDelete {
		return "delete"
	}
	return "upsert"
}

// Change marks one record dirty.
type Change struct {
	Kind EntityKind
	ID   string
	Op   Op
}

// State is the working copy of the state tree. Every component holds the
// same *State; mutation happens only inside update.
type State struct {
	mu          sync.Mutex
	data        models.Snapshot
	clock       clock.Clock
	loc         *time.Location
	log         *zap.Logger
	newID       func(prefix string) string
	changes     []Change
	subscribers []func(Change)
}

func (s *State) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *State) today() models.Date {
	return models.DateOf(s.now())
}

func (s *State) dayOf(t time.Time) models.Date {
	return models.DateOf(t.In(s.loc))
}

// update runs fn under the lock and then notifies subscribers of every
// record fn touched. Subscribers run outside the lock.
func (s *State) update(fn func() error) error {
	s.mu.Lock()
	err := fn()
	changes := s.changes
	s.changes = nil
	subs := append([]func(Change){}, s.subscribers...)
	s.mu.Unlock()

	for _, c := range changes {
		for _, sub := range subs {
			sub(c)
		}
	}
	return err
}

func (s *State) view(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *State) touch(kind EntityKind, id string, op Op) {
	s.changes = append(s.changes, Change{Kind: kind, ID: id, Op: op})
}

// Engine wires the components around one State.
type Engine struct {
	state *State

	Inventory  *Ledger
	Attendance *Attendance
	Orders     *Orders
	Sales      *Sales
	Archive    *Archive
	Requests   *Requests
}

// Option configures an Engine.
type Option func(*State)

// WithClock injects the time source.
func WithClock(c clock.Clock) Option {
	return func(s *State) { s.clock = c }
}

// WithLocation sets the zone that defines calendar days and shift times.
func WithLocation(loc *time.Location) Option {
	return func(s *State) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator replaces the uuid-based record id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *State) { s.newID = fn }
}

func defaultID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// New builds an engine over an empty state tree.
func New(opts ...Option) *Engine {
	st := &State{
		clock: clock.Real(),
		loc:   time.Local,
		log:   zap.NewNop(),
		newID: defaultID,
	}
	for _, opt := range opts {
		opt(st)
	}
	st.data = normalize(models.Snapshot{})

	e := &Engine{state: st}
	e.Sales = &Sales{st: st}
	e.Inventory = &Ledger{st: st}
	e.Attendance = &Attendance{st: st}
	e.Orders = &Orders{st: st, ledger: e.Inventory, sales: e.Sales}
	e.Archive = &Archive{st: st, orders: e.Orders, sales: e.Sales}
	e.Requests = &Requests{st: st}
	return e
}

// Subscribe registers fn to be told about every change. Used by the sync coordinator.
func (e *Engine) Subscribe(fn func(Change)) {
	e.state.mu.Lock()
	e.state.subscribers = append(e.state.subscribers, fn)
	e.state.mu.Unlock()
}

// Load replaces the working copy wholesale. It is not a mutation and marks nothing dirty.
func (e *Engine) Load(snap models.Snapshot) {
	n := normalize(snap.Clone())
	e.state.view(func() { e.state.data = n })
	e.state.log.Info("state loaded",
		zap.Int("users", len(n.Users)),
		zap.Int("orders", len(n.Orders)),
		zap.Int("inventory", len(n.Inventory)))
}

// Snapshot returns a copy of the full state tree.
func (e *Engine) Snapshot() models.Snapshot {
	var out models.Snapshot
	e.state.view(func() { out = e.state.data.Clone() })
	return out
}

// Now returns the engine clock's time in the engine location.
func (e *Engine) Now() time.Time {
	return e.state.now()
}

// Location returns the zone calendar days are computed in.
func (e *Engine) Location() *time.Location {
	return e.state.loc
}

// Lookup returns a copy of one record by kind and id.
func (e *Engine) Lookup(kind EntityKind, id string) (interface{}, bool) {
	var (
		out interface{}
		ok  bool
	)
	e.state.view(func() {
		d := &e.state.data
		switch kind {
		case KindUsers:
			if i := indexOf(d.Users, id, func(u models.User) string { return u.ID }); i >= 0 {
				out, ok = d.Users[i], true
			}
		case KindOrders:
			if i := indexOf(d.Orders, id, func(o models.Order) string { return o.ID }); i >= 0 {
				out, ok = d.Orders[i], true
			}
		case KindInventory:
			if i := indexOf(d.Inventory, id, func(it models.InventoryItem) string { return it.ID }); i >= 0 {
				out, ok = d.Inventory[i], true
			}
		case KindAttendanceLogs:
			if i := indexOf(d.AttendanceLogs, id, func(l models.AttendanceLog) string { return l.ID }); i >= 0 {
				out, ok = d.AttendanceLogs[i], true
			}
		case KindUsageLogs:
			if i := indexOf(d.InventoryUsageLogs, id, func(l models.InventoryUsageLog) string { return l.ID }); i >= 0 {
				out, ok = d.InventoryUsageLogs[i], true
			}
		case KindRequests:
			if i := indexOf(d.Requests, id, func(r models.LeaveRequest) string { return r.ID }); i >= 0 {
				out, ok = d.Requests[i], true
			}
		case KindSalesHistory:
			if i := indexOf(d.SalesHistory, id, func(s models.SalesHistoryEntry) string { return s.ID }); i >= 0 {
				out, ok = d.SalesHistory[i], true
			}
		}
	})
	return out, ok
}

// Users returns the active roster sorted by name.
func (e *Engine) Users() []models.User {
	var out []models.User
	e.state.view(func() {
		for _, u := range e.state.data.Users {
			if !u.Archived {
				out = append(out, u)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// User returns one roster entry.
func (e *Engine) User(id string) (models.User, bool) {
	v, ok := e.Lookup(KindUsers, id)
	if !ok {
		return models.User{}, false
	}
	return v.(models.User), true
}

// UpsertUser adds or edits a roster entry.
func (e *Engine) UpsertUser(u models.User) (models.User, error) {
	if u.Name == "" {
		return models.User{}, invalid("name", "is required")
	}
	if u.Permission == "" {
		u.Permission = models.PermissionFrontStaff
	}
	if !u.Permission.Valid() {
		return models.User{}, invalid("permission", "unknown permission %q", u.Permission)
	}
	if u.ShiftStart != nil && *u.ShiftStart != "" {
		if _, _, ok := ParseShiftStart(*u.ShiftStart); !ok {
			return models.User{}, invalid("shiftStart", "must be HH:MM, got %q", *u.ShiftStart)
		}
	}
	if u.IsAdmin() {
		u.ShiftStart = nil
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}

	st := e.state
	err := st.update(func() error {
		if u.ID == "" {
			u.ID = st.newID("emp")
		}
		if i := indexOf(st.data.Users, u.ID, func(x models.User) string { return x.ID }); i >= 0 {
			prev := st.data.Users[i]
			if u.PinHash == nil {
				u.PinHash = prev.PinHash
			}
			u.CreatedAt = prev.CreatedAt
			u.ArchiveInfo = prev.ArchiveInfo
			st.data.Users[i] = u
		} else {
			if u.CreatedAt.IsZero() {
				u.CreatedAt = st.now()
			}
			st.data.Users = append(st.data.Users, u)
		}
		st.touch(KindUsers, u.ID, OpUpsert)
		return nil
	})
	return u, err
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i := range items {
		if key(items[i]) == id {
			return i
		}
	}
	return -1
}

func stamp(actor string, at time.Time) models.ArchiveInfo {
	info := models.ArchiveInfo{Archived: true, ArchivedAt: &at}
	if actor != "" {
		info.ArchivedBy = &actor
	}
	return info
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
