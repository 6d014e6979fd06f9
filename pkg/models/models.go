package models

import (
	"time"
)

// ArchiveInfo is the soft-delete stamp shared by every archivable record.
type ArchiveInfo struct {
	Archived   bool       `gorm:"default:false;index;column:archived" json:"archived"`
	ArchivedAt *time.Time `gorm:"column:archived_at" json:"archivedAt,omitempty"`
	ArchivedBy *string    `gorm:"column:archived_by" json:"archivedBy,omitempty"`
}

// User is an employee on the roster. Admins carry no shift.
type User struct {
	ID         string     `gorm:"primaryKey;column:id" json:"id"`
	Name       string     `gorm:"not null;column:name" json:"name"`
	Email      *string    `gorm:"column:email" json:"email,omitempty"`
	PinHash    *string    `gorm:"column:pin_hash" json:"-"`
	Role       string     `gorm:"column:role" json:"role"`
	Permission Permission `gorm:"type:text;not null;default:front_staff;column:permission" json:"permission"`
	ShiftStart *string    `gorm:"column:shift_start" json:"shiftStart,omitempty"`
	HireDate   *Date      `gorm:"type:date;column:hire_date" json:"hireDate,omitempty"`
	Status     UserStatus `gorm:"type:text;not null;default:active;column:status" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	ArchiveInfo `gorm:"embedded"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user is excluded from attendance tracking.
func (u User) IsAdmin() bool {
	return u.Permission == PermissionAdmin
}

// InventoryItem is a stocked good.
type InventoryItem struct {
	ID            string    `gorm:"primaryKey;column:id" json:"id"`
	Name          string    `gorm:"not null;column:name" json:"name"`
	Category      Category  `gorm:"type:text;not null;column:category" json:"category"`
	Quantity      float64   `gorm:"not null;default:0;column:quantity" json:"quantity"`
	Unit          string    `gorm:"default:pieces;column:unit" json:"unit"`
	Cost          float64   `gorm:"default:0;column:cost" json:"cost"`
	ReorderPoint  float64   `gorm:"default:10;column:reorder_point" json:"reorderPoint"`
	DatePurchased *Date     `gorm:"type:date;column:date_purchased" json:"datePurchased,omitempty"`
	UseByDate     *Date     `gorm:"type:date;column:use_by_date" json:"useByDate,omitempty"`
	ExpiryDate    *Date     `gorm:"type:date;column:expiry_date" json:"expiryDate,omitempty"`
	LastRestocked *Date     `gorm:"type:date;column:last_restocked" json:"lastRestocked,omitempty"`
	TotalUsed     float64   `gorm:"default:0;column:total_used" json:"totalUsed"`
	CreatedAt     time.Time `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	ArchiveInfo   `gorm:"embedded"`
}

func (InventoryItem) TableName() string {
	return "inventory"
}

// ExpiresOn returns the use-by date, falling back to the printed expiry date.
func (i InventoryItem) ExpiresOn() *Date {
	if i.UseByDate != nil && *i.UseByDate != "" {
		return i.UseByDate
	}
	if i.ExpiryDate != nil && *i.ExpiryDate != "" {
		return i.ExpiryDate
	}
	return nil
}

// OrderLine is one ordered item. ItemID is set for inventory and supplies lines.
type OrderLine struct {
	Source    LineSource `json:"source"`
	ItemID    string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Qty       float64    `json:"qty"`
	UnitPrice float64    `json:"unitPrice"`
	Subtotal  float64    `json:"subtotal"`
}

// Order model
type Order struct {
	ID        string      `gorm:"primaryKey;column:id" json:"id"`
	Customer  string      `gorm:"not null;default:Walk-in;column:customer" json:"customer"`
	Items     string      `gorm:"column:items" json:"items"`
	Lines     OrderLines  `gorm:"type:jsonb;column:items_json" json:"itemsJson"`
	Total     float64     `gorm:"not null;default:0;column:total" json:"total"`
	Status    OrderStatus `gorm:"type:text;not null;default:pending;column:status" json:"status"`
	Type      OrderType   `gorm:"type:text;not null;default:dine-in;column:order_type" json:"orderType"`
	Timestamp time.Time   `gorm:"not null;column:timestamp" json:"timestamp"`
	ServedAt  *time.Time  `gorm:"column:served_at" json:"servedAt,omitempty"`
	ArchiveInfo `gorm:"embedded"`
}

func (Order) TableName() string {
	return "orders"
}

// AttendanceLog is one clock action.
type AttendanceLog struct {
	ID          string           `gorm:"primaryKey;column:id" json:"id"`
	EmployeeID  string           `gorm:"not null;index;column:employee_id" json:"employeeId"`
	Action      AttendanceAction `gorm:"type:text;not null;column:action" json:"action"`
	Timestamp   time.Time        `gorm:"not null;index;column:timestamp" json:"timestamp"`
	Shift       *string          `gorm:"column:shift" json:"shift,omitempty"`
	Note        *string          `gorm:"column:note" json:"note,omitempty"`
	ArchiveInfo `gorm:"embedded"`
}

func (AttendanceLog) TableName() string {
	return "attendance_logs"
}

// LeaveRequest covers both leave and profile-edit requests.
type LeaveRequest struct {
	ID               string        `gorm:"primaryKey;column:id" json:"id"`
	EmployeeID       string        `gorm:"not null;index;column:employee_id" json:"employeeId"`
	RequestType      RequestType   `gorm:"type:text;not null;default:leave;column:request_type" json:"requestType"`
	StartDate        *Date         `gorm:"type:date;column:start_date" json:"startDate,omitempty"`
	EndDate          *Date         `gorm:"type:date;column:end_date" json:"endDate,omitempty"`
	Reason           *string       `gorm:"column:reason" json:"reason,omitempty"`
	RequestedChanges JSONMap       `gorm:"type:jsonb;column:requested_changes" json:"requestedChanges,omitempty"`
	Status           RequestStatus `gorm:"type:text;not null;default:pending;column:status" json:"status"`
	RequestedAt      time.Time     `gorm:"column:requested_at" json:"requestedAt"`
	ReviewedBy       *string       `gorm:"column:reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time    `gorm:"column:reviewed_at" json:"reviewedAt,omitempty"`
}

func (LeaveRequest) TableName() string {
	return "requests"
}

// Covers reports whether an approved leave request spans day.
func (r LeaveRequest) Covers(day Date) bool {
	if r.Status != RequestStatusApproved || r.StartDate == nil || r.EndDate == nil {
		return false
	}
	if r.RequestType != "" && r.RequestType != RequestTypeLeave {
		return false
	}
	return *r.StartDate <= day && day <= *r.EndDate
}

// SalesHistoryEntry is a derived per-day revenue bucket.
type SalesHistoryEntry struct {
	ID          string  `gorm:"primaryKey;column:id" json:"id"`
	Date        Date    `gorm:"type:date;uniqueIndex;not null;column:date" json:"date"`
	Total       float64 `gorm:"not null;default:0;column:total" json:"total"`
	OrdersCount int     `gorm:"not null;default:0;column:orders_count" json:"ordersCount"`
}

func (SalesHistoryEntry) TableName() string {
	return "sales_history"
}

// InventoryUsageLog records stock consumed outside of order reservations.
type InventoryUsageLog struct {
	ID              string      `gorm:"primaryKey;column:id" json:"id"`
	InventoryItemID string      `gorm:"not null;index;column:inventory_item_id" json:"inventoryItemId"`
	Quantity        float64     `gorm:"not null;column:quantity" json:"quantity"`
	Reason          UsageReason `gorm:"type:text;not null;column:reason" json:"reason"`
	BatchID         *string     `gorm:"index;column:batch_id" json:"batchId,omitempty"`
	OrderID         *string     `gorm:"column:order_id" json:"orderId,omitempty"`
	Notes           *string     `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy       *string     `gorm:"column:created_by" json:"createdBy,omitempty"`
	Timestamp       time.Time   `gorm:"not null;column:timestamp" json:"timestamp"`
	ArchiveInfo     `gorm:"embedded"`
}

func (InventoryUsageLog) TableName() string {
	return "inventory_usage_logs"
}

// TrendPoint is one day of the attendance trend.
type TrendPoint struct {
	Date    Date   `json:"date"`
	Label   string `json:"label"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	OnLeave int    `json:"onLeave"`
}

// Snapshot is the whole state tree exchanged with GET/POST /api/state.
// AttendanceTrend is derived by the server and ignored on push.
type Snapshot struct {
	Users              []User              `json:"users"`
	AttendanceLogs     []AttendanceLog     `json:"attendanceLogs"`
	Inventory          []InventoryItem     `json:"inventory"`
	Orders             []Order             `json:"orders"`
	SalesHistory       []SalesHistoryEntry `json:"salesHistory"`
	InventoryUsageLogs []InventoryUsageLog `json:"inventoryUsageLogs"`
	Requests           []LeaveRequest      `json:"requests"`
	AttendanceTrend    []TrendPoint        `json:"attendanceTrend,omitempty"`
}

// Clone copies every collection. Pointer and map fields are shared: records
// are only ever updated by replacing those fields, never by writing through them.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Users:              append([]User{}, s.Users...),
		AttendanceLogs:     append([]AttendanceLog{}, s.AttendanceLogs...),
		Inventory:          append([]InventoryItem{}, s.Inventory...),
		Orders:             append([]Order{}, s.Orders...),
		SalesHistory:       append([]SalesHistoryEntry{}, s.SalesHistory...),
		InventoryUsageLogs: append([]InventoryUsageLog{}, s.InventoryUsageLogs...),
		Requests:           append([]LeaveRequest{}, s.Requests...),
		AttendanceTrend:    append([]TrendPoint{}, s.AttendanceTrend...),
	}
}
