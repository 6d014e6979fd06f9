package models

// Permission enum
type Permission string

const (
	PermissionAdmin            Permission = "admin"
	PermissionKitchenStaff     Permission = "kitchen_staff"
	PermissionFrontStaff       Permission = "front_staff"
	PermissionDeliveryStaff    Permission = "delivery_staff"
	PermissionInventoryManager Permission = "inventory_manager"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionAdmin, PermissionKitchenStaff, PermissionFrontStaff, PermissionDeliveryStaff, PermissionInventoryManager:
		return true
	}
	return false
}

// UserStatus enum
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Category enum. The set is open; these are the ones with known stock rules.
type Category string

const (
	CategoryCakes       Category = "cakes"
	CategoryIngredients Category = "ingredients"
	CategorySupplies    Category = "supplies"
	CategoryBeverages   Category = "beverages"
)

// OrderStatus enum
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusServed:
		return true
	}
	return false
}

// OrderType enum
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

// NormalizeOrderType maps free-form input onto a known order type, defaulting to dine-in.
func NormalizeOrderType(s string) OrderType {
	switch OrderType(s) {
	case OrderTypeTakeout, "take-out", "takeaway":
		return OrderTypeTakeout
	case OrderTypeDelivery:
		return OrderTypeDelivery
	}
	return OrderTypeDineIn
}

// LineSource enum
type LineSource string

const (
	LineSourceInventory LineSource = "inventory"
	LineSourceSupplies  LineSource = "supplies"
	LineSourceCustom    LineSource = "custom"
)

// Reserves reports whether lines from this source draw down inventory.
func (s LineSource) Reserves() bool {
	return s == LineSourceInventory || s == LineSourceSupplies
}

// AttendanceAction enum
type AttendanceAction string

const (
	ActionIn     AttendanceAction = "in"
	ActionOut    AttendanceAction = "out"
	ActionSick   AttendanceAction = "sick"
	ActionAbsent AttendanceAction = "absent"
)

func (a AttendanceAction) Valid() bool {
	switch a {
	case ActionIn, ActionOut, ActionSick, ActionAbsent:
		return true
	}
	return false
}

// RequiresReason reports whether a log with this action must carry a note.
func (a AttendanceAction) RequiresReason() bool {
	return a == ActionSick || a == ActionAbsent
}

// RequestStatus enum
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestType enum
type RequestType string

const (
	RequestTypeLeave       RequestType = "leave"
	RequestTypeProfileEdit RequestType = "profile_edit"
)

// UsageReason enum
type UsageReason string

const (
	UsageReasonWaste            UsageReason = "waste"
	UsageReasonSpoilage         UsageReason = "spoilage"
	UsageReasonTesting          UsageReason = "testing"
	UsageReasonStaffConsumption UsageReason = "staff_consumption"
	UsageReasonProduction       UsageReason = "production"
	UsageReasonOrder            UsageReason = "order"
	UsageReasonOther            UsageReason = "other"
)

func (r UsageReason) Valid() bool {
	switch r {
	case UsageReasonWaste, UsageReasonSpoilage, UsageReasonTesting, UsageReasonStaffConsumption,
		UsageReasonProduction, UsageReasonOrder, UsageReasonOther:
		return true
	}
	return false
}
