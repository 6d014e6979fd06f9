package engine

import (
	"sweetbox/pkg/models"
)

// normalize applies default-value policies to a snapshot arriving from the
// network, so business logic never sees missing fields.
func normalize(s models.Snapshot) models.Snapshot {
	if s.Users == nil {
		s.Users = []models.User{}
	}
	if s.AttendanceLogs == nil {
		s.AttendanceLogs = []models.AttendanceLog{}
	}
	if s.Inventory == nil {
		s.Inventory = []models.InventoryItem{}
	}
	if s.Orders == nil {
		s.Orders = []models.Order{}
	}
	if s.SalesHistory == nil {
		s.SalesHistory = []models.SalesHistoryEntry{}
	}
	if s.InventoryUsageLogs == nil {
		s.InventoryUsageLogs = []models.InventoryUsageLog{}
	}
	if s.Requests == nil {
		s.Requests = []models.LeaveRequest{}
	}

	for i := range s.Users {
		u := &s.Users[i]
		if !u.Permission.Valid() {
			u.Permission = models.PermissionFrontStaff
		}
		if u.Status == "" {
			u.Status = models.UserStatusActive
		}
		if u.IsAdmin() {
			u.ShiftStart = nil
		}
	}
	for i := range s.Inventory {
		it := &s.Inventory[i]
		it.Quantity = nonNegative(it.Quantity)
		it.TotalUsed = nonNegative(it.TotalUsed)
		if it.Unit == "" {
			it.Unit = defaultUnit
		}
		if it.ReorderPoint <= 0 {
			it.ReorderPoint = defaultReorderPoint
		}
	}
	for i := range s.Orders {
		o := &s.Orders[i]
		if o.Customer == "" {
			o.Customer = DefaultCustomer
		}
		o.Type = models.NormalizeOrderType(string(o.Type))
		if !o.Status.Valid() {
			o.Status = models.OrderStatusPending
		}
		if o.Lines == nil {
			o.Lines = models.OrderLines{}
		}
		o.Total = nonNegative(o.Total)
	}
	for i := range s.Requests {
		r := &s.Requests[i]
		if r.RequestType == "" {
			r.RequestType = models.RequestTypeLeave
		}
		if r.Status == "" {
			r.Status = models.RequestStatusPending
		}
	}
	for i := range s.InventoryUsageLogs {
		s.InventoryUsageLogs[i].Quantity = nonNegative(s.InventoryUsageLogs[i].Quantity)
	}
	for i := range s.SalesHistory {
		e := &s.SalesHistory[i]
		if e.ID == "" {
			e.ID = SalesID(e.Date)
		}
	}
	return s
}
