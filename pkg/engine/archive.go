package engine

import (
	"sort"
	"time"

	"sweetbox/pkg/models"
)

// ArchivedRecord is one row of the archive view.
type ArchivedRecord struct {
	Kind       EntityKind `json:"kind"`
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	ArchivedBy *string    `json:"archivedBy,omitempty"`
}

// Archive implements soft delete, restore and permanent delete.
type Archive struct {
	st     *State
	orders *Orders
	sales  *Sales
}

// info locates the archive stamp of a record. Must run under the state lock.
func (a *Archive) info(kind EntityKind, id string) (*models.ArchiveInfo, error) {
	d := &a.st.data
	var i int
	switch kind {
	case KindUsers:
		if i = indexOf(d.Users, id, func(x models.User) string { return x.ID }); i >= 0 {
			return &d.Users[i].ArchiveInfo, nil
		}
	case KindOrders:
		if i = indexOf(d.Orders, id, func(x models.Order) string { return x.ID }); i >= 0 {
			return &d.Orders[i].ArchiveInfo, nil
		}
	case KindInventory:
		if i = indexOf(d.Inventory, id, func(x models.InventoryItem) string { return x.ID }); i >= 0 {
			return &d.Inventory[i].ArchiveInfo, nil
		}
	case KindAttendanceLogs:
		if i = indexOf(d.AttendanceLogs, id, func(x models.AttendanceLog) string { return x.ID }); i >= 0 {
			return &d.AttendanceLogs[i].ArchiveInfo, nil
		}
	case KindUsageLogs:
		if i = indexOf(d.InventoryUsageLogs, id, func(x models.InventoryUsageLog) string { return x.ID }); i >= 0 {
			return &d.InventoryUsageLogs[i].ArchiveInfo, nil
		}
	default:
		return nil, invalid("kind", "%s cannot be archived", kind)
	}
	return nil, notFound(kind, id)
}

// servedOrder reports whether id names a served order, whose archive state feeds sales.
func (a *Archive) servedOrder(kind EntityKind, id string) bool {
	if kind != KindOrders {
		return false
	}
	i := a.orders.index(id)
	return i >= 0 && a.st.data.Orders[i].Status == models.OrderStatusServed
}

// Archive hides a record from active views. Archiving twice keeps the first stamp.
func (a *Archive) Archive(kind EntityKind, id, actor string) error {
	return a.st.update(func() error {
		info, err := a.info(kind, id)
		if err != nil {
			return err
		}
		if info.Archived {
			return nil
		}
		*info = stamp(actor, a.st.now())
		a.st.touch(kind, id, OpUpsert)
		if a.servedOrder(kind, id) {
			a.sales.recalculate()
		}
		return nil
	})
}

// Restore clears the archive stamp. An attendance log cannot come back while
// the same employee has another active log on that day.
func (a *Archive) Restore(kind EntityKind, id string) error {
	return a.st.update(func() error {
		info, err := a.info(kind, id)
		if err != nil {
			return err
		}
		if !info.Archived {
			return nil
		}
		if kind == KindAttendanceLogs {
			if err := a.restoreConflict(id); err != nil {
				return err
			}
		}
		*info = models.ArchiveInfo{}
		a.st.touch(kind, id, OpUpsert)
		if a.servedOrder(kind, id) {
			a.sales.recalculate()
		}
		return nil
	})
}

func (a *Archive) restoreConflict(id string) error {
	logs := a.st.data.AttendanceLogs
	target := logs[indexOf(logs, id, func(x models.AttendanceLog) string { return x.ID })]
	day := a.st.dayOf(target.Timestamp)
	for _, l := range logs {
		if l.ID == id || l.Archived || l.EmployeeID != target.EmployeeID {
			continue
		}
		if a.st.dayOf(l.Timestamp) == day {
			return &RestoreConflict{LogID: id, EmployeeID: target.EmployeeID, Day: day, ConflictID: l.ID}
		}
	}
	return nil
}

// PermanentDelete removes a record outright. confirmed must be true.
// Orders go through the same release path as Orders.Delete.
func (a *Archive) PermanentDelete(kind EntityKind, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return a.st.update(func() error {
		d := &a.st.data
		if kind == KindOrders {
			i := a.orders.index(id)
			if i < 0 {
				return notFound(kind, id)
			}
			a.orders.remove(i)
			return nil
		}
		var removed bool
		switch kind {
		case KindUsers:
			d.Users, removed = without(d.Users, id, func(x models.User) string { return x.ID })
		case KindInventory:
			d.Inventory, removed = without(d.Inventory, id, func(x models.InventoryItem) string { return x.ID })
		case KindAttendanceLogs:
			d.AttendanceLogs, removed = without(d.AttendanceLogs, id, func(x models.AttendanceLog) string { return x.ID })
		case KindUsageLogs:
			d.InventoryUsageLogs, removed = without(d.InventoryUsageLogs, id, func(x models.InventoryUsageLog) string { return x.ID })
		case KindRequests:
			d.Requests, removed = without(d.Requests, id, func(x models.LeaveRequest) string { return x.ID })
		default:
			return invalid("kind", "%s cannot be deleted", kind)
		}
		if !removed {
			return notFound(kind, id)
		}
		a.st.touch(kind, id, OpDelete)
		return nil
	})
}

// Archived lists archived records of one kind, most recently archived first.
func (a *Archive) Archived(kind EntityKind) ([]ArchivedRecord, error) {
	var (
		out []ArchivedRecord
		err error
	)
	a.st.view(func() {
		d := a.st.data
		add := func(id, label string, info models.ArchiveInfo) {
			if info.Archived {
				out = append(out, ArchivedRecord{Kind: kind, ID: id, Label: label, ArchivedAt: info.ArchivedAt, ArchivedBy: info.ArchivedBy})
			}
		}
		switch kind {
		case KindUsers:
			for _, x := range d.Users {
				add(x.ID, x.Name, x.ArchiveInfo)
			}
		case KindOrders:
			for _, x := range d.Orders {
				add(x.ID, x.Customer+": "+x.Items, x.ArchiveInfo)
			}
		case KindInventory:
			for _, x := range d.Inventory {
				add(x.ID, x.Name, x.ArchiveInfo)
			}
		case KindAttendanceLogs:
			for _, x := range d.AttendanceLogs {
				add(x.ID, x.EmployeeID+" "+string(x.Action)+" "+a.st.dayOf(x.Timestamp).String(), x.ArchiveInfo)
			}
		case KindUsageLogs:
			for _, x := range d.InventoryUsageLogs {
				add(x.ID, x.InventoryItemID+" "+string(x.Reason), x.ArchiveInfo)
			}
		default:
			err = invalid("kind", "%s cannot be archived", kind)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].ArchivedAt, out[j].ArchivedAt
		return ti != nil && (tj == nil || ti.After(*tj))
	})
	return out, err
}

func without[T any](items []T, id string, key func(T) string) ([]T, bool) {
	out := make([]T, 0, len(items))
	for _, x := range items {
		if key(x) != id {
			out = append(out, x)
		}
	}
	return out, len(out) < len(items)
}
