package engine

import (
	"sort"
	"time"

	"sweetbox/pkg/models"
)

// Sales keeps per-day revenue buckets derived from served orders.
type Sales struct {
	st *State
}

// SalesID is the deterministic id of a day's bucket.
func SalesID(day models.Date) string {
	return "sale-" + string(day)
}

// Recalculate rebuilds the sales history from orders: served, non-archived
// orders grouped by the calendar day (in loc) they were served, ascending.
// Orders missing servedAt fall back to their creation time.
func Recalculate(orders []models.Order, loc *time.Location) []models.SalesHistoryEntry {
	byDay := map[models.Date]*models.SalesHistoryEntry{}
	for _, o := range orders {
		if o.Status != models.OrderStatusServed || o.Archived {
			continue
		}
		at := o.Timestamp
		if o.ServedAt != nil {
			at = *o.ServedAt
		}
		day := models.DateOf(at.In(loc))
		e, ok := byDay[day]
		if !ok {
			e = &models.SalesHistoryEntry{ID: SalesID(day), Date: day}
			byDay[day] = e
		}
		e.Total += nonNegative(o.Total)
		e.OrdersCount++
	}
	out := make([]models.SalesHistoryEntry, 0, len(byDay))
	for _, e := range byDay {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Accrue adds one order's amount to the day's bucket.
func (s *Sales) Accrue(amount float64, day models.Date) models.SalesHistoryEntry {
	var out models.SalesHistoryEntry
	_ = s.st.update(func() error {
		out = s.accrue(amount, day)
		return nil
	})
	return out
}

func (s *Sales) accrue(amount float64, day models.Date) models.SalesHistoryEntry {
	h := s.st.data.SalesHistory
	i := indexOf(h, string(day), func(e models.SalesHistoryEntry) string { return string(e.Date) })
	if i < 0 {
		s.st.data.SalesHistory = append(h, models.SalesHistoryEntry{ID: SalesID(day), Date: day})
		i = len(s.st.data.SalesHistory) - 1
	}
	e := &s.st.data.SalesHistory[i]
	e.Total += nonNegative(amount)
	e.OrdersCount++
	s.st.touch(KindSalesHistory, e.ID, OpUpsert)
	return *e
}

// RecalculateAll replaces the sales history with a rebuild from the current orders.
func (s *Sales) RecalculateAll() []models.SalesHistoryEntry {
	var out []models.SalesHistoryEntry
	_ = s.st.update(func() error {
		out = append(out, s.recalculate()...)
		return nil
	})
	return out
}

func (s *Sales) recalculate() []models.SalesHistoryEntry {
	next := Recalculate(s.st.data.Orders, s.st.loc)
	kept := map[string]bool{}
	for _, e := range next {
		kept[e.ID] = true
		s.st.touch(KindSalesHistory, e.ID, OpUpsert)
	}
	for _, e := range s.st.data.SalesHistory {
		if !kept[e.ID] {
			s.st.touch(KindSalesHistory, e.ID, OpDelete)
		}
	}
	s.st.data.SalesHistory = next
	return next
}

// History returns every bucket, oldest first.
func (s *Sales) History() []models.SalesHistoryEntry {
	var out []models.SalesHistoryEntry
	s.st.view(func() {
		out = append(out, s.st.data.SalesHistory...)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ForDay returns the day's bucket, or an empty one.
func (s *Sales) ForDay(day models.Date) models.SalesHistoryEntry {
	out := models.SalesHistoryEntry{ID: SalesID(day), Date: day}
	s.st.view(func() {
		for _, e := range s.st.data.SalesHistory {
			if e.Date == day {
				out = e
				return
			}
		}
	})
	return out
}

func (s *Sales) Today() models.SalesHistoryEntry {
	return s.ForDay(s.st.today())
}

func (s *Sales) Yesterday() models.SalesHistoryEntry {
	return s.ForDay(s.st.today().AddDays(-1))
}

// Range returns buckets with from <= date <= to, oldest first.
func (s *Sales) Range(from, to models.Date) []models.SalesHistoryEntry {
	var out []models.SalesHistoryEntry
	for _, e := range s.History() {
		if e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out
}
