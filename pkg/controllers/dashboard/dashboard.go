package dashboard

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

// now is swapped in tests.
var now = time.Now

// period reads the from/to query (YYYY-MM-DD, inclusive), defaulting to the
// last seven business days.
func period(c *gin.Context) (from, to models.Date, ok bool) {
	today := models.DateOf(now().In(config.BusinessLocation()))
	from, to = today.AddDays(-6), today

	var err error
	if s := c.Query("from"); s != "" {
		if from, err = models.ParseDate(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "from must be YYYY-MM-DD"})
			return "", "", false
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = models.ParseDate(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "to must be YYYY-MM-DD"})
			return "", "", false
		}
	}
	if to < from {
		c.JSON(http.StatusBadRequest, gin.H{"message": "to must not be before from"})
		return "", "", false
	}
	return from, to, true
}

// bounds turns an inclusive day range into a half-open time window.
func bounds(from, to models.Date) (time.Time, time.Time) {
	loc := config.BusinessLocation()
	start, _ := from.In(loc)
	end, _ := to.AddDays(1).In(loc)
	return start, end
}

// GetDashboardOverview returns today's figures: sales, active orders,
// stock health and who is on shift.
func GetDashboardOverview(c *gin.Context) {
	loc := config.BusinessLocation()
	at := now().In(loc)
	today := models.DateOf(at)
	start, end := bounds(today, today)

	var snap models.Snapshot
	if err := database.DB.Where("archived = ?", false).Find(&snap.Inventory).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	if err := database.DB.Where("archived = ? AND (status <> ? OR timestamp >= ?)", false, models.OrderStatusServed, start).Find(&snap.Orders).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	if err := database.DB.Find(&snap.Users).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	if err := database.DB.Where("timestamp >= ? AND timestamp < ?", start, end).Find(&snap.AttendanceLogs).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	if err := database.DB.Where("status = ?", models.RequestStatusApproved).Find(&snap.Requests).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	if err := database.DB.Where("date >= ?", today.AddDays(-1)).Find(&snap.SalesHistory).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	eng := engine.New(engine.WithLocation(loc), engine.WithClock(clock.Fixed(at)))
	eng.Load(snap)

	c.JSON(http.StatusOK, gin.H{
		"today":      eng.Sales.Today(),
		"yesterday":  eng.Sales.Yesterday(),
		"orders":     eng.Orders.Stats(),
		"inventory":  eng.Inventory.Stats(),
		"lowStock":   eng.Inventory.LowStock(),
		"expiring":   eng.Inventory.ExpiringWithin(engine.ExpiringSoonDays),
		"attendance": eng.Attendance.Snapshot(),
	})
}

// GetRevenueTrend returns one point per day of the period, zero-filled.
func GetRevenueTrend(c *gin.Context) {
	from, to, ok := period(c)
	if !ok {
		return
	}

	var entries []models.SalesHistoryEntry
	if err := database.DB.Where("date >= ? AND date <= ?", from, to).Order("date").Find(&entries).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	byDay := make(map[models.Date]models.SalesHistoryEntry, len(entries))
	for _, e := range entries {
		byDay[e.Date] = e
	}

	result := []gin.H{}
	for d := from; d <= to; d = d.AddDays(1) {
		e := byDay[d]
		result = append(result, gin.H{"date": d, "revenue": e.Total, "orders": e.OrdersCount})
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderStatusDistribution returns order counts by status for the period.
func GetOrderStatusDistribution(c *gin.Context) {
	from, to, ok := period(c)
	if !ok {
		return
	}
	start, end := bounds(from, to)

	type StatusCount struct {
		Status models.OrderStatus
		Count  int64
	}
	var statusCounts []StatusCount
	if err := database.DB.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("timestamp >= ? AND timestamp < ? AND archived = ?", start, end, false).
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	result := gin.H{
		string(models.OrderStatusPending):   int64(0),
		string(models.OrderStatusPreparing): int64(0),
		string(models.OrderStatusReady):     int64(0),
		string(models.OrderStatusServed):    int64(0),
	}
	for _, sc := range statusCounts {
		if sc.Status.Valid() {
			result[string(sc.Status)] = sc.Count
		}
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderTypeDistribution returns dine-in, takeout and delivery counts for the period.
func GetOrderTypeDistribution(c *gin.Context) {
	from, to, ok := period(c)
	if !ok {
		return
	}
	start, end := bounds(from, to)

	type TypeCount struct {
		OrderType models.OrderType
		Count     int64
	}
	var typeCounts []TypeCount
	if err := database.DB.Model(&models.Order{}).
		Select("order_type, COUNT(*) as count").
		Where("timestamp >= ? AND timestamp < ? AND archived = ?", start, end, false).
		Group("order_type").
		Scan(&typeCounts).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	result := gin.H{
		string(models.OrderTypeDineIn):   int64(0),
		string(models.OrderTypeTakeout):  int64(0),
		string(models.OrderTypeDelivery): int64(0),
	}
	for _, tc := range typeCounts {
		key := string(models.NormalizeOrderType(string(tc.OrderType)))
		result[key] = result[key].(int64) + tc.Count
	}

	c.JSON(http.StatusOK, result)
}

// TopItem is one row of the best sellers.
type TopItem struct {
	Name    string  `json:"name"`
	ItemID  string  `json:"itemId,omitempty"`
	Qty     float64 `json:"qty"`
	Revenue float64 `json:"revenue"`
}

// GetTopSellingItems returns the five best selling lines of served orders in the period.
func GetTopSellingItems(c *gin.Context) {
	from, to, ok := period(c)
	if !ok {
		return
	}
	start, end := bounds(from, to)

	var orders []models.Order
	if err := database.DB.Select("id, items_json").
		Where("served_at >= ? AND served_at < ? AND status = ? AND archived = ?", start, end, models.OrderStatusServed, false).
		Find(&orders).Error; err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, TopSelling(orders, 5))
}

// TopSelling tallies order lines by item (custom lines by name), best sellers first.
func TopSelling(orders []models.Order, n int) []TopItem {
	tally := map[string]*TopItem{}
	for _, o := range orders {
		for _, l := range o.Lines {
			key := "name:" + l.Name
			if l.ItemID != "" {
				key = "item:" + l.ItemID
			}
			t, ok := tally[key]
			if !ok {
				t = &TopItem{Name: l.Name, ItemID: l.ItemID}
				tally[key] = t
			}
			t.Qty += l.Qty
			t.Revenue += l.Subtotal
		}
	}

	out := make([]TopItem, 0, len(tally))
	for _, t := range tally {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Qty != out[j].Qty {
			return out[i].Qty > out[j].Qty
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
