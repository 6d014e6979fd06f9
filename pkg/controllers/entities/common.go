package entities

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sweetbox/pkg/config"
	"sweetbox/pkg/controllers/state"
	"sweetbox/pkg/database"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// bindBody decodes the JSON body into rec, answering 400 on failure.
func bindBody(c *gin.Context, rec interface{}) bool {
	if err := c.ShouldBindJSON(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}

// validationFailed answers an engine validation error and reports whether it did.
func validationFailed(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	utils.EngineErrorResponse(c, err)
	return true
}

// saveRecord upserts rec in a transaction, running after inside it.
func saveRecord(c *gin.Context, rec interface{}, after func(tx *gorm.DB) error, omit ...string) bool {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.Upsert(tx, rec, omit...); err != nil {
			return err
		}
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return false
	}
	return true
}

// deleteRecord removes the row with the path id. A missing row is not an
// error: 404 means "no such endpoint" to sync clients.
func deleteRecord(c *gin.Context, model interface{}, label string, after func(tx *gorm.DB) error) {
	id := c.Param("id")
	var affected int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		utils.InternalServerErrorResponse(c, err)
		return
	}
	state.AfterWrite(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{"message": label + " deleted", "id": id, "deleted": affected > 0})
}

func rederiveSales(tx *gorm.DB) error {
	_, err := database.RederiveSales(tx, config.BusinessLocation())
	return err
}

// dayRange turns optional from/to query dates into an inclusive time window.
func dayRange(c *gin.Context) (from, to *time.Time, ok bool) {
	loc := config.BusinessLocation()
	if s := c.Query("from"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "from must be YYYY-MM-DD"})
			return nil, nil, false
		}
		t, _ := d.In(loc)
		from = &t
	}
	if s := c.Query("to"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "to must be YYYY-MM-DD"})
			return nil, nil, false
		}
		t, _ := d.AddDays(1).In(loc)
		to = &t
	}
	return from, to, true
}
