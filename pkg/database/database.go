package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sweetbox/pkg/config"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
)

var DB *gorm.DB

// InitDatabase initializes the database connection
func InitDatabase() error {
	var err error

	gormConfig := &gorm.Config{
		PrepareStmt: false,
	}

	// Development mode - verbose logging
	if config.IsDevelopment() {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	} else {
		// Production mode - only errors
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	// Connect to PostgreSQL with implicit prepared statements disabled
	DB, err = gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.AppConfig.DatabaseURL,
		PreferSimpleProtocol: true, // avoids "prepared statement already exists" behind poolers
	}), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	logger.Log.Info("✅ Database connection established")

	return nil
}

// AutoMigrate creates or updates every table of the state tree.
func AutoMigrate() error {
	logger.Log.Info("🔄 Running database migrations...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.InventoryItem{},
		&models.Order{},
		&models.AttendanceLog{},
		&models.LeaveRequest{},
		&models.SalesHistoryEntry{},
		&models.InventoryUsageLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("✅ Database migrations completed")

	createIndexes()

	return nil
}

// createIndexes adds the composite indexes the state queries filter on.
func createIndexes() {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_timestamp ON orders (timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_served_at ON orders (status, served_at) WHERE archived = false`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_employee_timestamp ON attendance_logs (employee_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_item_timestamp ON inventory_usage_logs (inventory_item_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_employee_status ON requests (employee_id, status)`,
	}
	for _, stmt := range statements {
		if err := DB.Exec(stmt).Error; err != nil {
			logger.Log.Warn("⚠️ Failed to create index", zap.String("sql", stmt), zap.Error(err))
		}
	}
	logger.Log.Info("✅ Additional indexes created")
}

// CloseDatabase closes the database connection
func CloseDatabase() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		logger.Log.Error("Error getting database instance", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Log.Error("Error closing database", zap.Error(err))
	} else {
		logger.Log.Info("✅ Database connection closed")
	}
}
