package main

import (
	"errors"
	"log"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

type seedUser struct {
	ID         string
	Name       string
	Role       string
	Permission models.Permission
	ShiftStart string
	PIN        string
}

var roster = []seedUser{
	{ID: "u-admin", Name: "Owner", Role: "Owner", Permission: models.PermissionAdmin, PIN: "1234"},
	{ID: "u-kitchen", Name: "Kitchen Lead", Role: "Baker", Permission: models.PermissionKitchenStaff, ShiftStart: "06:00", PIN: "2345"},
	{ID: "u-front", Name: "Front Counter", Role: "Cashier", Permission: models.PermissionFrontStaff, ShiftStart: "08:00", PIN: "3456"},
	{ID: "u-stock", Name: "Stock Keeper", Role: "Inventory", Permission: models.PermissionInventoryManager, ShiftStart: "07:30", PIN: "4567"},
}

var stock = []models.InventoryItem{
	{ID: "inv-choc-cake", Name: "Chocolate Cake", Category: models.CategoryCakes, Quantity: 12, Unit: "pieces", Cost: 4.5, ReorderPoint: 4},
	{ID: "inv-cheesecake", Name: "Cheesecake", Category: models.CategoryCakes, Quantity: 8, Unit: "pieces", Cost: 5, ReorderPoint: 3},
	{ID: "inv-flour", Name: "Flour", Category: models.CategoryIngredients, Quantity: 25, Unit: "kg", Cost: 1.2, ReorderPoint: 10},
	{ID: "inv-milk", Name: "Milk", Category: models.CategoryIngredients, Quantity: 10, Unit: "liters", Cost: 0.9, ReorderPoint: 5},
	{ID: "inv-boxes", Name: "Cake Boxes", Category: models.CategorySupplies, Quantity: 150, Unit: "pieces", Cost: 0.3, ReorderPoint: 40},
	{ID: "inv-latte", Name: "Latte", Category: models.CategoryBeverages, Quantity: 30, Unit: "cups", Cost: 1.1, ReorderPoint: 10},
}

func main() {
	// Load configuration
	config.LoadConfig()

	if err := logger.Init(config.AppConfig.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.CloseDatabase()

	if err := database.AutoMigrate(); err != nil {
		logger.Log.Fatal("Failed to migrate", zap.Error(err))
	}

	seedUsers()
	seedInventory()
}

func seedUsers() {
	today := models.DateOf(time.Now().In(config.BusinessLocation()))

	for _, s := range roster {
		var existing models.User
		err := database.DB.Where("id = ?", s.ID).First(&existing).Error
		if err == nil {
			logger.Log.Info("User already exists", zap.String("id", s.ID))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Fatal("Failed to look up user", zap.String("id", s.ID), zap.Error(err))
		}

		user, err := newUser(s, today)
		if err != nil {
			logger.Log.Fatal("Failed to build user", zap.String("id", s.ID), zap.Error(err))
		}

		if err := database.DB.Create(&user).Error; err != nil {
			logger.Log.Fatal("Failed to create user", zap.String("id", s.ID), zap.Error(err))
		}
		logger.Log.Info("✅ User created", zap.String("id", s.ID), zap.String("permission", string(s.Permission)))
	}
}

// newUser turns a roster entry into a row with a hashed PIN.
func newUser(s seedUser, today models.Date) (models.User, error) {
	if err := utils.ValidatePIN(s.PIN); err != nil {
		return models.User{}, err
	}
	hash, err := utils.HashPIN(s.PIN)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:         s.ID,
		Name:       s.Name,
		Role:       s.Role,
		Permission: s.Permission,
		PinHash:    &hash,
		HireDate:   &today,
		Status:     models.UserStatusActive,
	}
	if s.ShiftStart != "" {
		shift := s.ShiftStart
		user.ShiftStart = &shift
	}
	return user, nil
}

func seedInventory() {
	if err := database.Upsert(database.DB, &stock); err != nil {
		logger.Log.Fatal("Failed to seed inventory", zap.Error(err))
	}
	logger.Log.Info("✅ Inventory seeded", zap.Int("items", len(stock)))
}
