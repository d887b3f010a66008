package database

import (
	"cafe-stock/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.StockMovement{},
		&model.Subscription{},
		&model.Payment{},
		&model.InvoiceProfile{},
	)
}
