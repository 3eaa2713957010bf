package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&TradePoint{},
		&Seller{},
		&Supplier{},
		&Customer{},
		&Product{},
		&ProductSupplier{},
		&ProductPrice{},
		&TradePointStock{},
		&StockRequest{},
		&StockRequestLine{},
		&SupplierOrder{},
		&SupplierOrderRequest{},
		&SupplierOrderLine{},
		&Sale{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}
