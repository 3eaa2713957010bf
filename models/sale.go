package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

// Sale is one point-of-sale transaction. CustomerId is nil for sales at
// kiosks and stalls regardless of caller input.
type Sale struct {
	ID           int             `gorm:"primary_key" json:"id"`
	TradePointId int             `gorm:"index;not null" json:"trade_point_id"`
	SellerId     int             `gorm:"index;not null" json:"seller_id"`
	ProductId    int             `gorm:"index;not null" json:"product_id"`
	CustomerId   *int            `gorm:"index" json:"customer_id"`
	Qty          int             `gorm:"not null" json:"qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	SaleDate     time.Time       `gorm:"index;not null" json:"sale_date"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	TradePointId int             `json:"trade_point_id" binding:"required"`
	SellerId     int             `json:"seller_id" binding:"required"`
	ProductId    int             `json:"product_id" binding:"required"`
	CustomerId   *int            `json:"customer_id"`
	Qty          int             `json:"qty" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleDate     time.Time       `json:"sale_date" binding:"required"`
}

// Validate covers the caller-input rules; referential checks happen in the
// recorder where the trade point is resolved.
func (input *NewSale) Validate() error {
	if input.Qty <= 0 {
		return utils.NewValidationError("qty", "quantity must be a positive integer")
	}
	if input.UnitPrice.IsNegative() {
		return utils.NewValidationError("unit_price", "unit price must not be negative")
	}
	return nil
}

// SaleFilter narrows ListSales; nil fields match everything.
type SaleFilter struct {
	TradePointId *int
	SellerId     *int
	FromDate     *time.Time
	ToDate       *time.Time
}

func GetSale(ctx context.Context, db *gorm.DB, id int) (*Sale, error) {
	var sale Sale
	err := db.WithContext(ctx).Where("id = ?", id).First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func ListSales(ctx context.Context, db *gorm.DB, filter *SaleFilter) ([]*Sale, error) {
	dbCtx := db.WithContext(ctx)
	if filter != nil {
		if filter.TradePointId != nil {
			dbCtx = dbCtx.Where("trade_point_id = ?", *filter.TradePointId)
		}
		if filter.SellerId != nil {
			dbCtx = dbCtx.Where("seller_id = ?", *filter.SellerId)
		}
		if filter.FromDate != nil {
			dbCtx = dbCtx.Where("sale_date >= ?", utils.StartOfDay(*filter.FromDate))
		}
		if filter.ToDate != nil {
			dbCtx = dbCtx.Where("sale_date <= ?", utils.EndOfDay(*filter.ToDate))
		}
	}
	var results []*Sale
	if err := dbCtx.Order("sale_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
