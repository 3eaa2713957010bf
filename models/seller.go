package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

type Seller struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	TradePointId int             `gorm:"index;not null" json:"trade_point_id"`
	Salary       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"salary"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSeller(ctx context.Context, db *gorm.DB, id int) (*Seller, error) {
	var seller Seller
	err := db.WithContext(ctx).Where("id = ?", id).First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &seller, nil
}

func ListSellersByTradePoint(ctx context.Context, db *gorm.DB, tradePointID int) ([]*Seller, error) {
	var results []*Seller
	err := db.WithContext(ctx).
		Where("trade_point_id = ?", tradePointID).
		Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
