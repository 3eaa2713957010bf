package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

// StockRequest is a trade point's declaration of desired restock quantities.
// Consumed requests have been pulled into a supplier order and are no longer
// offered for consolidation; the flag prevents the same request from feeding
// two orders.
type StockRequest struct {
	ID           int                `gorm:"primary_key" json:"id"`
	TradePointId int                `gorm:"index;not null" json:"trade_point_id"`
	RequestDate  time.Time          `gorm:"not null" json:"request_date"`
	Consumed     *bool              `gorm:"not null;default:false;index" json:"consumed"`
	Lines        []StockRequestLine `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt    time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type StockRequestLine struct {
	ID             int `gorm:"primary_key" json:"id"`
	StockRequestId int `gorm:"index;not null" json:"stock_request_id"`
	ProductId      int `gorm:"index;not null" json:"product_id"`
	Qty            int `gorm:"not null" json:"qty"`
}

type NewStockRequest struct {
	TradePointId int                   `json:"trade_point_id" binding:"required"`
	RequestDate  time.Time             `json:"request_date" binding:"required"`
	Lines        []NewStockRequestLine `json:"lines" binding:"required"`
}

type NewStockRequestLine struct {
	ProductId int `json:"product_id" binding:"required"`
	Qty       int `json:"qty" binding:"required"`
}

// ValidateRequestLines rejects an empty line list and non-positive quantities.
func ValidateRequestLines(lines []NewStockRequestLine) error {
	if len(lines) == 0 {
		return utils.NewValidationError("lines", "at least one line is required")
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			return utils.NewValidationError("lines", "quantity must be positive")
		}
		if line.ProductId <= 0 {
			return utils.NewValidationError("lines", "product id is required")
		}
	}
	return nil
}

// RequestLedger owns trade-point stock requests.
type RequestLedger struct {
	db *gorm.DB
}

func NewRequestLedger(db *gorm.DB) *RequestLedger {
	return &RequestLedger{db: db}
}

func (l *RequestLedger) Create(ctx context.Context, input *NewStockRequest) (*StockRequest, error) {
	if err := ValidateRequestLines(input.Lines); err != nil {
		return nil, err
	}

	// originating trade point must resolve
	var count int64
	if err := l.db.WithContext(ctx).Model(&TradePoint{}).
		Where("id = ?", input.TradePointId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, utils.ErrNotFound
	}

	request := StockRequest{
		TradePointId: input.TradePointId,
		RequestDate:  input.RequestDate,
		Consumed:     utils.NewFalse(),
	}
	for _, line := range input.Lines {
		request.Lines = append(request.Lines, StockRequestLine{
			ProductId: line.ProductId,
			Qty:       line.Qty,
		})
	}

	// db action
	if err := l.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ListPending returns requests not yet consumed by any order; this backs the
// order-creation picker.
func (l *RequestLedger) ListPending(ctx context.Context) ([]*StockRequest, error) {
	var results []*StockRequest
	err := l.db.WithContext(ctx).
		Preload("Lines").
		Where("consumed = ?", false).
		Order("request_date, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (l *RequestLedger) Get(ctx context.Context, id int) (*StockRequest, error) {
	var request StockRequest
	err := l.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}
