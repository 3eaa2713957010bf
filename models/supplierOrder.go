package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

// SupplierOrder consolidates one or more stock requests into a purchase
// order addressed to one supplier. Received is the terminal flag: once true
// the order's inventory effects have been applied exactly once and the order
// must never be replayed. Rows migrated from the legacy store may carry NULL
// here, which means "not yet received".
type SupplierOrder struct {
	ID              int                    `gorm:"primary_key" json:"id"`
	SupplierId      int                    `gorm:"index;not null" json:"supplier_id"`
	OrderDate       time.Time              `gorm:"not null" json:"order_date"`
	Received        *bool                  `gorm:"index;default:false" json:"received"`
	RelatedRequests []SupplierOrderRequest `gorm:"constraint:OnDelete:CASCADE" json:"related_requests"`
	Lines           []SupplierOrderLine    `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *SupplierOrder) IsReceived() bool {
	return o.Received != nil && *o.Received
}

// SupplierOrderRequest links an order to one of the requests it consumed.
type SupplierOrderRequest struct {
	ID              int `gorm:"primary_key" json:"id"`
	SupplierOrderId int `gorm:"index;not null" json:"supplier_order_id"`
	StockRequestId  int `gorm:"index;not null" json:"stock_request_id"`
}

// SupplierOrderLine is the ordered-quantity snapshot taken at consolidation
// time, summed per product across the consumed requests. Fulfillment replays
// the request lines (which carry the destination trade point); this snapshot
// is what the supplier sees.
type SupplierOrderLine struct {
	ID              int `gorm:"primary_key" json:"id"`
	SupplierOrderId int `gorm:"index;not null" json:"supplier_order_id"`
	ProductId       int `gorm:"index;not null" json:"product_id"`
	Qty             int `gorm:"not null" json:"qty"`
}

type NewSupplierOrder struct {
	SupplierId int       `json:"supplier_id" binding:"required"`
	OrderDate  time.Time `json:"order_date" binding:"required"`
	RequestIds []int     `json:"request_ids" binding:"required"`
}

// OrderLedger owns supplier orders.
type OrderLedger struct {
	db *gorm.DB
}

func NewOrderLedger(db *gorm.DB) *OrderLedger {
	return &OrderLedger{db: db}
}

// Create consolidates the selected requests into one order. Within a single
// transaction it snapshots the ordered lines, stubs catalog entries for
// products the catalog does not know yet, and marks the requests consumed.
// The consumed flip is conditional, so a request racing into two orders can
// only land in one.
func (l *OrderLedger) Create(ctx context.Context, input *NewSupplierOrder) (*SupplierOrder, error) {
	requestIds := utils.UniqueSlice(input.RequestIds)
	if len(requestIds) == 0 {
		return nil, utils.ErrEmptySelection
	}

	if _, err := GetSupplier(ctx, l.db, input.SupplierId); err != nil {
		return nil, err
	}

	var order *SupplierOrder
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var requests []*StockRequest
		if err := tx.Preload("Lines").Where("id IN ?", requestIds).Find(&requests).Error; err != nil {
			return err
		}
		if len(requests) != len(requestIds) {
			return utils.ErrNotFound
		}

		// Sum ordered quantities per product across all consumed requests.
		qtyByProduct := make(map[int]int)
		for _, request := range requests {
			for _, line := range request.Lines {
				if err := ensurePlaceholderProduct(tx, line.ProductId, input.SupplierId); err != nil {
					return err
				}
				qtyByProduct[line.ProductId] += line.Qty
			}
		}
		productIds := make([]int, 0, len(qtyByProduct))
		for productId := range qtyByProduct {
			productIds = append(productIds, productId)
		}
		sort.Ints(productIds)

		order = &SupplierOrder{
			SupplierId: input.SupplierId,
			OrderDate:  input.OrderDate,
			Received:   utils.NewFalse(),
		}
		for _, requestId := range requestIds {
			order.RelatedRequests = append(order.RelatedRequests, SupplierOrderRequest{StockRequestId: requestId})
		}
		for _, productId := range productIds {
			order.Lines = append(order.Lines, SupplierOrderLine{ProductId: productId, Qty: qtyByProduct[productId]})
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		result := tx.Model(&StockRequest{}).
			Where("id IN ? AND consumed = ?", requestIds, false).
			Update("consumed", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(requestIds)) {
			return utils.NewValidationError("request_ids", "request already consumed by another order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListUnreceived returns orders whose received flag is false or absent
// (legacy rows predate the flag).
func (l *OrderLedger) ListUnreceived(ctx context.Context) ([]*SupplierOrder, error) {
	var results []*SupplierOrder
	err := l.db.WithContext(ctx).
		Preload("RelatedRequests").Preload("Lines").
		Where("received = ? OR received IS NULL", false).
		Order("order_date, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (l *OrderLedger) Get(ctx context.Context, id int) (*SupplierOrder, error) {
	var order SupplierOrder
	err := l.db.WithContext(ctx).
		Preload("RelatedRequests").Preload("Lines").
		Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}
