package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

// TradePointStock is one on-hand quantity for a (trade point, product) pair.
// The pair is the unit of atomicity: every mutation is a single SQL UPDATE,
// so concurrent adjustments on the same pair are linearized by the store.
type TradePointStock struct {
	ID           int       `gorm:"primary_key" json:"id"`
	TradePointId int       `gorm:"not null;uniqueIndex:idx_trade_point_product" json:"trade_point_id"`
	ProductId    int       `gorm:"not null;uniqueIndex:idx_trade_point_product" json:"product_id"`
	Qty          int       `gorm:"not null;default:0" json:"qty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockStore holds per-trade-point, per-product stock counts.
type StockStore struct {
	db *gorm.DB
}

func NewStockStore(db *gorm.DB) *StockStore {
	return &StockStore{db: db}
}

// Adjust applies delta to the pair's quantity, creating the row at 0 first
// when absent. strict forbids crossing zero (sale decrements); replenishment
// callers pass strict=false and can never fail this way.
//
// The arithmetic happens in SQL, never read-modify-write in Go. In strict
// mode the guard rides on the UPDATE itself (qty + delta >= 0), so two
// concurrent sales cannot both pass a stale check.
//
// tx may be an open transaction so callers can make the adjustment part of a
// larger atomic unit; pass nil to run against the store's own handle.
func (s *StockStore) Adjust(ctx context.Context, tx *gorm.DB, tradePointID, productID, delta int, strict bool) (int, error) {
	if tx == nil {
		tx = s.db
	}
	tx = tx.WithContext(ctx)

	// Ensure the row exists; a no-op on conflict keeps this idempotent.
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&TradePointStock{TradePointId: tradePointID, ProductId: productID, Qty: 0}).Error
	if err != nil {
		return 0, err
	}

	update := tx.Model(&TradePointStock{}).
		Where("trade_point_id = ? AND product_id = ?", tradePointID, productID)
	if strict && delta < 0 {
		update = update.Where("qty + ? >= 0", delta)
	}
	result := update.Update("qty", gorm.Expr("qty + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		// The row exists (ensured above), so the strict guard rejected it.
		return 0, utils.ErrInsufficientStock
	}

	return s.get(ctx, tx, tradePointID, productID)
}

// Get returns the current quantity, defaulting to 0 when no row exists.
func (s *StockStore) Get(ctx context.Context, tradePointID, productID int) (int, error) {
	return s.get(ctx, s.db, tradePointID, productID)
}

func (s *StockStore) get(ctx context.Context, tx *gorm.DB, tradePointID, productID int) (int, error) {
	var stock TradePointStock
	err := tx.WithContext(ctx).
		Where("trade_point_id = ? AND product_id = ?", tradePointID, productID).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return stock.Qty, nil
}

// Snapshot returns the full product -> quantity mapping for one trade point.
func (s *StockStore) Snapshot(ctx context.Context, tradePointID int) (map[int]int, error) {
	var rows []TradePointStock
	err := s.db.WithContext(ctx).
		Where("trade_point_id = ?", tradePointID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	snapshot := make(map[int]int, len(rows))
	for _, row := range rows {
		snapshot[row.ProductId] = row.Qty
	}
	return snapshot, nil
}
