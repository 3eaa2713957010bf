package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/models"
	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

// FulfillmentEngine owns the single forward transition of a supplier order:
// placed -> received. Receiving replays every consumed request's lines into
// the destination trade points' stock. Received is terminal.
type FulfillmentEngine struct {
	db     *gorm.DB
	logger *logrus.Logger
	redis  *config.RedisStore
	stocks *models.StockStore
}

func NewFulfillmentEngine(db *gorm.DB, logger *logrus.Logger, redis *config.RedisStore) *FulfillmentEngine {
	return &FulfillmentEngine{
		db:     db,
		logger: logger,
		redis:  redis,
		stocks: models.NewStockStore(db),
	}
}

// Receive marks the order received and credits its quantities into
// trade-point inventory, as one transaction.
//
// Exactly-once is carried by the conditional flag flip: the UPDATE only
// matches while received is still false (or NULL on legacy rows), and the
// line replay commits atomically with it. The MySQL advisory lock serializes
// concurrent receipts of the same order so the loser fails fast on the guard
// instead of blocking on row locks; the redis lock is a best-effort
// cross-instance optimization and correctness never depends on it.
func (e *FulfillmentEngine) Receive(ctx context.Context, orderID int) error {
	if e.redis != nil && e.redis.Locker != nil {
		lock, err := e.redis.Locker.Obtain(ctx, fmt.Sprintf("receive:order:%d", orderID), 30*time.Second, nil)
		if err == nil {
			defer lock.Release(context.WithoutCancel(ctx))
		} else if err != redislock.ErrNotObtained {
			config.LogError(e.logger, "fulfillmentWorkflow.go", "Receive", "redislock", orderID, err)
		}
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := acquireOrderReceiptLock(tx, orderID); err != nil {
			return err
		}
		defer releaseOrderReceiptLock(tx, orderID)

		result := tx.Model(&models.SupplierOrder{}).
			Where("id = ? AND (received = ? OR received IS NULL)", orderID, false).
			Update("received", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.SupplierOrder{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return utils.ErrNotFound
			}
			return utils.ErrAlreadyReceived
		}

		var relations []models.SupplierOrderRequest
		if err := tx.Where("supplier_order_id = ?", orderID).Find(&relations).Error; err != nil {
			return err
		}
		for _, relation := range relations {
			var request models.StockRequest
			if err := tx.Preload("Lines").Where("id = ?", relation.StockRequestId).First(&request).Error; err != nil {
				return err
			}
			for _, line := range request.Lines {
				// replenishment mode: crediting stock can never go negative
				if _, err := e.stocks.Adjust(ctx, tx, request.TradePointId, line.ProductId, line.Qty, false); err != nil {
					return err
				}
			}
		}

		e.logger.WithFields(logrus.Fields{
			"module":  "fulfillmentWorkflow",
			"orderId": orderID,
		}).Info("supplier order received and distributed")
		return nil
	})
}

// acquireOrderReceiptLock serializes receipts per order across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must run on the same *gorm.DB
// that performs the receipt transaction.
func acquireOrderReceiptLock(tx *gorm.DB, orderID int) error {
	lockName := fmt.Sprintf("receive:%d", orderID)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire receipt lock for order_id=%d", orderID)
	}
	return nil
}

func releaseOrderReceiptLock(tx *gorm.DB, orderID int) {
	lockName := fmt.Sprintf("receive:%d", orderID)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
