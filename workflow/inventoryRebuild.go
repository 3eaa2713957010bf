package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/models"
)

// StockDrift is one (trade point, product) pair whose stored quantity does
// not equal the ledger-derived quantity: the sum of all received-order
// credits minus the sum of all surviving sale debits.
type StockDrift struct {
	TradePointId int `json:"trade_point_id"`
	ProductId    int `json:"product_id"`
	StoredQty    int `json:"stored_qty"`
	ExpectedQty  int `json:"expected_qty"`
}

const stockDriftSQL = `
WITH Received AS (
    SELECT sr.trade_point_id, srl.product_id, SUM(srl.qty) AS qty
    FROM supplier_order_requests sor
    JOIN supplier_orders so ON so.id = sor.supplier_order_id AND so.received = 1
    JOIN stock_requests sr ON sr.id = sor.stock_request_id
    JOIN stock_request_lines srl ON srl.stock_request_id = sr.id
    GROUP BY sr.trade_point_id, srl.product_id
),
Sold AS (
    SELECT trade_point_id, product_id, SUM(qty) AS qty
    FROM sales
    GROUP BY trade_point_id, product_id
),
Keys AS (
    SELECT trade_point_id, product_id FROM Received
    UNION
    SELECT trade_point_id, product_id FROM Sold
    UNION
    SELECT trade_point_id, product_id FROM trade_point_stocks
)
SELECT
    k.trade_point_id,
    k.product_id,
    COALESCE(st.qty, 0) AS stored_qty,
    COALESCE(r.qty, 0) - COALESCE(s.qty, 0) AS expected_qty
FROM Keys k
LEFT JOIN Received r ON r.trade_point_id = k.trade_point_id AND r.product_id = k.product_id
LEFT JOIN Sold s ON s.trade_point_id = k.trade_point_id AND s.product_id = k.product_id
LEFT JOIN trade_point_stocks st ON st.trade_point_id = k.trade_point_id AND st.product_id = k.product_id
HAVING stored_qty <> expected_qty
ORDER BY k.trade_point_id, k.product_id;
`

// RebuildInventory lists every drifted pair; with apply=true it also rewrites
// the stored quantities to the ledger-derived values in one transaction.
// Stop writers before running with apply: the rewrite is a plain overwrite,
// not an adjustment.
func RebuildInventory(ctx context.Context, db *gorm.DB, logger *logrus.Logger, apply bool) ([]*StockDrift, error) {
	var drifts []*StockDrift
	if err := db.WithContext(ctx).Raw(stockDriftSQL).Scan(&drifts).Error; err != nil {
		return nil, err
	}
	if len(drifts) == 0 || !apply {
		return drifts, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, drift := range drifts {
			result := tx.Model(&models.TradePointStock{}).
				Where("trade_point_id = ? AND product_id = ?", drift.TradePointId, drift.ProductId).
				Update("qty", drift.ExpectedQty)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				stock := models.TradePointStock{
					TradePointId: drift.TradePointId,
					ProductId:    drift.ProductId,
					Qty:          drift.ExpectedQty,
				}
				if err := tx.Create(&stock).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"module": "inventoryRebuild",
		"pairs":  len(drifts),
	}).Warn("stock drift repaired from ledger")
	return drifts, nil
}
