package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/models"
)

// SaleRecorder validates and records point-of-sale transactions. The
// inventory decrement and the sale row are one atomic unit: a rejected
// decrement (strict mode) aborts before anything is written.
type SaleRecorder struct {
	db          *gorm.DB
	logger      *logrus.Logger
	stocks      *models.StockStore
	tradePoints *models.TradePointStore
}

func NewSaleRecorder(db *gorm.DB, logger *logrus.Logger) *SaleRecorder {
	return &SaleRecorder{
		db:          db,
		logger:      logger,
		stocks:      models.NewStockStore(db),
		tradePoints: models.NewTradePointStore(db),
	}
}

// ResolveSaleCustomer applies the walk-up rule: kiosks and stalls never
// record a customer, whatever the caller supplied.
func ResolveSaleCustomer(tradePointType models.TradePointType, customerID *int) *int {
	if !tradePointType.RecordsCustomer() {
		return nil
	}
	if customerID != nil && *customerID == 0 {
		return nil
	}
	return customerID
}

func (r *SaleRecorder) Record(ctx context.Context, input *models.NewSale) (*models.Sale, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	tradePoint, err := r.tradePoints.Get(ctx, input.TradePointId)
	if err != nil {
		return nil, err
	}
	if _, err := models.GetSeller(ctx, r.db, input.SellerId); err != nil {
		return nil, err
	}

	customerID := ResolveSaleCustomer(tradePoint.Type, input.CustomerId)
	if customerID != nil {
		if _, err := models.GetCustomer(ctx, r.db, *customerID); err != nil {
			return nil, err
		}
	}

	sale := models.Sale{
		TradePointId: input.TradePointId,
		SellerId:     input.SellerId,
		ProductId:    input.ProductId,
		CustomerId:   customerID,
		Qty:          input.Qty,
		UnitPrice:    input.UnitPrice,
		SaleDate:     input.SaleDate,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// strict mode: the decrement fails instead of driving stock negative,
		// and the failure aborts before the sale row exists
		if _, err := r.stocks.Adjust(ctx, tx, input.TradePointId, input.ProductId, -input.Qty, true); err != nil {
			return err
		}
		return tx.Create(&sale).Error
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"module":       "saleWorkflow",
		"saleId":       sale.ID,
		"tradePointId": sale.TradePointId,
		"productId":    sale.ProductId,
		"qty":          sale.Qty,
	}).Info("sale recorded")
	return &sale, nil
}

// Update corrects an existing sale and re-adjusts inventory in the same
// transaction: the original quantity is restored first, then the corrected
// quantity is taken strictly from the (possibly different) pair.
func (r *SaleRecorder) Update(ctx context.Context, id int, input *models.NewSale) (*models.Sale, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sale, err := models.GetSale(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	tradePoint, err := r.tradePoints.Get(ctx, input.TradePointId)
	if err != nil {
		return nil, err
	}
	customerID := ResolveSaleCustomer(tradePoint.Type, input.CustomerId)
	if customerID != nil {
		if _, err := models.GetCustomer(ctx, r.db, *customerID); err != nil {
			return nil, err
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.stocks.Adjust(ctx, tx, sale.TradePointId, sale.ProductId, sale.Qty, false); err != nil {
			return err
		}
		if _, err := r.stocks.Adjust(ctx, tx, input.TradePointId, input.ProductId, -input.Qty, true); err != nil {
			return err
		}
		return tx.Model(sale).Updates(map[string]interface{}{
			"TradePointId": input.TradePointId,
			"SellerId":     input.SellerId,
			"ProductId":    input.ProductId,
			"CustomerId":   customerID,
			"Qty":          input.Qty,
			"UnitPrice":    input.UnitPrice,
			"SaleDate":     input.SaleDate,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return models.GetSale(ctx, r.db, id)
}

// Delete removes a sale and restores the quantity it had taken.
func (r *SaleRecorder) Delete(ctx context.Context, id int) (*models.Sale, error) {
	sale, err := models.GetSale(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.stocks.Adjust(ctx, tx, sale.TradePointId, sale.ProductId, sale.Qty, false); err != nil {
			return err
		}
		return tx.Delete(sale).Error
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}
