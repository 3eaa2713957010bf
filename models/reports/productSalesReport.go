package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const TitleProductSales = "Product volume and average price per trade point"

type ProductSalesResponse struct {
	ProductId      int             `json:"productId"`
	ProductName    string          `json:"productName"`
	TradePointId   int             `json:"tradePointId"`
	TradePointName string          `json:"tradePointName"`
	TotalQty       int             `json:"totalQty"`
	AveragePrice   decimal.Decimal `json:"averagePrice"`
}

// GetProductSalesReport groups sales by (product, trade point), summing
// quantity and averaging unit price. productID narrows to one product when
// non-nil; minQty drops rows below the threshold.
func (r *Reports) GetProductSalesReport(ctx context.Context, productID *int, minQty int) ([]*ProductSalesResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "product_sales", started, map[string]any{"productId": productID})

	sql := `
SELECT
    s.product_id,
    COALESCE(p.name, ?) AS product_name,
    s.trade_point_id,
    COALESCE(tp.name, ?) AS trade_point_name,
    SUM(s.qty) AS total_qty,
    AVG(s.unit_price) AS average_price
FROM sales s
LEFT JOIN products p ON p.id = s.product_id
LEFT JOIN trade_points tp ON tp.id = s.trade_point_id
WHERE (? IS NULL OR s.product_id = ?)
GROUP BY s.product_id, p.name, s.trade_point_id, tp.name
HAVING total_qty >= ?
ORDER BY total_qty DESC, s.product_id, s.trade_point_id;
`
	var records []*ProductSalesResponse
	err := r.db.WithContext(ctx).
		Raw(sql, PlaceholderLabel, PlaceholderLabel, productID, productID, minQty).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*ProductSalesResponse{}
	}
	return records, nil
}
