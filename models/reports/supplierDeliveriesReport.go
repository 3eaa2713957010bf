package reports

import (
	"context"
	"time"
)

const TitleSupplierDeliveries = "Supplier deliveries for a product"

type SupplierDeliveryResponse struct {
	OrderId      int       `json:"orderId"`
	OrderDate    time.Time `json:"orderDate"`
	SupplierId   int       `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	TotalQty     int       `json:"totalQty"`
}

// GetSupplierDeliveriesReport walks received orders through their consumed
// requests and sums the delivered quantity of one product per order.
func (r *Reports) GetSupplierDeliveriesReport(ctx context.Context, productID int, minQty int) ([]*SupplierDeliveryResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "supplier_deliveries", started, map[string]any{"productId": productID})

	sql := `
SELECT
    so.id AS order_id,
    so.order_date,
    so.supplier_id,
    COALESCE(sup.name, ?) AS supplier_name,
    SUM(srl.qty) AS total_qty
FROM supplier_orders so
JOIN supplier_order_requests sor ON sor.supplier_order_id = so.id
JOIN stock_request_lines srl ON srl.stock_request_id = sor.stock_request_id
LEFT JOIN suppliers sup ON sup.id = so.supplier_id
WHERE so.received = 1
  AND srl.product_id = ?
GROUP BY so.id, so.order_date, so.supplier_id, sup.name
HAVING total_qty >= ?
ORDER BY so.order_date, so.id;
`
	var records []*SupplierDeliveryResponse
	err := r.db.WithContext(ctx).
		Raw(sql, PlaceholderLabel, productID, minQty).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*SupplierDeliveryResponse{}
	}
	return records, nil
}
