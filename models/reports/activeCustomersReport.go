package reports

import (
	"context"
	"fmt"
	"time"
)

const TitleActiveCustomers = "Most active customers across all trade points"

type ActiveCustomerResponse struct {
	CustomerId     int    `json:"customerId"`
	CustomerName   string `json:"customerName"`
	TotalPurchases int    `json:"totalPurchases"`
}

// GetActiveCustomersReport groups sales by customer, sums quantities and
// returns the top limit customers in descending order. Walk-up sales
// (customer_id NULL) are excluded by definition.
func (r *Reports) GetActiveCustomersReport(ctx context.Context, limit int) ([]*ActiveCustomerResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("report:active_customers:%d", limit)
	var records []*ActiveCustomerResponse
	if r.cacheGet(ctx, cacheKey, &records) {
		return records, nil
	}

	started := time.Now()
	defer logSlowReport(ctx, "active_customers", started, map[string]any{"limit": limit})

	sql := `
SELECT
    s.customer_id,
    COALESCE(c.name, ?) AS customer_name,
    SUM(s.qty) AS total_purchases
FROM sales s
LEFT JOIN customers c ON c.id = s.customer_id
WHERE s.customer_id IS NOT NULL
GROUP BY s.customer_id, c.name
ORDER BY total_purchases DESC
LIMIT ?;
`
	if err := r.db.WithContext(ctx).Raw(sql, PlaceholderLabel, limit).Scan(&records).Error; err != nil {
		return nil, err
	}
	if records == nil {
		records = []*ActiveCustomerResponse{}
	}

	r.cacheSet(ctx, cacheKey, records)
	return records, nil
}
