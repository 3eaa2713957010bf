package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

const TitleTradeTurnover = "Trade turnover per trade point"

type TurnoverResponse struct {
	TradePointId      int    `json:"tradePointId"`
	TradePointName    string `json:"tradePointName"`
	TotalQuantitySold int    `json:"totalQuantitySold"`
}

// GetTurnoverReport sums sold quantities per trade point over the range.
// Driven from trade_points, so a point with zero matching sales still yields
// a row with total 0. tradePointID narrows to one point when non-nil.
func (r *Reports) GetTurnoverReport(ctx context.Context, tradePointID *int, fromDate, toDate time.Time) ([]*TurnoverResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "turnover", started, map[string]any{"tradePointId": tradePointID})

	sql := `
SELECT
    tp.id AS trade_point_id,
    tp.name AS trade_point_name,
    COALESCE(SUM(s.qty), 0) AS total_quantity_sold
FROM trade_points tp
LEFT JOIN sales s
    ON s.trade_point_id = tp.id
    AND s.sale_date BETWEEN ? AND ?
WHERE (? IS NULL OR tp.id = ?)
GROUP BY tp.id, tp.name
ORDER BY total_quantity_sold DESC, tp.id;
`
	var records []*TurnoverResponse
	err := r.db.WithContext(ctx).
		Raw(sql, utils.StartOfDay(fromDate), utils.EndOfDay(toDate), tradePointID, tradePointID).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*TurnoverResponse{}
	}
	return records, nil
}
