package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/trader_backend/models"
	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

const TitleTradePointProfitability = "Trade point profitability"

type ProfitabilityResponse struct {
	TradePointId  int             `json:"tradePointId"`
	Revenue       decimal.Decimal `json:"revenue"`
	Overhead      decimal.Decimal `json:"overhead"`
	Profitability decimal.Decimal `json:"profitability"`
}

// ComputeProfitability is the ratio rule kept apart from the queries:
// revenue over overhead, 0 when overhead is 0 (never a division fault).
func ComputeProfitability(revenue, overhead decimal.Decimal) decimal.Decimal {
	if overhead.IsZero() {
		return decimal.Zero
	}
	return revenue.DivRound(overhead, 4)
}

// GetProfitabilityReport computes revenue over the date range and overhead
// (rent + utilities + seller salaries) for one trade point.
func (r *Reports) GetProfitabilityReport(ctx context.Context, tradePointID int, fromDate, toDate time.Time) (*ProfitabilityResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "profitability", started, map[string]any{"tradePointId": tradePointID})

	var tradePoint models.TradePoint
	err := r.db.WithContext(ctx).Where("id = ?", tradePointID).First(&tradePoint).Error
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var row struct {
		Revenue decimal.Decimal
	}
	revenueSQL := `
SELECT COALESCE(SUM(qty * unit_price), 0) AS revenue
FROM sales
WHERE trade_point_id = ?
  AND sale_date BETWEEN ? AND ?;
`
	err = r.db.WithContext(ctx).
		Raw(revenueSQL, tradePointID, utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var salaries struct {
		Total decimal.Decimal
	}
	err = r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(salary), 0) AS total FROM sellers WHERE trade_point_id = ?`, tradePointID).
		Scan(&salaries).Error
	if err != nil {
		return nil, err
	}

	overhead := tradePoint.RentPayments.Add(tradePoint.UtilityPayments).Add(salaries.Total)
	return &ProfitabilityResponse{
		TradePointId:  tradePointID,
		Revenue:       row.Revenue,
		Overhead:      overhead,
		Profitability: ComputeProfitability(row.Revenue, overhead),
	}, nil
}
