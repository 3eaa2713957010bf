package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const TitleInventorySnapshot = "Trade point inventory"

type InventoryRowResponse struct {
	ProductId   int    `json:"productId"`
	ProductName string `json:"productName"`
	Qty         int    `json:"qty"`
}

// GetInventorySnapshotReport reads the trade point's stock rows with joined
// product names; a product missing from the catalog keeps its quantity under
// the placeholder label.
func (r *Reports) GetInventorySnapshotReport(ctx context.Context, tradePointID int) ([]*InventoryRowResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "inventory_snapshot", started, map[string]any{"tradePointId": tradePointID})

	sql := `
SELECT
    st.product_id,
    COALESCE(p.name, ?) AS product_name,
    st.qty
FROM trade_point_stocks st
LEFT JOIN products p ON p.id = st.product_id
WHERE st.trade_point_id = ?
ORDER BY product_name, st.product_id;
`
	var records []*InventoryRowResponse
	err := r.db.WithContext(ctx).Raw(sql, PlaceholderLabel, tradePointID).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*InventoryRowResponse{}
	}
	return records, nil
}

// ExportInventorySnapshotExcel renders the snapshot as a one-sheet workbook.
func (r *Reports) ExportInventorySnapshotExcel(ctx context.Context, tradePointID int) (*excelize.File, error) {
	records, err := r.GetInventorySnapshotReport(ctx, tradePointID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "ProductId")
	f.SetCellValue(sheet, "B1", "ProductName")
	f.SetCellValue(sheet, "C1", "Qty")
	for i, row := range records {
		rowNo := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNo), row.ProductId)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNo), row.ProductName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNo), row.Qty)
	}
	return f, nil
}
