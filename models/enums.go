package models

// TradePointType is the fixed enumeration of selling-location kinds.
// Kiosks and stalls are walk-up points: sales there never record a customer.
type TradePointType string

const (
	TradePointTypeDepartmentStore TradePointType = "department_store"
	TradePointTypeShop            TradePointType = "shop"
	TradePointTypeKiosk           TradePointType = "kiosk"
	TradePointTypeStall           TradePointType = "stall"
)

func (t TradePointType) Valid() bool {
	switch t {
	case TradePointTypeDepartmentStore, TradePointTypeShop, TradePointTypeKiosk, TradePointTypeStall:
		return true
	}
	return false
}

// RecordsCustomer reports whether sales at this kind of trade point keep a
// customer reference. Business rule: walk-up points do not.
func (t TradePointType) RecordsCustomer() bool {
	return t != TradePointTypeKiosk && t != TradePointTypeStall
}
