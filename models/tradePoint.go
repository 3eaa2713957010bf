package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

type TradePoint struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Name             string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Type             TradePointType  `gorm:"type:enum('department_store','shop','kiosk','stall');not null" json:"type"`
	Size             int             `json:"size"`
	RentPayments     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rent_payments"`
	UtilityPayments  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"utility_payments"`
	NumberOfCounters int             `json:"number_of_counters"`
	Halls            string          `gorm:"type:text" json:"halls"`
	Sections         string          `gorm:"type:text" json:"sections"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTradePoint struct {
	Name             string          `json:"name" binding:"required"`
	Type             TradePointType  `json:"type" binding:"required,tradepointtype"`
	Size             int             `json:"size"`
	RentPayments     decimal.Decimal `json:"rent_payments"`
	UtilityPayments  decimal.Decimal `json:"utility_payments"`
	NumberOfCounters int             `json:"number_of_counters"`
	Halls            string          `json:"halls"`
	Sections         string          `json:"sections"`
}

func (input *NewTradePoint) validate() error {
	if !input.Type.Valid() {
		return utils.NewValidationError("type", "unknown trade point type")
	}
	if input.RentPayments.IsNegative() || input.UtilityPayments.IsNegative() {
		return utils.NewValidationError("payments", "must not be negative")
	}
	return nil
}

// TradePointStore owns the trade point registry and the
// trade-point<->seller association.
type TradePointStore struct {
	db *gorm.DB
}

func NewTradePointStore(db *gorm.DB) *TradePointStore {
	return &TradePointStore{db: db}
}

func (s *TradePointStore) Create(ctx context.Context, input *NewTradePoint) (*TradePoint, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tradePoint := TradePoint{
		Name:             input.Name,
		Type:             input.Type,
		Size:             input.Size,
		RentPayments:     input.RentPayments,
		UtilityPayments:  input.UtilityPayments,
		NumberOfCounters: input.NumberOfCounters,
		Halls:            input.Halls,
		Sections:         input.Sections,
		IsActive:         utils.NewTrue(),
	}

	// db action
	err := s.db.WithContext(ctx).Create(&tradePoint).Error
	if err != nil {
		return nil, err
	}
	return &tradePoint, nil
}

func (s *TradePointStore) Update(ctx context.Context, id int, input *NewTradePoint) (*TradePoint, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tradePoint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// db action
	err = s.db.WithContext(ctx).Model(tradePoint).Updates(map[string]interface{}{
		"Name":             input.Name,
		"Type":             input.Type,
		"Size":             input.Size,
		"RentPayments":     input.RentPayments,
		"UtilityPayments":  input.UtilityPayments,
		"NumberOfCounters": input.NumberOfCounters,
		"Halls":            input.Halls,
		"Sections":         input.Sections,
	}).Error
	if err != nil {
		return nil, err
	}
	return tradePoint, nil
}

// Delete refuses to remove a trade point that sellers, sales or stock rows
// still reference.
func (s *TradePointStore) Delete(ctx context.Context, id int) (*TradePoint, error) {
	tradePoint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, ref := range []interface{}{&Seller{}, &Sale{}, &TradePointStock{}} {
		var count int64
		if err := s.db.WithContext(ctx).Model(ref).
			Where("trade_point_id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("trade point is still referenced")
		}
	}

	// db action
	if err := s.db.WithContext(ctx).Delete(tradePoint).Error; err != nil {
		return nil, err
	}
	return tradePoint, nil
}

func (s *TradePointStore) Get(ctx context.Context, id int) (*TradePoint, error) {
	var tradePoint TradePoint
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tradePoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &tradePoint, nil
}

func (s *TradePointStore) List(ctx context.Context, name *string) ([]*TradePoint, error) {
	var results []*TradePoint
	dbCtx := s.db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%").Limit(config.SearchLimit)
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReassignSeller moves a seller to another trade point as one relationship
// update inside a single statement, not a pull-then-push pair.
func (s *TradePointStore) ReassignSeller(ctx context.Context, sellerID int, tradePointID int) error {
	if _, err := s.Get(ctx, tradePointID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&Seller{}).
		Where("id = ?", sellerID).
		Update("trade_point_id", tradePointID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
