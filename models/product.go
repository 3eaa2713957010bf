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

// PlaceholderProductName is used when an order references a product that is
// not in the catalog yet ("order arrived before catalog entry").
const PlaceholderProductName = "new product"

type Product struct {
	ID          int               `gorm:"primary_key" json:"id"`
	Name        string            `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string            `gorm:"type:text" json:"description"`
	Suppliers   []ProductSupplier `gorm:"constraint:OnDelete:CASCADE" json:"suppliers"`
	Prices      []ProductPrice    `gorm:"constraint:OnDelete:CASCADE" json:"prices"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductSupplier links a product to one of its suppliers.
type ProductSupplier struct {
	ID         int `gorm:"primary_key" json:"id"`
	ProductId  int `gorm:"index;not null" json:"product_id"`
	SupplierId int `gorm:"index;not null" json:"supplier_id"`
}

type ProductPrice struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency  string          `gorm:"size:3;not null" json:"currency"`
}

type NewProduct struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	SupplierIds []int             `json:"supplier_ids"`
	Prices      []NewProductPrice `json:"prices"`
}

type NewProductPrice struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"required"`
}

func (input *NewProduct) validate() error {
	for _, p := range input.Prices {
		if p.Amount.IsNegative() {
			return utils.NewValidationError("prices", "amount must not be negative")
		}
	}
	return nil
}

type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Create(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	// supplier ids must resolve
	supplierIds := utils.UniqueSlice(input.SupplierIds)
	if len(supplierIds) > 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Supplier{}).
			Where("id IN ?", supplierIds).Count(&count).Error; err != nil {
			return nil, err
		}
		if count != int64(len(supplierIds)) {
			return nil, utils.ErrNotFound
		}
	}

	product := Product{
		Name:        input.Name,
		Description: input.Description,
	}
	for _, id := range supplierIds {
		product.Suppliers = append(product.Suppliers, ProductSupplier{SupplierId: id})
	}
	for _, p := range input.Prices {
		product.Prices = append(product.Prices, ProductPrice{Amount: p.Amount, Currency: p.Currency})
	}

	// db action
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductStore) Update(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// db action: replace scalar fields and the supplier/price lists together
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(product).Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductSupplier{}).Error; err != nil {
			return err
		}
		for _, supplierId := range utils.UniqueSlice(input.SupplierIds) {
			if err := tx.Create(&ProductSupplier{ProductId: id, SupplierId: supplierId}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductPrice{}).Error; err != nil {
			return err
		}
		for _, p := range input.Prices {
			if err := tx.Create(&ProductPrice{ProductId: id, Amount: p.Amount, Currency: p.Currency}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ProductStore) Get(ctx context.Context, id int) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("Suppliers").Preload("Prices").
		Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *ProductStore) List(ctx context.Context, name *string) ([]*Product, error) {
	var results []*Product
	dbCtx := s.db.WithContext(ctx).Preload("Suppliers").Preload("Prices")
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%").Limit(config.SearchLimit)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ensurePlaceholder creates a catalog stub for a product id referenced by an
// order before the catalog entry exists. Runs inside the order's transaction.
func ensurePlaceholderProduct(tx *gorm.DB, productID int, supplierID int) error {
	var count int64
	if err := tx.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	product := Product{
		ID:   productID,
		Name: PlaceholderProductName,
		Suppliers: []ProductSupplier{
			{ProductId: productID, SupplierId: supplierID},
		},
	}
	if err := tx.Create(&product).Error; err != nil {
		// a concurrent order stubbed the same product between the count and
		// the insert; the stub is there either way
		if utils.IsDuplicateKey(err) {
			return nil
		}
		return err
	}
	return nil
}
