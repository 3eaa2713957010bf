package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

type Customer struct {
	ID              int       `gorm:"primary_key" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Characteristics string    `gorm:"type:text" json:"characteristics"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetCustomer(ctx context.Context, db *gorm.DB, id int) (*Customer, error) {
	var customer Customer
	err := db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}
