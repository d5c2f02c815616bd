package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID   string          `gorm:"column:product_id;primaryKey" json:"product_id"`
	Name        string          `gorm:"column:name" json:"name"`
	Slug        string          `gorm:"column:slug;uniqueIndex" json:"slug"`
	Description string          `gorm:"column:description" json:"description"`
	Category    string          `gorm:"column:category;index" json:"category"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(16,2)" json:"price"`
	Stock       int             `gorm:"column:stock" json:"stock"`
	IsActive    bool            `gorm:"column:is_active" json:"is_active"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

type CreateProductParams struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	IsActive    *bool           `json:"is_active"`
}

type UpdateProductParams struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsActive    *bool            `json:"is_active"`
}
