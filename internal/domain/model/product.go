package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品。Quantityは在庫台帳（InventoryUsecase）経由でしか変更しない。
type Product struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID int64           `gorm:"not null;index" json:"category_id"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	Quantity   int64           `gorm:"not null;default:0" json:"quantity"`
	MinStock   int64           `gorm:"not null;default:0" json:"min_stock"`
	MaxStock   int64           `gorm:"not null;default:0" json:"max_stock"`
	IsActive   bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
