package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 売上明細。単価は販売時点のスナップショットで、後から商品価格が変わっても影響しない。
type SaleItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID              int64           `gorm:"not null;index" json:"sale_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
