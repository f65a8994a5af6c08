package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// 許可される遷移。CANCELLED / REFUNDED は終端。
var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:   {SaleStatusCompleted, SaleStatusCancelled},
	SaleStatusCompleted: {SaleStatusRefunded},
	SaleStatusCancelled: {},
	SaleStatusRefunded:  {},
}

// Validは既知のステータスかどうか。
func (s SaleStatus) Valid() bool {
	_, ok := saleTransitions[s]
	return ok
}

// CanTransitionToは s → to の遷移が許されるかどうか。
func (s SaleStatus) CanTransitionTo(to SaleStatus) bool {
	for _, t := range saleTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// RequiresRestockはそのステータスへの遷移で在庫戻し（RETURN）が必要かどうか。
func (s SaleStatus) RequiresRestock() bool {
	return s == SaleStatusCancelled || s == SaleStatusRefunded
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentQR       PaymentMethod = "QR"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR, PaymentTransfer:
		return true
	}
	return false
}

// 売上ヘッダ。COMPLETEDになった後、金額は変更不可（ステータスのみ変わる）。
// FinalAmount = Subtotal + TaxAmount − DiscountAmount
type Sale struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleNumber     string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"sale_number"`
	CustomerID     *int64          `gorm:"index" json:"customer_id,omitempty"`
	StaffUserID    int64           `gorm:"not null;index" json:"staff_user_id"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status         SaleStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
