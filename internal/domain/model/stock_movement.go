package model

import "time"

// 在庫移動の種類。閉じた列挙で、向き（符号）はDirectionが持つ。
type MovementType string

const (
	//仕入れ・入庫
	MovementStockIn MovementType = "STOCK_IN"
	//出庫
	MovementStockOut MovementType = "STOCK_OUT"
	//販売による減算
	MovementSale MovementType = "SALE"
	//返品・キャンセルによる戻し
	MovementReturn MovementType = "RETURN"
	//破損・廃棄
	MovementDamage MovementType = "DAMAGE"
)

// Directionは在庫に対する符号（+1 / -1）を返す。
func (t MovementType) Direction() int64 {
	switch t {
	case MovementStockIn, MovementReturn:
		return 1
	case MovementStockOut, MovementSale, MovementDamage:
		return -1
	}
	return 0
}

// Validは既知の種類かどうか。
func (t MovementType) Valid() bool {
	return t.Direction() != 0
}

// 在庫台帳の1行。作成のみで、更新・削除はしない（append-only）。
// NewStock = PreviousStock + Direction×Quantity が常に成り立つ。
type StockMovement struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64        `gorm:"not null;index" json:"product_id"`
	ActorUserID   int64        `gorm:"not null;index" json:"actor_user_id"`
	SaleID        *int64       `gorm:"index" json:"sale_id,omitempty"`
	Type          MovementType `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity      int64        `gorm:"not null" json:"quantity"`
	PreviousStock int64        `gorm:"not null" json:"previous_stock"`
	NewStock      int64        `gorm:"not null" json:"new_stock"`
	Reason        string       `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt     time.Time    `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
