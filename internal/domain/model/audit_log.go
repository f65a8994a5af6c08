package model

import "time"

// 在庫更新、売上作成、ステータス更新など。
type AuditAction string

const (
	//在庫を動かした操作。
	AuditActionStockMovement AuditAction = "STOCK_MOVEMENT"
	//売上を作成した操作。
	AuditActionCreateSale AuditAction = "CREATE_SALE"
	//売上ステータスを更新した操作。
	AuditActionUpdateSaleStatus AuditAction = "UPDATE_SALE_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceSale    AuditResourceType = "sale"
	AuditResourceUser    AuditResourceType = "user"
)

// 監査ログ。「誰が」「何を」「どの対象に」「どう変えたか」を残す。
// 書き込みはベストエフォートで、本処理をロールバックさせない。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
