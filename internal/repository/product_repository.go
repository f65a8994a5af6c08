package repository

import (
	"context"
	"errors"

	"backoffice/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反（SKU・sale_numberの重複など）
var ErrConflict = errors.New("conflict")

type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	//公開側ではtrue（非アクティブを隠す）
	ActiveOnly bool
}

type ProductRepository interface {
	//作成。SKU重複は ErrConflict
	Create(ctx context.Context, p model.Product) (model.Product, error)

	//基本属性の更新（Quantityは含まない）
	Update(ctx context.Context, p model.Product) error

	//物理削除はしない。is_activeを落としてソフトデリート
	Deactivate(ctx context.Context, productID int64) error

	FindByID(ctx context.Context, productID int64) (model.Product, error)

	//行ロック付きで取得（SELECT FOR UPDATE）。トランザクション内でのみ使う
	FindByIDForUpdate(ctx context.Context, productID int64) (model.Product, error)

	//在庫数の書き換え。台帳（usecase）以外から呼ばない
	UpdateQuantity(ctx context.Context, productID int64, newQuantity int64) error

	//仕入れ時の原価更新
	UpdateCostPrice(ctx context.Context, productID int64, costPrice decimal.Decimal) error

	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
}
