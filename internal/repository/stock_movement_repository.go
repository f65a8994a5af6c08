package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

// 在庫台帳。作成と参照のみ（append-only）。更新・削除のメソッドは置かない。
type StockMovementRepository interface {
	Create(ctx context.Context, mv model.StockMovement) (model.StockMovement, error)

	//商品ごとの履歴（新しい順）
	ListByProductID(ctx context.Context, productID int64, limit, offset int) ([]model.StockMovement, int64, error)

	//売上に紐づく履歴
	ListBySaleID(ctx context.Context, saleID int64) ([]model.StockMovement, error)
}
