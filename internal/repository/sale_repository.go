package repository

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
)

type SaleListFilter struct {
	Page   int
	Limit  int
	Status *model.SaleStatus
	From   *time.Time
	To     *time.Time
}

type SaleRepository interface {
	//作成。sale_number重複は ErrConflict
	Create(ctx context.Context, s model.Sale) (model.Sale, error)

	FindByID(ctx context.Context, saleID int64) (model.Sale, error)

	//行ロック付きで取得。ステータス更新のトランザクション内で使う
	FindByIDForUpdate(ctx context.Context, saleID int64) (model.Sale, error)

	UpdateStatus(ctx context.Context, saleID int64, status model.SaleStatus) error

	List(ctx context.Context, f SaleListFilter) ([]model.Sale, int64, error)
}

type SaleItemRepository interface {
	//明細の一括作成
	CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) ([]model.SaleItem, error)

	ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error)
}
