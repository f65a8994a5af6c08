package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductUsecase struct {
	tx         repo.TransactionManager
	products   repo.ProductRepository
	categories repo.CategoryRepository
	logger     *logrus.Logger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	logger *logrus.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		tx:         tx,
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

type ProductInput struct {
	SKU             string
	Name            string
	CategoryID      int64
	Price           decimal.Decimal
	CostPrice       decimal.Decimal
	InitialQuantity int64
	MinStock        int64
	MaxStock        int64
	IsActive        bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return NewError(KindInvalidArgument, "sku required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewError(KindInvalidArgument, "name required")
	}
	if in.CategoryID <= 0 {
		return NewError(KindInvalidArgument, "invalid category id")
	}
	if in.Price.IsNegative() {
		return NewError(KindInvalidArgument, "price must be >= 0")
	}
	if in.CostPrice.IsNegative() {
		return NewError(KindInvalidArgument, "cost_price must be >= 0")
	}
	if in.MinStock < 0 || in.MaxStock < 0 {
		return NewError(KindInvalidArgument, "stock thresholds must be >= 0")
	}
	if in.MaxStock > 0 && in.MaxStock < in.MinStock {
		return NewError(KindInvalidArgument, "max_stock must be >= min_stock")
	}
	return nil
}

// AdminCreateProductは商品を作成する。
// 初期在庫 > 0 なら同じトランザクションでSTOCK_INの台帳も1行追記する。
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewError(KindUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}
	if in.InitialQuantity < 0 {
		return model.Product{}, NewError(KindInvalidArgument, "initial quantity must be >= 0")
	}

	if _, err := u.categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewError(KindNotFound, "category not found")
		}
		return model.Product{}, internalError(u.logger, "product", "AdminCreateProduct", err)
	}

	now := time.Now()
	var created model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//在庫0で作成して、初期在庫は台帳経由で入れる
		p, err := r.Products().Create(ctx, model.Product{
			SKU:        strings.TrimSpace(in.SKU),
			Name:       strings.TrimSpace(in.Name),
			CategoryID: in.CategoryID,
			Price:      in.Price,
			CostPrice:  in.CostPrice,
			Quantity:   0,
			MinStock:   in.MinStock,
			MaxStock:   in.MaxStock,
			IsActive:   in.IsActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if errors.Is(err, repo.ErrConflict) {
			return NewError(KindConflict, "sku already exists")
		}
		if err != nil {
			return internalError(u.logger, "product", "AdminCreateProduct", err)
		}

		if in.InitialQuantity > 0 && in.IsActive {
			p2, _, err := applyMovement(ctx, r, u.logger, movementCommand{
				ProductID:   p.ID,
				ActorUserID: adminUserID,
				Type:        model.MovementStockIn,
				Quantity:    in.InitialQuantity,
				Reason:      "initial stock",
			})
			if err != nil {
				return err
			}
			p = p2
		}

		created = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	return created, nil
}

// AdminUpdateProductは基本属性の更新。在庫数はここでは触らない。
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in ProductInput) error {
	if adminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewError(KindInvalidArgument, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	if _, err := u.categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "category not found")
		}
		return internalError(u.logger, "product", "AdminUpdateProduct", err)
	}

	err := u.products.Update(ctx, model.Product{
		ID:         productID,
		SKU:        strings.TrimSpace(in.SKU),
		Name:       strings.TrimSpace(in.Name),
		CategoryID: in.CategoryID,
		Price:      in.Price,
		CostPrice:  in.CostPrice,
		MinStock:   in.MinStock,
		MaxStock:   in.MaxStock,
		IsActive:   in.IsActive,
		UpdatedAt:  time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewError(KindNotFound, "not found")
	}
	if errors.Is(err, repo.ErrConflict) {
		return NewError(KindConflict, "sku already exists")
	}
	if err != nil {
		return internalError(u.logger, "product", "AdminUpdateProduct", err)
	}
	return nil
}

// 物理削除はしない。非アクティブ化のみ。
func (u *ProductUsecase) AdminDeactivateProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewError(KindInvalidArgument, "invalid product id")
	}

	err := u.products.Deactivate(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewError(KindNotFound, "not found")
	}
	if err != nil {
		return internalError(u.logger, "product", "AdminDeactivateProduct", err)
	}
	return nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewError(KindInvalidArgument, "invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewError(KindNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, internalError(u.logger, "product", "GetProductDetail", err)
	}

	if !p.IsActive {
		return model.Product{}, NewError(KindNotFound, "not found")
	}
	return p, nil
}

type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	//管理画面では非アクティブも見える
	IncludeInactive bool
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewError(KindInvalidArgument, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewError(KindInvalidArgument, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewError(KindInvalidArgument, "q too long")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		ActiveOnly: !in.IncludeInactive,
	})
	if err != nil {
		return ProductListOutput{}, internalError(u.logger, "product", "ListProducts", err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}
