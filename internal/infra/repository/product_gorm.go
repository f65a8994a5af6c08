package repository

import (
	"context"
	"errors"
	"strings"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Product{}, repo.ErrConflict
		}
		return model.Product{}, err
	}
	return p, nil
}

// 基本属性のみ更新。quantityはUpdateQuantity経由。
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"sku":         p.SKU,
			"name":        p.Name,
			"category_id": p.CategoryID,
			"price":       p.Price,
			"cost_price":  p.CostPrice,
			"min_stock":   p.MinStock,
			"max_stock":   p.MaxStock,
			"is_active":   p.IsActive,
			"updated_at":  p.UpdatedAt,
		})

	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return repo.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// is_activeを落としてからソフトデリート
func (r *ProductGormRepository) Deactivate(ctx context.Context, productID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("is_active", false)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	return r.db.WithContext(ctx).Delete(&model.Product{}, productID).Error
}

func (r *ProductGormRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// SELECT ... FOR UPDATE。同一商品への同時在庫操作を行ロックで直列化する。
func (r *ProductGormRepository) FindByIDForUpdate(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, productID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) UpdateQuantity(ctx context.Context, productID int64, newQuantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("quantity", newQuantity)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) UpdateCostPrice(ctx context.Context, productID int64, costPrice decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("cost_price", costPrice)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if q.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Product
	err := tx.Order("id DESC").
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
