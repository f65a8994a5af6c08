package repository

import (
	"context"

	"backoffice/internal/domain/model"

	"gorm.io/gorm"
)

type StockMovementGormRepository struct {
	db *gorm.DB
}

func NewStockMovementGormRepository(db *gorm.DB) *StockMovementGormRepository {
	return &StockMovementGormRepository{db: db}
}

// 台帳は追記のみ。UpdateもDeleteも実装しない。
func (r *StockMovementGormRepository) Create(ctx context.Context, mv model.StockMovement) (model.StockMovement, error) {
	if err := r.db.WithContext(ctx).Create(&mv).Error; err != nil {
		return model.StockMovement{}, err
	}
	return mv, nil
}

func (r *StockMovementGormRepository) ListByProductID(ctx context.Context, productID int64, limit, offset int) ([]model.StockMovement, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Where("product_id = ?", productID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mvs []model.StockMovement
	err := tx.Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&mvs).Error
	if err != nil {
		return nil, 0, err
	}

	return mvs, total, nil
}

func (r *StockMovementGormRepository) ListBySaleID(ctx context.Context, saleID int64) ([]model.StockMovement, error) {
	var mvs []model.StockMovement

	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&mvs).Error
	if err != nil {
		return nil, err
	}

	return mvs, nil
}
