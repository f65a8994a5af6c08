package repository

import (
	"context"
	"errors"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleGormRepository struct {
	db *gorm.DB
}

func NewSaleGormRepository(db *gorm.DB) *SaleGormRepository {
	return &SaleGormRepository{db: db}
}

func (r *SaleGormRepository) Create(ctx context.Context, s model.Sale) (model.Sale, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		//sale_numberの一意制約が最終的な保証
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Sale{}, repo.ErrConflict
		}
		return model.Sale{}, err
	}
	return s, nil
}

func (r *SaleGormRepository) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	var s model.Sale

	err := r.db.WithContext(ctx).First(&s, saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sale{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}
	return s, nil
}

func (r *SaleGormRepository) FindByIDForUpdate(ctx context.Context, saleID int64) (model.Sale, error) {
	var s model.Sale

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, saleID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sale{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}
	return s, nil
}

func (r *SaleGormRepository) UpdateStatus(ctx context.Context, saleID int64, status model.SaleStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Where("id = ?", saleID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SaleGormRepository) List(ctx context.Context, f repo.SaleListFilter) ([]model.Sale, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Sale{})

	if f.Status != nil {
		tx = tx.Where("status = ?", *f.Status)
	}
	if f.From != nil {
		tx = tx.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []model.Sale
	err := tx.Order("id DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

type SaleItemGormRepository struct {
	db *gorm.DB
}

func NewSaleItemGormRepository(db *gorm.DB) *SaleItemGormRepository {
	return &SaleItemGormRepository{db: db}
}

func (r *SaleItemGormRepository) CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) ([]model.SaleItem, error) {
	for i := range items {
		items[i].SaleID = saleID
	}

	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SaleItemGormRepository) ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error) {
	var items []model.SaleItem

	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
