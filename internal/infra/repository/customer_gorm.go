package repository

import (
	"context"
	"errors"
	"strings"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type CustomerGormRepository struct {
	db *gorm.DB
}

func NewCustomerGormRepository(db *gorm.DB) *CustomerGormRepository {
	return &CustomerGormRepository{db: db}
}

func (r *CustomerGormRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *CustomerGormRepository) Update(ctx context.Context, c model.Customer) error {
	res := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":       c.Name,
			"phone":      c.Phone,
			"email":      c.Email,
			"updated_at": c.UpdatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CustomerGormRepository) FindByID(ctx context.Context, customerID int64) (model.Customer, error) {
	var c model.Customer

	err := r.db.WithContext(ctx).First(&c, customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Customer{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *CustomerGormRepository) List(ctx context.Context, page, limit int, q string) ([]model.Customer, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Customer{})

	if s := strings.TrimSpace(q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR phone ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Customer
	err := tx.Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Category{}, repo.ErrConflict
		}
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) error {
	res := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":        c.Name,
			"description": c.Description,
			"updated_at":  c.UpdatedAt,
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

func (r *CategoryGormRepository) FindByID(ctx context.Context, categoryID int64) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).First(&c, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var items []model.Category

	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
