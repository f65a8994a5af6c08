package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/sirupsen/logrus"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
	logger     *logrus.Logger
}

func NewCategoryUsecase(categories repo.CategoryRepository, logger *logrus.Logger) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, logger: logger}
}

type CategoryInput struct {
	Name        string
	Description string
}

func (u *CategoryUsecase) Create(ctx context.Context, adminUserID int64, in CategoryInput) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewError(KindUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, NewError(KindInvalidArgument, "name required")
	}

	now := time.Now()
	c, err := u.categories.Create(ctx, model.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewError(KindConflict, "category name already exists")
	}
	if err != nil {
		return model.Category{}, internalError(u.logger, "category", "Create", err)
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, adminUserID int64, categoryID int64, in CategoryInput) error {
	if adminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return NewError(KindInvalidArgument, "invalid category id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewError(KindInvalidArgument, "name required")
	}

	err := u.categories.Update(ctx, model.Category{
		ID:          categoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		UpdatedAt:   time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewError(KindNotFound, "not found")
	}
	if errors.Is(err, repo.ErrConflict) {
		return NewError(KindConflict, "category name already exists")
	}
	if err != nil {
		return internalError(u.logger, "category", "Update", err)
	}
	return nil
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	items, err := u.categories.List(ctx)
	if err != nil {
		return nil, internalError(u.logger, "category", "List", err)
	}
	return items, nil
}
