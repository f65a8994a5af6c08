package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
	FindByID(ctx context.Context, customerID int64) (model.Customer, error)
	List(ctx context.Context, page, limit int, q string) ([]model.Customer, int64, error)
}

type CategoryRepository interface {
	//作成。name重複は ErrConflict
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	FindByID(ctx context.Context, categoryID int64) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}
