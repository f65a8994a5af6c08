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

type CustomerUsecase struct {
	customers repo.CustomerRepository
	logger    *logrus.Logger
}

func NewCustomerUsecase(customers repo.CustomerRepository, logger *logrus.Logger) *CustomerUsecase {
	return &CustomerUsecase{customers: customers, logger: logger}
}

type CustomerInput struct {
	Name  string
	Phone string
	Email string
}

func (u *CustomerUsecase) Create(ctx context.Context, actorUserID int64, in CustomerInput) (model.Customer, error) {
	if actorUserID <= 0 {
		return model.Customer{}, NewError(KindUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Customer{}, NewError(KindInvalidArgument, "name required")
	}

	now := time.Now()
	c, err := u.customers.Create(ctx, model.Customer{
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Customer{}, internalError(u.logger, "customer", "Create", err)
	}
	return c, nil
}

func (u *CustomerUsecase) Update(ctx context.Context, actorUserID int64, customerID int64, in CustomerInput) error {
	if actorUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if customerID <= 0 {
		return NewError(KindInvalidArgument, "invalid customer id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewError(KindInvalidArgument, "name required")
	}

	err := u.customers.Update(ctx, model.Customer{
		ID:        customerID,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		UpdatedAt: time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewError(KindNotFound, "not found")
	}
	if err != nil {
		return internalError(u.logger, "customer", "Update", err)
	}
	return nil
}

func (u *CustomerUsecase) Get(ctx context.Context, customerID int64) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, NewError(KindInvalidArgument, "invalid customer id")
	}

	c, err := u.customers.FindByID(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, NewError(KindNotFound, "not found")
	}
	if err != nil {
		return model.Customer{}, internalError(u.logger, "customer", "Get", err)
	}
	return c, nil
}

type CustomerListOutput struct {
	Items []model.Customer `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *CustomerUsecase) List(ctx context.Context, page, limit int, q string) (CustomerListOutput, error) {
	if page < 1 {
		return CustomerListOutput{}, NewError(KindInvalidArgument, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return CustomerListOutput{}, NewError(KindInvalidArgument, "invalid limit")
	}

	items, total, err := u.customers.List(ctx, page, limit, q)
	if err != nil {
		return CustomerListOutput{}, internalError(u.logger, "customer", "List", err)
	}

	return CustomerListOutput{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
