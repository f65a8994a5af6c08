package usecase

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) Deactivate(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDForUpdate(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) UpdateQuantity(ctx context.Context, productID int64, newQuantity int64) error {
	args := m.Called(ctx, productID, newQuantity)
	return args.Error(0)
}

func (m *ProductRepoMock) UpdateCostPrice(ctx context.Context, productID int64, costPrice decimal.Decimal) error {
	args := m.Called(ctx, productID, costPrice)
	return args.Error(0)
}

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

type MovementRepoMock struct{ mock.Mock }

func (m *MovementRepoMock) Create(ctx context.Context, mv model.StockMovement) (model.StockMovement, error) {
	args := m.Called(ctx, mv)
	created, _ := args.Get(0).(model.StockMovement)
	return created, args.Error(1)
}

func (m *MovementRepoMock) ListByProductID(ctx context.Context, productID int64, limit, offset int) ([]model.StockMovement, int64, error) {
	args := m.Called(ctx, productID, limit, offset)
	items, _ := args.Get(0).([]model.StockMovement)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *MovementRepoMock) ListBySaleID(ctx context.Context, saleID int64) ([]model.StockMovement, error) {
	args := m.Called(ctx, saleID)
	items, _ := args.Get(0).([]model.StockMovement)
	return items, args.Error(1)
}

type SaleRepoMock struct{ mock.Mock }

func (m *SaleRepoMock) Create(ctx context.Context, s model.Sale) (model.Sale, error) {
	args := m.Called(ctx, s)
	created, _ := args.Get(0).(model.Sale)
	return created, args.Error(1)
}

func (m *SaleRepoMock) FindByID(ctx context.Context, saleID int64) (model.Sale, error) {
	args := m.Called(ctx, saleID)
	s, _ := args.Get(0).(model.Sale)
	return s, args.Error(1)
}

func (m *SaleRepoMock) FindByIDForUpdate(ctx context.Context, saleID int64) (model.Sale, error) {
	args := m.Called(ctx, saleID)
	s, _ := args.Get(0).(model.Sale)
	return s, args.Error(1)
}

func (m *SaleRepoMock) UpdateStatus(ctx context.Context, saleID int64, status model.SaleStatus) error {
	args := m.Called(ctx, saleID, status)
	return args.Error(0)
}

func (m *SaleRepoMock) List(ctx context.Context, f repo.SaleListFilter) ([]model.Sale, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Sale)
	return items, args.Get(1).(int64), args.Error(2)
}

type SaleItemRepoMock struct{ mock.Mock }

func (m *SaleItemRepoMock) CreateBulk(ctx context.Context, saleID int64, items []model.SaleItem) ([]model.SaleItem, error) {
	args := m.Called(ctx, saleID, items)
	created, _ := args.Get(0).([]model.SaleItem)
	return created, args.Error(1)
}

func (m *SaleItemRepoMock) ListBySaleID(ctx context.Context, saleID int64) ([]model.SaleItem, error) {
	args := m.Called(ctx, saleID)
	items, _ := args.Get(0).([]model.SaleItem)
	return items, args.Error(1)
}

type CustomerRepoMock struct{ mock.Mock }

func (m *CustomerRepoMock) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	args := m.Called(ctx, c)
	created, _ := args.Get(0).(model.Customer)
	return created, args.Error(1)
}

func (m *CustomerRepoMock) Update(ctx context.Context, c model.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CustomerRepoMock) FindByID(ctx context.Context, customerID int64) (model.Customer, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) List(ctx context.Context, page, limit int, q string) ([]model.Customer, int64, error) {
	args := m.Called(ctx, page, limit, q)
	items, _ := args.Get(0).([]model.Customer)
	return items, args.Get(1).(int64), args.Error(2)
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	created, _ := args.Get(0).(model.Category)
	return created, args.Error(1)
}

func (m *CategoryRepoMock) Update(ctx context.Context, c model.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CategoryRepoMock) FindByID(ctx context.Context, categoryID int64) (model.Category, error) {
	args := m.Called(ctx, categoryID)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Category)
	return items, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(model.User)
	return created, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]model.AuditLog)
	return items, args.Error(1)
}

// =====================
// トランザクションのスタブ。fnをそのまま実行するだけ。
// =====================

type txReposStub struct {
	products  repo.ProductRepository
	movements repo.StockMovementRepository
	sales     repo.SaleRepository
	saleItems repo.SaleItemRepository
	customers repo.CustomerRepository
}

func (r *txReposStub) Products() repo.ProductRepository        { return r.products }
func (r *txReposStub) Movements() repo.StockMovementRepository { return r.movements }
func (r *txReposStub) Sales() repo.SaleRepository              { return r.sales }
func (r *txReposStub) SaleItems() repo.SaleItemRepository      { return r.saleItems }
func (r *txReposStub) Customers() repo.CustomerRepository      { return r.customers }

type txManagerStub struct {
	repos *txReposStub
}

func (m *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}
