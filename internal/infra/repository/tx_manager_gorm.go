package repository

import (
	"context"

	repo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products  repo.ProductRepository
	movements repo.StockMovementRepository
	sales     repo.SaleRepository
	saleItems repo.SaleItemRepository
	customers repo.CustomerRepository
}

func (r *txReposGorm) Products() repo.ProductRepository        { return r.products }
func (r *txReposGorm) Movements() repo.StockMovementRepository { return r.movements }
func (r *txReposGorm) Sales() repo.SaleRepository              { return r.sales }
func (r *txReposGorm) SaleItems() repo.SaleItemRepository      { return r.saleItems }
func (r *txReposGorm) Customers() repo.CustomerRepository      { return r.customers }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:  NewProductGormRepository(tx),
			movements: NewStockMovementGormRepository(tx),
			sales:     NewSaleGormRepository(tx),
			saleItems: NewSaleItemGormRepository(tx),
			customers: NewCustomerGormRepository(tx),
		}
		return fn(r)
	})
}
