package repository

import "context"

// トランザクション内で使う約束。
// 在庫を動かす操作（入出庫・売上・返品）は必ずこの中で
// 「現在値の読み → 在庫書き込み → 台帳追記」を完結させる。
type TxRepos interface {
	Products() ProductRepository
	Movements() StockMovementRepository
	Sales() SaleRepository
	SaleItems() SaleItemRepository
	Customers() CustomerRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全部ロールバック。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
