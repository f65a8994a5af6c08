package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func assertErrKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	e, ok := AsError(err)
	if assert.True(t, ok, "expected *usecase.Error, got %v", err) {
		assert.Equal(t, kind, e.Kind)
	}
}

type inventoryFixture struct {
	uc        *InventoryUsecase
	products  *ProductRepoMock
	movements *MovementRepoMock
	audit     *AuditRepoMock
}

func newInventoryFixture() *inventoryFixture {
	products := new(ProductRepoMock)
	movements := new(MovementRepoMock)
	audit := new(AuditRepoMock)

	tx := &txManagerStub{repos: &txReposStub{
		products:  products,
		movements: movements,
		sales:     new(SaleRepoMock),
		saleItems: new(SaleItemRepoMock),
		customers: new(CustomerRepoMock),
	}}

	return &inventoryFixture{
		uc:        NewInventoryUsecase(tx, movements, products, audit, testLogger()),
		products:  products,
		movements: movements,
		audit:     audit,
	}
}

func activeProduct(id, qty int64) model.Product {
	return model.Product{
		ID:       id,
		SKU:      "SKU-001",
		Name:     "Drip Coffee",
		Price:    decimal.RequireFromString("9.99"),
		Quantity: qty,
		IsActive: true,
	}
}

// =====================
// StockIn
// =====================

func TestInventoryStockIn_Success(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 10), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(15)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementStockIn &&
			mv.Quantity == 5 &&
			mv.PreviousStock == 10 &&
			mv.NewStock == 15 &&
			mv.SaleID == nil
	})).Return(model.StockMovement{ID: 99, Type: model.MovementStockIn, Quantity: 5, PreviousStock: 10, NewStock: 15}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.StockIn(ctx, 7, 1, StockInInput{Quantity: 5, Reason: "restock"})
	assert.NoError(t, err)
	assert.Equal(t, int64(15), out.Product.Quantity)
	assert.Equal(t, int64(99), out.Movement.ID)

	//台帳の整合: NewStock − PreviousStock = 向き×数量
	assert.Equal(t, out.Movement.NewStock-out.Movement.PreviousStock,
		out.Movement.Type.Direction()*out.Movement.Quantity)

	f.products.AssertExpectations(t)
	f.movements.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestInventoryStockIn_WithCostPrice(t *testing.T) {
	f := newInventoryFixture()
	cost := decimal.RequireFromString("4.50")

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 0), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(3)).Return(nil)
	f.products.On("UpdateCostPrice", mock.Anything, int64(1), cost).Return(nil)
	f.movements.On("Create", mock.Anything, mock.Anything).Return(model.StockMovement{ID: 1}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.StockIn(context.Background(), 7, 1, StockInInput{Quantity: 3, CostPrice: &cost})
	assert.NoError(t, err)
	assert.True(t, out.Product.CostPrice.Equal(cost))

	f.products.AssertExpectations(t)
}

func TestInventoryStockIn_InvalidQuantity(t *testing.T) {
	f := newInventoryFixture()

	_, err := f.uc.StockIn(context.Background(), 7, 1, StockInInput{Quantity: 0})
	assertErrKind(t, err, KindInvalidArgument)

	_, err = f.uc.StockIn(context.Background(), 7, 1, StockInInput{Quantity: -4})
	assertErrKind(t, err, KindInvalidArgument)
}

func TestInventoryStockIn_ProductNotFound(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.StockIn(context.Background(), 7, 9, StockInInput{Quantity: 5})
	assertErrKind(t, err, KindNotFound)
}

func TestInventoryStockIn_InactiveProduct(t *testing.T) {
	f := newInventoryFixture()

	p := activeProduct(1, 10)
	p.IsActive = false
	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(p, nil)

	_, err := f.uc.StockIn(context.Background(), 7, 1, StockInInput{Quantity: 5})
	assertErrKind(t, err, KindNotFound)

	f.products.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// StockOut / Damage
// =====================

// 数量50・全量出庫で在庫0になる
func TestInventoryStockOut_ToZero(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 50), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(0)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementStockOut && mv.PreviousStock == 50 && mv.NewStock == 0
	})).Return(model.StockMovement{ID: 1, Type: model.MovementStockOut, Quantity: 50, PreviousStock: 50, NewStock: 0}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.StockOut(context.Background(), 7, 1, StockOutInput{Quantity: 50, Reason: "bulk order"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.Product.Quantity)

	f.products.AssertExpectations(t)
	f.movements.AssertExpectations(t)
}

func TestInventoryStockOut_Insufficient(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 3), nil)

	_, err := f.uc.StockOut(context.Background(), 7, 1, StockOutInput{Quantity: 5})
	assertErrKind(t, err, KindInsufficientStock)
	//メッセージは商品名・要求量・現在量を含む
	assert.Contains(t, err.Error(), "Drip Coffee")
	assert.Contains(t, err.Error(), "requested 5")
	assert.Contains(t, err.Error(), "available 3")

	//在庫もログも書かれない
	f.products.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	f.movements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInventoryRecordDamage_UsesDamageType(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 10), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(8)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementDamage && mv.Quantity == 2
	})).Return(model.StockMovement{ID: 1, Type: model.MovementDamage, Quantity: 2, PreviousStock: 10, NewStock: 8}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.RecordDamage(context.Background(), 7, 1, StockOutInput{Quantity: 2, Reason: "dropped"})
	assert.NoError(t, err)
	assert.Equal(t, model.MovementDamage, out.Movement.Type)
}

// repositoryの失敗は詳細を外に返さず、原因はログに残す
func TestInventoryStockIn_RepoFailureLogged(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	products := new(ProductRepoMock)
	movements := new(MovementRepoMock)
	tm := &txManagerStub{repos: &txReposStub{products: products, movements: movements}}
	uc := NewInventoryUsecase(tm, movements, products, new(AuditRepoMock), logger)

	products.On("FindByIDForUpdate", mock.Anything, int64(1)).
		Return(model.Product{}, errors.New("pq: connection reset"))

	_, err := uc.StockIn(context.Background(), 7, 1, StockInInput{Quantity: 5})
	assertErrKind(t, err, KindInternal)
	assert.NotContains(t, err.Error(), "connection reset")

	if assert.NotEmpty(t, hook.Entries) {
		last := hook.LastEntry()
		assert.Equal(t, logrus.ErrorLevel, last.Level)
		assert.Contains(t, last.Message, "connection reset")
	}
}

// 監査ログの失敗は本処理を失敗させない
func TestInventoryStockOut_AuditFailureIgnored(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 10), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(9)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.Anything).Return(model.StockMovement{ID: 1}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(errors.New("sink down"))

	_, err := f.uc.StockOut(context.Background(), 7, 1, StockOutInput{Quantity: 1})
	assert.NoError(t, err)
}

// トランザクションを直列化する状態つきのスタブ。
// 行ロック読みがコミット済みの値を返す、という契約だけを再現する。
type serialTxManager struct {
	mu    sync.Mutex
	repos repo.TxRepos
}

func (m *serialTxManager) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.repos)
}

type productStateStub struct {
	p model.Product
}

func (s *productStateStub) Create(_ context.Context, p model.Product) (model.Product, error) {
	return p, nil
}
func (s *productStateStub) Update(_ context.Context, _ model.Product) error      { return nil }
func (s *productStateStub) Deactivate(_ context.Context, _ int64) error          { return nil }
func (s *productStateStub) FindByID(_ context.Context, _ int64) (model.Product, error) {
	return s.p, nil
}
func (s *productStateStub) FindByIDForUpdate(_ context.Context, _ int64) (model.Product, error) {
	return s.p, nil
}
func (s *productStateStub) UpdateQuantity(_ context.Context, _ int64, newQuantity int64) error {
	s.p.Quantity = newQuantity
	return nil
}
func (s *productStateStub) UpdateCostPrice(_ context.Context, _ int64, _ decimal.Decimal) error {
	return nil
}
func (s *productStateStub) List(_ context.Context, _ repo.ProductListQuery) ([]model.Product, int64, error) {
	return nil, 0, nil
}

type movementLogStub struct {
	mu   sync.Mutex
	rows []model.StockMovement
}

func (s *movementLogStub) Create(_ context.Context, mv model.StockMovement) (model.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mv.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, mv)
	return mv, nil
}
func (s *movementLogStub) ListByProductID(_ context.Context, _ int64, _, _ int) ([]model.StockMovement, int64, error) {
	return nil, 0, nil
}
func (s *movementLogStub) ListBySaleID(_ context.Context, _ int64) ([]model.StockMovement, error) {
	return nil, nil
}

// 在庫10に対して7の出庫が2本同時に走ると、通るのは必ず片方だけ。
// 2本目の行ロック読みは1本目のコミット結果（3）を見るので、7は引けない。
func TestInventoryStockOut_CompetingDecrements(t *testing.T) {
	store := &productStateStub{p: activeProduct(1, 10)}
	moves := &movementLogStub{}
	audit := new(AuditRepoMock)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	tm := &serialTxManager{repos: &txReposStub{products: store, movements: moves}}
	uc := NewInventoryUsecase(tm, moves, store, audit, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.StockOut(context.Background(), 7, 1, StockOutInput{Quantity: 7, Reason: "order"})
		}(i)
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assertErrKind(t, err, KindInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "exactly one of the two decrements must fail")

	//成功した側だけが反映される: 10 → 3, 台帳も1行だけ
	assert.Equal(t, int64(3), store.p.Quantity)
	assert.Len(t, moves.rows, 1)
	assert.Equal(t, int64(10), moves.rows[0].PreviousStock)
	assert.Equal(t, int64(3), moves.rows[0].NewStock)
}

// =====================
// Adjust
// =====================

// 15 → 20 はSTOCK_IN 5として記録される
func TestInventoryAdjust_Up(t *testing.T) {
	f := newInventoryFixture()

	//Adjust本体とapplyMovementの両方が同じ行ロック読みを通る
	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 15), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(20)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementStockIn && mv.Quantity == 5 && mv.NewStock == 20
	})).Return(model.StockMovement{ID: 1, Type: model.MovementStockIn, Quantity: 5, PreviousStock: 15, NewStock: 20}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.Adjust(context.Background(), 7, 1, AdjustInput{TargetQuantity: 20, Reason: "stocktake"})
	assert.NoError(t, err)
	assert.Equal(t, model.MovementStockIn, out.Adjustment.Type)
	assert.Equal(t, int64(5), out.Adjustment.Quantity)
	assert.Equal(t, int64(20), out.Product.Quantity)
}

func TestInventoryAdjust_Down(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 15), nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(10)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementStockOut && mv.Quantity == 5 && mv.NewStock == 10
	})).Return(model.StockMovement{ID: 1, Type: model.MovementStockOut, Quantity: 5, PreviousStock: 15, NewStock: 10}, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.Adjust(context.Background(), 7, 1, AdjustInput{TargetQuantity: 10})
	assert.NoError(t, err)
	assert.Equal(t, model.MovementStockOut, out.Adjustment.Type)
	assert.Equal(t, int64(5), out.Adjustment.Quantity)
}

// 差分ゼロなら台帳には書かない
func TestInventoryAdjust_NoChange(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(activeProduct(1, 15), nil)

	out, err := f.uc.Adjust(context.Background(), 7, 1, AdjustInput{TargetQuantity: 15})
	assert.NoError(t, err)
	assert.Nil(t, out.Movement)
	assert.Equal(t, int64(15), out.Product.Quantity)

	f.movements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInventoryAdjust_NegativeTarget(t *testing.T) {
	f := newInventoryFixture()

	_, err := f.uc.Adjust(context.Background(), 7, 1, AdjustInput{TargetQuantity: -1})
	assertErrKind(t, err, KindInvalidArgument)
}

func TestInventoryAdjust_NotFound(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.Adjust(context.Background(), 7, 9, AdjustInput{TargetQuantity: 5})
	assertErrKind(t, err, KindNotFound)
}

// =====================
// ApplySaleMovement
// =====================

func TestApplySaleMovement_RejectsNonSaleTypes(t *testing.T) {
	f := newInventoryFixture()
	r := &txReposStub{products: f.products, movements: f.movements}

	_, err := f.uc.ApplySaleMovement(context.Background(), r, SaleMovementInput{
		ProductID: 1, Quantity: 1, SaleID: 1, ActorUserID: 7,
		Type: model.MovementStockOut,
	})
	assertErrKind(t, err, KindInvalidArgument)
}

func TestApplySaleMovement_ReturnRestocksInactiveProduct(t *testing.T) {
	f := newInventoryFixture()
	r := &txReposStub{products: f.products, movements: f.movements}

	//払い戻しの戻しは非アクティブ商品でも通る
	p := activeProduct(1, 2)
	p.IsActive = false
	f.products.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(p, nil)
	f.products.On("UpdateQuantity", mock.Anything, int64(1), int64(5)).Return(nil)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Type == model.MovementReturn && mv.SaleID != nil && *mv.SaleID == 44
	})).Return(model.StockMovement{ID: 1, Type: model.MovementReturn}, nil)

	_, err := f.uc.ApplySaleMovement(context.Background(), r, SaleMovementInput{
		ProductID: 1, Quantity: 3, SaleID: 44, ActorUserID: 7,
		Type: model.MovementReturn,
	})
	assert.NoError(t, err)

	f.products.AssertExpectations(t)
	f.movements.AssertExpectations(t)
}

// =====================
// ListMovements
// =====================

func TestListMovements_Validation(t *testing.T) {
	f := newInventoryFixture()

	_, err := f.uc.ListMovements(context.Background(), 0, 1, 20)
	assertErrKind(t, err, KindInvalidArgument)

	_, err = f.uc.ListMovements(context.Background(), 1, 0, 20)
	assertErrKind(t, err, KindInvalidArgument)

	_, err = f.uc.ListMovements(context.Background(), 1, 1, 101)
	assertErrKind(t, err, KindInvalidArgument)
}

func TestListMovements_Success(t *testing.T) {
	f := newInventoryFixture()

	f.products.On("FindByID", mock.Anything, int64(1)).Return(activeProduct(1, 10), nil)
	f.movements.On("ListByProductID", mock.Anything, int64(1), 20, 20).Return([]model.StockMovement{
		{ID: 3, Type: model.MovementSale},
	}, int64(41), nil)

	out, err := f.uc.ListMovements(context.Background(), 1, 2, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(41), out.Total)
	assert.Equal(t, 2, out.Page)
	assert.Len(t, out.Items, 1)
}
