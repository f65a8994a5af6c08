package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// 在庫の現在値を変更できる唯一の入口。
// 1回の変更 = 1トランザクション内で「行ロック読み → 在庫書き込み → 台帳追記」。
type InventoryUsecase struct {
	tx        repo.TransactionManager
	movements repo.StockMovementRepository
	products  repo.ProductRepository
	auditRepo repo.AuditLogRepository
	logger    *logrus.Logger
}

func NewInventoryUsecase(
	tx repo.TransactionManager,
	movements repo.StockMovementRepository,
	products repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	logger *logrus.Logger,
) *InventoryUsecase {
	return &InventoryUsecase{
		tx:        tx,
		movements: movements,
		products:  products,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// 台帳への1回の追記の指示
type movementCommand struct {
	ProductID   int64
	ActorUserID int64
	Type        model.MovementType
	Quantity    int64
	Reason      string
	SaleID      *int64
}

// applyMovementは台帳の共通処理。必ず呼び出し元のトランザクション内で実行する。
// 同じトランザクションで現在値を読み直すので、同時実行の減算が両方通ることはない。
func applyMovement(ctx context.Context, r repo.TxRepos, logger *logrus.Logger, cmd movementCommand) (model.Product, model.StockMovement, error) {
	if !cmd.Type.Valid() {
		return model.Product{}, model.StockMovement{}, Errorf(KindInvalidArgument, "invalid movement type: %s", cmd.Type)
	}
	if cmd.Quantity <= 0 {
		return model.Product{}, model.StockMovement{}, NewError(KindInvalidArgument, "quantity must be > 0")
	}

	p, err := r.Products().FindByIDForUpdate(ctx, cmd.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, model.StockMovement{}, NewError(KindNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, model.StockMovement{}, internalError(logger, "inventory", "applyMovement", err)
	}

	//非アクティブ商品は動かさない。ただしRETURN（返金の戻し）だけは通す。
	if !p.IsActive && cmd.Type != model.MovementReturn {
		return model.Product{}, model.StockMovement{}, NewError(KindNotFound, "product not found")
	}

	prev := p.Quantity
	newQty := prev + cmd.Type.Direction()*cmd.Quantity
	if newQty < 0 {
		return model.Product{}, model.StockMovement{}, Errorf(
			KindInsufficientStock,
			"insufficient stock for product %q: requested %d, available %d",
			p.Name, cmd.Quantity, prev,
		)
	}

	if err := r.Products().UpdateQuantity(ctx, p.ID, newQty); err != nil {
		return model.Product{}, model.StockMovement{}, internalError(logger, "inventory", "applyMovement", err)
	}

	mv, err := r.Movements().Create(ctx, model.StockMovement{
		ProductID:     p.ID,
		ActorUserID:   cmd.ActorUserID,
		SaleID:        cmd.SaleID,
		Type:          cmd.Type,
		Quantity:      cmd.Quantity,
		PreviousStock: prev,
		NewStock:      newQty,
		Reason:        strings.TrimSpace(cmd.Reason),
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return model.Product{}, model.StockMovement{}, internalError(logger, "inventory", "applyMovement", err)
	}

	p.Quantity = newQty
	return p, mv, nil
}

type StockInInput struct {
	Quantity  int64
	Reason    string
	CostPrice *decimal.Decimal
}

type StockChangeOutput struct {
	Product  model.Product       `json:"product"`
	Movement model.StockMovement `json:"movement"`
}

// StockInは入庫。CostPriceがあれば原価も更新する。
func (u *InventoryUsecase) StockIn(ctx context.Context, actorUserID int64, productID int64, in StockInInput) (StockChangeOutput, error) {
	if actorUserID <= 0 {
		return StockChangeOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return StockChangeOutput{}, NewError(KindInvalidArgument, "invalid product id")
	}
	if in.Quantity <= 0 {
		return StockChangeOutput{}, NewError(KindInvalidArgument, "quantity must be > 0")
	}
	if in.CostPrice != nil && in.CostPrice.IsNegative() {
		return StockChangeOutput{}, NewError(KindInvalidArgument, "cost_price must be >= 0")
	}

	var out StockChangeOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, mv, err := applyMovement(ctx, r, u.logger, movementCommand{
			ProductID:   productID,
			ActorUserID: actorUserID,
			Type:        model.MovementStockIn,
			Quantity:    in.Quantity,
			Reason:      in.Reason,
		})
		if err != nil {
			return err
		}

		if in.CostPrice != nil {
			if err := r.Products().UpdateCostPrice(ctx, productID, *in.CostPrice); err != nil {
				return internalError(u.logger, "inventory", "StockIn", err)
			}
			p.CostPrice = *in.CostPrice
		}

		out = StockChangeOutput{Product: p, Movement: mv}
		return nil
	})
	if err != nil {
		return StockChangeOutput{}, err
	}

	u.emitAudit(ctx, actorUserID, productID, out.Movement)
	return out, nil
}

type StockOutInput struct {
	Quantity int64
	Reason   string
}

// StockOutは出庫。在庫が足りなければ InsufficientStock。
func (u *InventoryUsecase) StockOut(ctx context.Context, actorUserID int64, productID int64, in StockOutInput) (StockChangeOutput, error) {
	return u.stockDecrease(ctx, actorUserID, productID, model.MovementStockOut, in)
}

// RecordDamageは破損・廃棄の記録。出庫と同じ条件で減算する。
func (u *InventoryUsecase) RecordDamage(ctx context.Context, actorUserID int64, productID int64, in StockOutInput) (StockChangeOutput, error) {
	return u.stockDecrease(ctx, actorUserID, productID, model.MovementDamage, in)
}

func (u *InventoryUsecase) stockDecrease(ctx context.Context, actorUserID int64, productID int64, typ model.MovementType, in StockOutInput) (StockChangeOutput, error) {
	if actorUserID <= 0 {
		return StockChangeOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return StockChangeOutput{}, NewError(KindInvalidArgument, "invalid product id")
	}
	if in.Quantity <= 0 {
		return StockChangeOutput{}, NewError(KindInvalidArgument, "quantity must be > 0")
	}

	var out StockChangeOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, mv, err := applyMovement(ctx, r, u.logger, movementCommand{
			ProductID:   productID,
			ActorUserID: actorUserID,
			Type:        typ,
			Quantity:    in.Quantity,
			Reason:      in.Reason,
		})
		if err != nil {
			return err
		}

		out = StockChangeOutput{Product: p, Movement: mv}
		return nil
	})
	if err != nil {
		return StockChangeOutput{}, err
	}

	u.emitAudit(ctx, actorUserID, productID, out.Movement)
	return out, nil
}

type AdjustInput struct {
	TargetQuantity int64
	Reason         string
}

type AdjustOutput struct {
	Product  model.Product        `json:"product"`
	Movement *model.StockMovement `json:"movement,omitempty"`

	//実際に書いた台帳の向きと量
	Adjustment struct {
		Type     model.MovementType `json:"type"`
		Quantity int64              `json:"quantity"`
	} `json:"adjustment"`
}

// Adjustは棚卸しなどで在庫数を指定値に合わせる。
// 差分の向きでSTOCK_IN / STOCK_OUTとして台帳に残す。差分ゼロなら台帳には書かない。
func (u *InventoryUsecase) Adjust(ctx context.Context, actorUserID int64, productID int64, in AdjustInput) (AdjustOutput, error) {
	if actorUserID <= 0 {
		return AdjustOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return AdjustOutput{}, NewError(KindInvalidArgument, "invalid product id")
	}
	if in.TargetQuantity < 0 {
		return AdjustOutput{}, NewError(KindInvalidArgument, "target quantity must be >= 0")
	}

	var out AdjustOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "product not found")
		}
		if err != nil {
			return internalError(u.logger, "inventory", "Adjust", err)
		}

		diff := in.TargetQuantity - p.Quantity
		if diff == 0 {
			out.Product = p
			return nil
		}

		typ := model.MovementStockIn
		qty := diff
		if diff < 0 {
			typ = model.MovementStockOut
			qty = -diff
		}

		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = fmt.Sprintf("adjustment to %d", in.TargetQuantity)
		}

		p2, mv, err := applyMovement(ctx, r, u.logger, movementCommand{
			ProductID:   productID,
			ActorUserID: actorUserID,
			Type:        typ,
			Quantity:    qty,
			Reason:      reason,
		})
		if err != nil {
			return err
		}

		out.Product = p2
		out.Movement = &mv
		out.Adjustment.Type = typ
		out.Adjustment.Quantity = qty
		return nil
	})
	if err != nil {
		return AdjustOutput{}, err
	}

	if out.Movement != nil {
		u.emitAudit(ctx, actorUserID, productID, *out.Movement)
	}
	return out, nil
}

// 売上・返品による在庫移動。SaleUsecaseのトランザクション内からだけ呼ばれる。
type SaleMovementInput struct {
	ProductID   int64
	Quantity    int64
	SaleID      int64
	ActorUserID int64
	//MovementSale（減算） か MovementReturn（戻し）
	Type model.MovementType
}

func (u *InventoryUsecase) ApplySaleMovement(ctx context.Context, r repo.TxRepos, in SaleMovementInput) (model.StockMovement, error) {
	if in.Type != model.MovementSale && in.Type != model.MovementReturn {
		return model.StockMovement{}, Errorf(KindInvalidArgument, "invalid sale movement type: %s", in.Type)
	}
	if in.SaleID <= 0 {
		return model.StockMovement{}, NewError(KindInvalidArgument, "invalid sale id")
	}

	reason := "sale"
	if in.Type == model.MovementReturn {
		reason = "sale return"
	}

	saleID := in.SaleID
	_, mv, err := applyMovement(ctx, r, u.logger, movementCommand{
		ProductID:   in.ProductID,
		ActorUserID: in.ActorUserID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Reason:      reason,
		SaleID:      &saleID,
	})
	if err != nil {
		return model.StockMovement{}, err
	}
	return mv, nil
}

type MovementListOutput struct {
	Items []model.StockMovement `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// 商品ごとの台帳の参照（新しい順）。読み取り専用。
func (u *InventoryUsecase) ListMovements(ctx context.Context, productID int64, page, limit int) (MovementListOutput, error) {
	if productID <= 0 {
		return MovementListOutput{}, NewError(KindInvalidArgument, "invalid product id")
	}
	if page < 1 {
		return MovementListOutput{}, NewError(KindInvalidArgument, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return MovementListOutput{}, NewError(KindInvalidArgument, "invalid limit")
	}

	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return MovementListOutput{}, NewError(KindNotFound, "product not found")
		}
		return MovementListOutput{}, internalError(u.logger, "inventory", "ListMovements", err)
	}

	items, total, err := u.movements.ListByProductID(ctx, productID, limit, (page-1)*limit)
	if err != nil {
		return MovementListOutput{}, internalError(u.logger, "inventory", "ListMovements", err)
	}

	return MovementListOutput{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// 監査ログはコミット後のベストエフォート。失敗はログに残すだけで処理は失敗させない。
func (u *InventoryUsecase) emitAudit(ctx context.Context, actorUserID int64, productID int64, mv model.StockMovement) {
	beforeJSON := fmt.Sprintf(`{"quantity":%d}`, mv.PreviousStock)
	afterJSON := fmt.Sprintf(`{"quantity":%d,"movement_type":%q}`, mv.NewStock, string(mv.Type))

	err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionStockMovement,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		config.LogError(u.logger, "inventory", "emitAudit", "audit write failed", map[string]any{
			"product_id":  productID,
			"movement_id": mv.ID,
		}, err)
	}
}
