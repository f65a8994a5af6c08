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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// 売上の作成とステータス遷移。
// 在庫はここでは直接触らず、必ずInventoryUsecase経由で動かす。
type SaleUsecase struct {
	tx        repo.TransactionManager
	inventory *InventoryUsecase
	sales     repo.SaleRepository
	saleItems repo.SaleItemRepository
	movements repo.StockMovementRepository
	customers repo.CustomerRepository
	auditRepo repo.AuditLogRepository
	logger    *logrus.Logger
}

func NewSaleUsecase(
	tx repo.TransactionManager,
	inventory *InventoryUsecase,
	sales repo.SaleRepository,
	saleItems repo.SaleItemRepository,
	movements repo.StockMovementRepository,
	customers repo.CustomerRepository,
	auditRepo repo.AuditLogRepository,
	logger *logrus.Logger,
) *SaleUsecase {
	return &SaleUsecase{
		tx:        tx,
		inventory: inventory,
		sales:     sales,
		saleItems: saleItems,
		movements: movements,
		customers: customers,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

type SaleItemInput struct {
	ProductID         int64
	Quantity          int64
	UnitPriceOverride *decimal.Decimal
}

type CreateSaleInput struct {
	CustomerID     *int64
	Items          []SaleItemInput
	PaymentMethod  string
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
}

type SaleOutput struct {
	Sale     model.Sale       `json:"sale"`
	Items    []model.SaleItem `json:"items"`
	Customer *model.Customer  `json:"customer,omitempty"`

	//詳細取得時のみ。売上に紐づく台帳（SALE / RETURN）
	Movements []model.StockMovement `json:"movements,omitempty"`
}

// 売上番号。時刻＋ランダムサフィックス。最終的な一意性はDBの一意制約が保証する。
func newSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("S-%s-%s", now.Format("20060102150405"), suffix)
}

// CreateSaleは複数明細の売上を1トランザクションで作る。
// 明細の検証・価格スナップショット・売上行・明細行・SALEの台帳追記まで全部このトランザクション内。
// どれか1明細でも在庫不足なら全体が失敗する（部分的な売上は残さない）。
func (u *SaleUsecase) CreateSale(ctx context.Context, staffUserID int64, in CreateSaleInput) (SaleOutput, error) {
	if staffUserID <= 0 {
		return SaleOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return SaleOutput{}, NewError(KindInvalidArgument, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return SaleOutput{}, NewError(KindInvalidArgument, "invalid product id")
		}
		if it.Quantity <= 0 {
			return SaleOutput{}, NewError(KindInvalidArgument, "quantity must be > 0")
		}
		if it.UnitPriceOverride != nil && it.UnitPriceOverride.IsNegative() {
			return SaleOutput{}, NewError(KindInvalidArgument, "unit_price must be >= 0")
		}
	}
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if !method.Valid() {
		return SaleOutput{}, NewError(KindInvalidArgument, "invalid payment method")
	}
	if in.TaxAmount.IsNegative() {
		return SaleOutput{}, NewError(KindInvalidArgument, "tax_amount must be >= 0")
	}
	if in.DiscountAmount.IsNegative() {
		return SaleOutput{}, NewError(KindInvalidArgument, "discount must be >= 0")
	}

	now := time.Now()
	saleNumber := newSaleNumber(now)

	var out SaleOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//顧客は任意。指定があれば存在確認
		var customer *model.Customer
		if in.CustomerID != nil {
			c, err := r.Customers().FindByID(ctx, *in.CustomerID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewError(KindNotFound, "customer not found")
			}
			if err != nil {
				return internalError(u.logger, "sale", "CreateSale", err)
			}
			customer = &c
		}

		//明細は入力順に処理。価格は行ロック下で読んだ現在値をスナップショット
		items := make([]model.SaleItem, 0, len(in.Items))
		subtotal := decimal.Zero

		for _, it := range in.Items {
			p, err := r.Products().FindByIDForUpdate(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewError(KindNotFound, "product not found")
			}
			if err != nil {
				return internalError(u.logger, "sale", "CreateSale", err)
			}
			if !p.IsActive {
				return NewError(KindNotFound, "product not found")
			}
			if p.Quantity < it.Quantity {
				return Errorf(
					KindInsufficientStock,
					"insufficient stock for product %q: requested %d, available %d",
					p.Name, it.Quantity, p.Quantity,
				)
			}

			unit := p.Price
			if it.UnitPriceOverride != nil {
				unit = *it.UnitPriceOverride
			}
			lineTotal := unit.Mul(decimal.NewFromInt(it.Quantity))
			subtotal = subtotal.Add(lineTotal)

			items = append(items, model.SaleItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPrice:           unit,
				Quantity:            it.Quantity,
				LineTotal:           lineTotal,
				CreatedAt:           now,
			})
		}

		finalAmount := subtotal.Add(in.TaxAmount).Sub(in.DiscountAmount)
		if finalAmount.IsNegative() {
			return NewError(KindInvalidArgument, "discount exceeds total")
		}

		//カート・下書きの段階は持たないので、作成時点でCOMPLETED
		sale, err := r.Sales().Create(ctx, model.Sale{
			SaleNumber:     saleNumber,
			CustomerID:     in.CustomerID,
			StaffUserID:    staffUserID,
			Subtotal:       subtotal,
			TaxAmount:      in.TaxAmount,
			DiscountAmount: in.DiscountAmount,
			FinalAmount:    finalAmount,
			PaymentMethod:  method,
			Status:         model.SaleStatusCompleted,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if errors.Is(err, repo.ErrConflict) {
			return NewError(KindConflict, "sale number conflict")
		}
		if err != nil {
			return internalError(u.logger, "sale", "CreateSale", err)
		}

		created, err := r.SaleItems().CreateBulk(ctx, sale.ID, items)
		if err != nil {
			return internalError(u.logger, "sale", "CreateSale", err)
		}

		//在庫の減算は明細ごとに台帳経由。売上と同じトランザクションに入れて、
		//売上だけ残って在庫が減っていない、という穴を塞ぐ。
		for _, it := range created {
			_, err := u.inventory.ApplySaleMovement(ctx, r, SaleMovementInput{
				ProductID:   it.ProductID,
				Quantity:    it.Quantity,
				SaleID:      sale.ID,
				ActorUserID: staffUserID,
				Type:        model.MovementSale,
			})
			if err != nil {
				return err
			}
		}

		out = SaleOutput{Sale: sale, Items: created, Customer: customer}
		return nil
	})
	if err != nil {
		return SaleOutput{}, err
	}

	u.emitSaleAudit(ctx, staffUserID, out.Sale.ID, model.AuditActionCreateSale,
		`{}`,
		fmt.Sprintf(`{"sale_number":%q,"status":%q,"final_amount":%q}`,
			out.Sale.SaleNumber, string(out.Sale.Status), out.Sale.FinalAmount.String()),
	)

	return out, nil
}

type UpdateSaleStatusInput struct {
	Status string
	Reason string
}

// UpdateStatusは遷移表に従ったステータス更新。
// CANCELLED / REFUNDEDへの遷移では明細ごとにRETURNを台帳へ追記して在庫を戻す。
// 元のSALEの行は消さない（打ち消しの新しい行を足す）。
func (u *SaleUsecase) UpdateStatus(ctx context.Context, actorUserID int64, saleID int64, in UpdateSaleStatusInput) (SaleOutput, error) {
	if actorUserID <= 0 {
		return SaleOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if saleID <= 0 {
		return SaleOutput{}, NewError(KindInvalidArgument, "invalid sale id")
	}

	newStatus := model.SaleStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return SaleOutput{}, NewError(KindInvalidArgument, "invalid status")
	}

	var out SaleOutput
	var beforeStatus model.SaleStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Sales().FindByIDForUpdate(ctx, saleID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindNotFound, "sale not found")
		}
		if err != nil {
			return internalError(u.logger, "sale", "UpdateStatus", err)
		}

		if !s.Status.CanTransitionTo(newStatus) {
			return Errorf(KindInvalidTransition, "cannot transition sale from %s to %s", s.Status, newStatus)
		}
		beforeStatus = s.Status

		if err := r.Sales().UpdateStatus(ctx, saleID, newStatus); err != nil {
			return internalError(u.logger, "sale", "UpdateStatus", err)
		}

		items, err := r.SaleItems().ListBySaleID(ctx, saleID)
		if err != nil {
			return internalError(u.logger, "sale", "UpdateStatus", err)
		}

		if newStatus.RequiresRestock() {
			for _, it := range items {
				_, err := u.inventory.ApplySaleMovement(ctx, r, SaleMovementInput{
					ProductID:   it.ProductID,
					Quantity:    it.Quantity,
					SaleID:      saleID,
					ActorUserID: actorUserID,
					Type:        model.MovementReturn,
				})
				if err != nil {
					return err
				}
			}
		}

		s.Status = newStatus
		s.UpdatedAt = time.Now()
		out = SaleOutput{Sale: s, Items: items}
		return nil
	})
	if err != nil {
		return SaleOutput{}, err
	}

	reason := strings.TrimSpace(in.Reason)
	u.emitSaleAudit(ctx, actorUserID, saleID, model.AuditActionUpdateSaleStatus,
		fmt.Sprintf(`{"status":%q}`, string(beforeStatus)),
		fmt.Sprintf(`{"status":%q,"reason":%q}`, string(newStatus), reason),
	)

	return out, nil
}

// GetSaleは明細・顧客・売上に紐づく台帳つきで1件返す。
func (u *SaleUsecase) GetSale(ctx context.Context, saleID int64) (SaleOutput, error) {
	if saleID <= 0 {
		return SaleOutput{}, NewError(KindInvalidArgument, "invalid sale id")
	}

	s, err := u.sales.FindByID(ctx, saleID)
	if errors.Is(err, repo.ErrNotFound) {
		return SaleOutput{}, NewError(KindNotFound, "sale not found")
	}
	if err != nil {
		return SaleOutput{}, internalError(u.logger, "sale", "GetSale", err)
	}

	items, err := u.saleItems.ListBySaleID(ctx, saleID)
	if err != nil {
		return SaleOutput{}, internalError(u.logger, "sale", "GetSale", err)
	}

	//返金済みならSALEとRETURNの両方が見える
	moves, err := u.movements.ListBySaleID(ctx, saleID)
	if err != nil {
		return SaleOutput{}, internalError(u.logger, "sale", "GetSale", err)
	}

	var customer *model.Customer
	if s.CustomerID != nil {
		c, err := u.customers.FindByID(ctx, *s.CustomerID)
		if err == nil {
			customer = &c
		}
	}

	return SaleOutput{Sale: s, Items: items, Customer: customer, Movements: moves}, nil
}

type ListSalesInput struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type SaleListOutput struct {
	Items []model.Sale `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *SaleUsecase) ListSales(ctx context.Context, in ListSalesInput) (SaleListOutput, error) {
	if in.Page < 1 {
		return SaleListOutput{}, NewError(KindInvalidArgument, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return SaleListOutput{}, NewError(KindInvalidArgument, "invalid limit")
	}

	f := repo.SaleListFilter{
		Page:  in.Page,
		Limit: in.Limit,
		From:  in.From,
		To:    in.To,
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		st := model.SaleStatus(strings.ToUpper(s))
		if !st.Valid() {
			return SaleListOutput{}, NewError(KindInvalidArgument, "invalid status")
		}
		f.Status = &st
	}

	sales, total, err := u.sales.List(ctx, f)
	if err != nil {
		return SaleListOutput{}, internalError(u.logger, "sale", "ListSales", err)
	}

	return SaleListOutput{
		Items: sales,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *SaleUsecase) emitSaleAudit(ctx context.Context, actorUserID, saleID int64, action model.AuditAction, beforeJSON, afterJSON string) {
	err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       action,
		ResourceType: model.AuditResourceSale,
		ResourceID:   saleID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		config.LogError(u.logger, "sale", "emitSaleAudit", "audit write failed", map[string]any{
			"sale_id": saleID,
			"action":  string(action),
		}, err)
	}
}
