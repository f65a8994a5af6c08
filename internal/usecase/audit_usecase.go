package usecase

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/sirupsen/logrus"
)

// 監査ログの参照。書き込みは各usecaseのemit側が持つ。
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
	logger    *logrus.Logger
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository, logger *logrus.Logger) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo, logger: logger}
}

type AuditListInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditListOutput struct {
	Items []model.AuditLog `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditUsecase) List(ctx context.Context, in AuditListInput) (AuditListOutput, error) {
	if in.Page < 1 {
		return AuditListOutput{}, NewError(KindInvalidArgument, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return AuditListOutput{}, NewError(KindInvalidArgument, "invalid limit")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}

	if s := strings.TrimSpace(in.Action); s != "" {
		action := model.AuditAction(strings.ToUpper(s))
		switch action {
		case model.AuditActionStockMovement, model.AuditActionCreateSale, model.AuditActionUpdateSaleStatus:
			f.Action = &action
		default:
			return AuditListOutput{}, NewError(KindInvalidArgument, "invalid action")
		}
	}

	if s := strings.TrimSpace(in.ResourceType); s != "" {
		rt := model.AuditResourceType(strings.ToLower(s))
		switch rt {
		case model.AuditResourceProduct, model.AuditResourceSale, model.AuditResourceUser:
			f.ResourceType = &rt
		default:
			return AuditListOutput{}, NewError(KindInvalidArgument, "invalid resource_type")
		}
	}

	items, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditListOutput{}, internalError(u.logger, "audit", "List", err)
	}

	return AuditListOutput{
		Items: items,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}
