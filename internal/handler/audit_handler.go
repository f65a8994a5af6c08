package handler

import (
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/audit-logs：監査ログの参照。管理者のみ。
type AuditHandler struct {
	uc *usecase.AuditUsecase
}

// DI
func NewAuditHandler(uc *usecase.AuditUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/audit-logs", h.list)
}

func (h *AuditHandler) list(c echo.Context) error {
	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.AuditListInput{
		Page:         page,
		Limit:        limit,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
	}
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
		}
		in.ActorUserID = &id
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
		}
		in.ResourceID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		in.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		in.To = &t
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
