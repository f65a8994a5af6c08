package handler

import (
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SaleItemRequest struct {
	ProductID         int64            `json:"product_id"`
	Quantity          int64            `json:"quantity"`
	UnitPriceOverride *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreateSaleRequest struct {
	CustomerID     *int64            `json:"customer_id,omitempty"`
	Items          []SaleItemRequest `json:"items"`
	PaymentMethod  string            `json:"payment_method"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
}

type UpdateSaleStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// /sales：スタッフの売上操作。ステータス更新だけ管理者権限。
type SaleHandler struct {
	uc *usecase.SaleUsecase
}

// DI
func NewSaleHandler(uc *usecase.SaleUsecase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

func (h *SaleHandler) RegisterRoutes(staff *echo.Group, admin *echo.Group) {
	staff.POST("/sales", h.create)
	staff.GET("/sales", h.list)
	staff.GET("/sales/:id", h.detail)

	admin.PATCH("/sales/:id/status", h.updateStatus)
}

func (h *SaleHandler) create(c echo.Context) error {
	var req CreateSaleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	staffID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	items := make([]usecase.SaleItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.SaleItemInput{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			UnitPriceOverride: it.UnitPriceOverride,
		})
	}

	out, err := h.uc.CreateSale(c.Request().Context(), staffID, usecase.CreateSaleInput{
		CustomerID:     req.CustomerID,
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *SaleHandler) list(c echo.Context) error {
	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.ListSalesInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
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

	out, err := h.uc.ListSales(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SaleHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetSale(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SaleHandler) updateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateSaleStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actorID, id, usecase.UpdateSaleStatusInput{
		Status: req.Status,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
