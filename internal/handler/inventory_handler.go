package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type StockInRequest struct {
	Quantity  int64            `json:"quantity"`
	Reason    string           `json:"reason"`
	CostPrice *decimal.Decimal `json:"cost_price,omitempty"`
}

type StockOutRequest struct {
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
}

type AdjustRequest struct {
	TargetQuantity int64  `json:"target_quantity"`
	Reason         string `json:"reason"`
}

// /admin/inventory。在庫を動かす操作はすべてここから。
type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

// DI
func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

func (h *InventoryHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/inventory/:product_id/stock-in", h.stockIn)
	admin.POST("/inventory/:product_id/stock-out", h.stockOut)
	admin.POST("/inventory/:product_id/damage", h.damage)
	admin.PUT("/inventory/:product_id/adjust", h.adjust)
	admin.GET("/inventory/:product_id/movements", h.movements)
}

func productIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewError(usecase.KindInvalidArgument, "invalid product_id")
	}
	return id, nil
}

func (h *InventoryHandler) stockIn(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req StockInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.StockIn(c.Request().Context(), actorID, productID, usecase.StockInInput{
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		CostPrice: req.CostPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) stockOut(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req StockOutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.StockOut(c.Request().Context(), actorID, productID, usecase.StockOutInput{
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) damage(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req StockOutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.RecordDamage(c.Request().Context(), actorID, productID, usecase.StockOutInput{
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) adjust(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req AdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Adjust(c.Request().Context(), actorID, productID, usecase.AdjustInput{
		TargetQuantity: req.TargetQuantity,
		Reason:         req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) movements(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListMovements(c.Request().Context(), productID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
