package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 商品作成・更新の入力
type ProductRequest struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	CategoryID      int64           `json:"category_id"`
	Price           decimal.Decimal `json:"price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	InitialQuantity int64           `json:"initial_quantity"`
	MinStock        int64           `json:"min_stock"`
	MaxStock        int64           `json:"max_stock"`
	IsActive        bool            `json:"is_active"`
}

// /admin/products
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/products", h.create)
	admin.GET("/products", h.list)
	admin.PUT("/products/:id", h.update)
	admin.DELETE("/products/:id", h.deactivate)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, usecase.ProductInput{
		SKU:             req.SKU,
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Price:           req.Price,
		CostPrice:       req.CostPrice,
		InitialQuantity: req.InitialQuantity,
		MinStock:        req.MinStock,
		MaxStock:        req.MaxStock,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// 管理側は非アクティブ商品も見える
func (h *AdminProductHandler) list(c echo.Context) error {
	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:            page,
		Limit:           limit,
		Q:               c.QueryParam("q"),
		IncludeInactive: true,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	err = h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, usecase.ProductInput{
		SKU:        req.SKU,
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Price:      req.Price,
		CostPrice:  req.CostPrice,
		MinStock:   req.MinStock,
		MaxStock:   req.MaxStock,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
}

func (h *AdminProductHandler) deactivate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminDeactivateProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "deactivated"})
}
