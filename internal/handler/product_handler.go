package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/middleware"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := usecase.AsError(err); ok {
		return c.JSON(e.HTTPStatus(), ErrorResponse{Error: e.Message, Kind: string(e.Kind)})
	}

	//500。内部の詳細は返さない
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	id, ok := raw.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// page/limitのクエリを読む（default 1 / 20）
func pageLimit(c echo.Context) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewError(usecase.KindInvalidArgument, "invalid page")
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewError(usecase.KindInvalidArgument, "invalid limit")
		}
		limit = l
	}

	return page, limit, nil
}

// /products の参照API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/products", h.list)
	g.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.ListProductsInput{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
		}
		in.CategoryID = &id
	}

	out, err := h.uc.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
