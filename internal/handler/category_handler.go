package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

// DI
func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(staff *echo.Group, admin *echo.Group) {
	staff.GET("/categories", h.list)

	admin.POST("/categories", h.create)
	admin.PUT("/categories/:id", h.update)
}

func (h *CategoryHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CategoryHandler) create(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cat, err := h.uc.Create(c.Request().Context(), adminID, usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Update(c.Request().Context(), adminID, id, usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
}
