package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CustomerHandler struct {
	uc *usecase.CustomerUsecase
}

// DI
func NewCustomerHandler(uc *usecase.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

func (h *CustomerHandler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/customers", h.list)
	staff.GET("/customers/:id", h.detail)
	staff.POST("/customers", h.create)
	staff.PUT("/customers/:id", h.update)
}

func (h *CustomerHandler) list(c echo.Context) error {
	page, limit, err := pageLimit(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), page, limit, c.QueryParam("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	cust, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *CustomerHandler) create(c echo.Context) error {
	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cust, err := h.uc.Create(c.Request().Context(), actorID, usecase.CustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cust)
}

func (h *CustomerHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Update(c.Request().Context(), actorID, id, usecase.CustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "updated"})
}
