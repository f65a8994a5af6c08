package server

import (
	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Inventory    *handler.InventoryHandler
	Sale         *handler.SaleHandler
	Category     *handler.CategoryHandler
	Customer     *handler.CustomerHandler
	Audit        *handler.AuditHandler
}

// Newはルーティング済みのechoを返す。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())

	//スタッフ以上（要ログイン）
	staff := e.Group("")
	staff.Use(middleware.AuthJWT(cfg))

	//管理者のみ
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	h.Auth.RegisterRoutes(e, admin)
	h.Product.RegisterRoutes(staff)
	h.AdminProduct.RegisterRoutes(admin)
	h.Inventory.RegisterRoutes(admin)
	h.Sale.RegisterRoutes(staff, admin)
	h.Category.RegisterRoutes(staff, admin)
	h.Customer.RegisterRoutes(staff)
	h.Audit.RegisterRoutes(admin)

	return e
}
