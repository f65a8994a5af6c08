package main

import (
	"backoffice/internal/config"
	"backoffice/internal/domain/model"
	"backoffice/internal/handler"
	"backoffice/internal/infra/db"
	infraRepo "backoffice/internal/infra/repository"
	"backoffice/internal/server"
	"backoffice/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := config.NewLogger(cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.WithError(err).Fatal("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Category{},
		&model.Product{},
		&model.StockMovement{},
		&model.Sale{},
		&model.SaleItem{},
		&model.AuditLog{},
	); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	movementRepo := infraRepo.NewStockMovementGormRepository(gormDB)
	saleRepo := infraRepo.NewSaleGormRepository(gormDB)
	saleItemRepo := infraRepo.NewSaleItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, logger)
	productUC := usecase.NewProductUsecase(txManager, productRepo, categoryRepo, logger)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, logger)
	customerUC := usecase.NewCustomerUsecase(customerRepo, logger)
	inventoryUC := usecase.NewInventoryUsecase(txManager, movementRepo, productRepo, auditRepo, logger)
	saleUC := usecase.NewSaleUsecase(txManager, inventoryUC, saleRepo, saleItemRepo, movementRepo, customerRepo, auditRepo, logger)
	auditUC := usecase.NewAuditUsecase(auditRepo, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Inventory:    handler.NewInventoryHandler(inventoryUC),
		Sale:         handler.NewSaleHandler(saleUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Customer:     handler.NewCustomerHandler(customerUC),
		Audit:        handler.NewAuditHandler(auditUC),
	}

	//Server起動
	e := server.New(cfg, handlers)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	logger.WithField("addr", addr).Info("starting server")
	if err := e.Start(addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
