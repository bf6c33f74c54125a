package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/config"
	"shopee_dev_v1_202608/internal/controller"
	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/internal/router"
	"shopee_dev_v1_202608/internal/service"
	"shopee_dev_v1_202608/internal/task"
	"shopee_dev_v1_202608/pkg/database"
	"shopee_dev_v1_202608/pkg/shopee"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(cfg, db)

	// 4. 启动定时任务
	initTasks(cfg, deps)

	// 5. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.AuthCtl, deps.SyncCtl, deps.ShopCtl)

	// 6. 启动服务
	startServer(cfg, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB     *gorm.DB
	Client *shopee.Client

	ShopRepo     repository.ShopRepository
	OrderRepo    repository.OrderRepository
	SnapshotRepo repository.AddressSnapshotRepository
	ProductRepo  repository.ProductRepository

	AuthService *service.AuthService
	OrderSync   *service.OrderSyncService
	ProductSync *service.ProductSyncService

	AuthCtl *controller.AuthController
	SyncCtl *controller.SyncController
	ShopCtl *controller.ShopController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(
		cfg.Database.DSN(),
		// Shop
		&model.Shop{},
		// Order
		&model.Order{}, &model.OrderAddressSnapshot{},
		// Product
		&model.Product{}, &model.ProductImage{}, &model.ProductModel{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	shopRepo := repository.NewShopRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	snapshotRepo := repository.NewAddressSnapshotRepository(db)
	productRepo := repository.NewProductRepository(db)

	// -------- 平台客户端 --------
	clientCfg := shopee.Config{
		PartnerID:  cfg.Shopee.PartnerID,
		PartnerKey: cfg.Shopee.PartnerKey,
		BaseURL:    cfg.Shopee.APIBase,
	}
	client := shopee.NewClient(clientCfg, shopRepo)

	// -------- 业务服务 --------
	authService := service.NewAuthService(clientCfg, cfg.Shopee.RedirectURL, shopRepo, client)
	orderSync := service.NewOrderSyncService(shopRepo, orderRepo, snapshotRepo, client)
	productSync := service.NewProductSyncService(shopRepo, productRepo, client)

	return &Dependencies{
		DB:           db,
		Client:       client,
		ShopRepo:     shopRepo,
		OrderRepo:    orderRepo,
		SnapshotRepo: snapshotRepo,
		ProductRepo:  productRepo,
		AuthService:  authService,
		OrderSync:    orderSync,
		ProductSync:  productSync,
		AuthCtl:      controller.NewAuthController(authService),
		SyncCtl:      controller.NewSyncController(orderSync, productSync),
		ShopCtl:      controller.NewShopController(shopRepo, orderRepo, productRepo),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(cfg *config.Config, deps *Dependencies) {
	// Token 保活
	tokenTask := task.NewTokenTask(deps.ShopRepo, deps.AuthService)
	tokenTask.Start()

	// 订单同步
	orderTask := task.NewOrderSyncTask(deps.ShopRepo, deps.OrderSync)
	orderTask.SetConcurrency(cfg.Sync.OrderConcurrency, 200*time.Millisecond)
	orderTask.Start()

	// 商品同步
	productTask := task.NewProductSyncTask(deps.ShopRepo, deps.ProductSync)
	productTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(cfg *config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
