package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storesync/internal/controller"
	"storesync/internal/middleware"
	"storesync/internal/model"
	"storesync/internal/repository"
	"storesync/internal/router"
	"storesync/internal/service"
	"storesync/internal/task"
	"storesync/pkg/database"
	"storesync/pkg/logger"
)

// @title StoreSync API
// @version 1.0
// @description 多租户店铺商品同步服务：接入 Shopify 店铺，导入商品到本地，编辑后回推远程
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. 加载环境配置
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	zlog := logger.Init()
	defer zlog.Sync()

	middleware.SetJWTConfig(jwtConfigFromEnv())

	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User    repository.UserRepository
	Store   repository.StoreRepository
	Product repository.ProductRepository
}

// Services 服务集合
type Services struct {
	Auth    *service.AuthService
	Store   *service.StoreService
	Product *service.ProductService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL",
		"host=localhost user=postgres password=postgres dbname=storesync port=5432 sslmode=disable")
	return database.InitDB(dsn,
		// Account
		&model.User{},
		// Store
		&model.Store{},
		// Product
		&model.Product{}, &model.ProductVariant{}, &model.ProductTag{}, &model.ProductMetafield{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		User:    repository.NewUserRepository(db),
		Store:   repository.NewStoreRepository(db),
		Product: repository.NewProductRepository(db),
	}

	// -------- 业务服务 --------
	services := &Services{}
	services.Auth = service.NewAuthService(repos.User)
	services.Store = service.NewStoreService(repos.Store)
	services.Product = service.NewProductService(repos.Product, repos.Store, service.SyncConfig{
		CreateMissingMetafields: getEnv("SYNC_CREATE_METAFIELDS", "") == "true",
	})

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:           controller.NewAuthController(services.Auth),
		Store:          controller.NewStoreController(services.Store, services.Product),
		Product:        controller.NewProductController(services.Product),
		ImportCooldown: importCooldownFromEnv(),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// importCooldownFromEnv 手动导入冷却间隔，默认 1 分钟，0 表示不限流
func importCooldownFromEnv() time.Duration {
	raw := getEnv("IMPORT_COOLDOWN_SECONDS", "60")
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return time.Minute
	}
	return time.Duration(secs) * time.Second
}

// jwtConfigFromEnv 从环境变量构造 JWT 配置
func jwtConfigFromEnv() *middleware.JWTConfig {
	cfg := middleware.DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.SecretKey = secret
	}
	return cfg
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// 商品定时导入，IMPORT_CRON 为空时不启动
	importTask := task.NewImportTask(
		deps.Repos.Store,
		deps.Services.Product,
		getEnv("IMPORT_CRON", ""),
	)
	importTask.Start()

	zap.L().Info("定时任务初始化完成")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
