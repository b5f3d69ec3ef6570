package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storesync/internal/controller"
	"storesync/internal/middleware"

	_ "storesync/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Store   *controller.StoreController
	Product *controller.ProductController

	// ImportCooldown 手动导入的冷却间隔，0 表示不限流
	ImportCooldown time.Duration
}

// SetupRouter 构建 gin 引擎并注册全部路由
func SetupRouter(ctrls *Controllers) *gin.Engine {
	r := gin.Default()
	InitRoutes(r, ctrls.Auth, ctrls.Store, ctrls.Product, ctrls.ImportCooldown)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	authCtrl *controller.AuthController,
	storeCtrl *controller.StoreController,
	productCtrl *controller.ProductController,
	importCooldown time.Duration) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. 健康检查 + 指标
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 3. API 路由组
	api := r.Group("/api")
	{
		// auth 鉴权组（无需登录）
		auth := api.Group("/auth")
		{
			// POST /api/auth/register
			auth.POST("/register", authCtrl.Register)
			auth.POST("/login", authCtrl.Login)
			auth.POST("/refresh", authCtrl.Refresh)
		}

		// 以下全部需要 JWT 认证
		authed := api.Group("", middleware.JWTAuth())

		// store 店铺管理
		stores := authed.Group("/stores")
		{
			// GET /api/stores
			stores.GET("", storeCtrl.ListStores)
			stores.POST("", storeCtrl.CreateStore)
			stores.DELETE("/:id", storeCtrl.DeleteStore)
			// POST /api/stores/:id/import-products 全量导入，同店铺带冷却
			stores.POST("/:id/import-products", middleware.ImportCooldown(importCooldown), storeCtrl.ImportProducts)
		}

		// product 商品组
		products := authed.Group("/products")
		{
			// GET /api/products?storeId=
			products.GET("", productCtrl.ListProducts)
			products.GET("/:id", productCtrl.GetProduct)
			products.PUT("/:id", productCtrl.UpdateProduct)
		}
	}
}
