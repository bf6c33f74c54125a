package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopee_dev_v1_202608/internal/controller"
	"shopee_dev_v1_202608/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	authCtl *controller.AuthController,
	syncCtl *controller.SyncController,
	shopCtl *controller.ShopController) {
	r.Use(middleware.RequestID())

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// auth 授权组
		auth := api.Group("/auth")
		{
			// GET /api/auth/url
			auth.GET("/url", authCtl.GetAuthURL)

			// GET /api/auth/callback
			auth.GET("/callback", authCtl.Callback)

			// POST /api/auth/refresh
			auth.POST("/refresh", authCtl.RefreshToken)
		}

		// shop 店铺组
		shops := api.Group("/shops")
		{
			// GET /api/shops
			shops.GET("", shopCtl.ListShops)

			// GET /api/shops/:shop_id/orders
			shops.GET("/:shop_id/orders", shopCtl.ListOrders)

			// GET /api/shops/:shop_id/products
			shops.GET("/:shop_id/products", shopCtl.ListProducts)

			// 手动同步入口，带店铺级冷却限流
			shops.POST("/:shop_id/sync/orders",
				middleware.SyncRateLimit(middleware.SyncTypeOrder, 0),
				syncCtl.SyncOrders)
			shops.POST("/:shop_id/sync/products",
				middleware.SyncRateLimit(middleware.SyncTypeProduct, 0),
				syncCtl.SyncProducts)
		}

		// product 商品组
		products := api.Group("/products")
		{
			products.GET("/:id", shopCtl.GetProduct)
		}
	}
}
