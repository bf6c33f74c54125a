package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopee_dev_v1_202608/internal/service"
	"shopee_dev_v1_202608/pkg/shopee"
)

// SyncController 同步控制器
// 手动触发订单/商品同步，同步本体在 service 层，这里只做参数解析和错误映射
type SyncController struct {
	orderSync   *service.OrderSyncService
	productSync *service.ProductSyncService
}

// NewSyncController 创建同步控制器
func NewSyncController(orderSync *service.OrderSyncService, productSync *service.ProductSyncService) *SyncController {
	return &SyncController{
		orderSync:   orderSync,
		productSync: productSync,
	}
}

// ==================== Handler 实现 ====================

// SyncOrders 同步单个店铺订单
// POST /api/shops/:shop_id/sync/orders?range_days=7
func (c *SyncController) SyncOrders(ctx *gin.Context) {
	shopID := parseShopID(ctx)
	if shopID == 0 {
		return
	}

	rangeDays, _ := strconv.Atoi(ctx.Query("range_days"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size"))

	summary, err := c.orderSync.SyncOrders(ctx.Request.Context(), shopID, rangeDays, pageSize)
	if err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "订单同步完成",
		"data":    summary,
	})
}

// SyncProducts 同步单个店铺商品
// POST /api/shops/:shop_id/sync/products
func (c *SyncController) SyncProducts(ctx *gin.Context) {
	shopID := parseShopID(ctx)
	if shopID == 0 {
		return
	}

	pageSize, _ := strconv.Atoi(ctx.Query("page_size"))

	summary, err := c.productSync.SyncProducts(ctx.Request.Context(), shopID, pageSize)
	if err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "商品同步完成",
		"data":    summary,
	})
}

// ==================== 辅助函数 ====================

// parseShopID 解析路径里的平台 shop_id，非法时直接写响应并返回 0
func parseShopID(ctx *gin.Context) int64 {
	shopID, err := strconv.ParseInt(ctx.Param("shop_id"), 10, 64)
	if err != nil || shopID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的店铺 ID",
		})
		return 0
	}
	return shopID
}

// respondSyncError 同步失败的统一错误映射
// 店铺侧问题归 400，平台侧失败归 502，其余归 500
func respondSyncError(ctx *gin.Context, err error) {
	if errors.Is(err, service.ErrShopNotRegistered) || errors.Is(err, shopee.ErrMissingCredential) {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": err.Error(),
		})
		return
	}

	var rerr *shopee.RemoteError
	if errors.As(err, &rerr) {
		ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": err.Error(),
			"data": gin.H{
				"upstream_code":       rerr.Code,
				"upstream_request_id": rerr.RequestID,
			},
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{
		"code":    500,
		"message": err.Error(),
	})
}
