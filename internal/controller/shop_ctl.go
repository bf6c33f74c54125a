package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shopee_dev_v1_202608/internal/repository"
)

// ShopController 店铺数据查询控制器
// 只读视图，数据全部来自同步落库的结果
type ShopController struct {
	shopRepo    repository.ShopRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewShopController 创建店铺数据查询控制器
func NewShopController(
	shopRepo repository.ShopRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
) *ShopController {
	return &ShopController{
		shopRepo:    shopRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// ==================== Handler 实现 ====================

// ListShops 店铺列表
// GET /api/shops?status=1&page=1&page_size=20
func (c *ShopController) ListShops(ctx *gin.Context) {
	status := -1
	if s := ctx.Query("status"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			status = v
		}
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	shops, total, err := c.shopRepo.List(ctx.Request.Context(), repository.ShopFilter{
		ShopName:    ctx.Query("keyword"),
		Region:      ctx.Query("region"),
		Status:      status,
		TokenStatus: ctx.Query("token_status"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"total": total, "list": shops},
	})
}

// ListOrders 店铺订单列表
// GET /api/shops/:shop_id/orders?status=READY_TO_SHIP&page=1
func (c *ShopController) ListOrders(ctx *gin.Context) {
	shopID := parseShopID(ctx)
	if shopID == 0 {
		return
	}

	shop, err := c.shopRepo.GetByShopeeShopID(ctx.Request.Context(), shopID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "店铺未在系统中注册"})
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	filter := repository.OrderFilter{
		ShopID:   shop.ID,
		Status:   ctx.Query("status"),
		Keyword:  ctx.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	if s := ctx.Query("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.StartDate = &t
		}
	}
	if s := ctx.Query("end_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndDate = &endOfDay
		}
	}

	orders, total, err := c.orderRepo.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"total": total, "list": orders},
	})
}

// ListProducts 店铺商品列表
// GET /api/shops/:shop_id/products?status=NORMAL&page=1
func (c *ShopController) ListProducts(ctx *gin.Context) {
	shopID := parseShopID(ctx)
	if shopID == 0 {
		return
	}

	shop, err := c.shopRepo.GetByShopeeShopID(ctx.Request.Context(), shopID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "店铺未在系统中注册"})
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	products, total, err := c.productRepo.List(ctx.Request.Context(), repository.ProductFilter{
		ShopID:   shop.ID,
		Status:   ctx.Query("status"),
		Keyword:  ctx.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"total": total, "list": products},
	})
}

// GetProduct 商品详情（含图片和变体）
// GET /api/products/:id
func (c *ShopController) GetProduct(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的商品 ID"})
		return
	}

	product, err := c.productRepo.GetWithRelations(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "商品不存在"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": product})
}
