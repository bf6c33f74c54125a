package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopee_dev_v1_202608/internal/service"
)

// AuthController 授权控制器
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController 创建授权控制器
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// ==================== Handler 实现 ====================

// GetAuthURL 获取卖家授权跳转链接
// GET /api/auth/url
func (c *AuthController) GetAuthURL(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"auth_url": c.authService.BuildAuthURL()},
	})
}

// Callback 授权回调，平台带 code 和 shop_id 跳回来
// GET /api/auth/callback?code=xxx&shop_id=123
func (c *AuthController) Callback(ctx *gin.Context) {
	code := ctx.Query("code")
	shopID, _ := strconv.ParseInt(ctx.Query("shop_id"), 10, 64)

	if code == "" || shopID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "缺少 code 或 shop_id",
		})
		return
	}

	shop, err := c.authService.HandleCallback(ctx.Request.Context(), code, shopID)
	if err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "授权成功",
		"data": gin.H{
			"shop_id":        shop.ID,
			"shopee_shop_id": shop.ShopeeShopID,
		},
	})
}

// RefreshToken 手动刷新店铺 token
// POST /api/auth/refresh?shop_id=123
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	shopID, _ := strconv.ParseInt(ctx.Query("shop_id"), 10, 64)
	if shopID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "缺少 shop_id",
		})
		return
	}

	if err := c.authService.RefreshToken(ctx.Request.Context(), shopID); err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "token 刷新成功",
	})
}
