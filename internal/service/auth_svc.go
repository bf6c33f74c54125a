package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/pkg/shopee"
)

const authPartnerPath = "/api/v2/shop/auth_partner"

// ==================== 依赖接口 ====================

// AuthGateway 授权相关的平台调用入口，由 pkg/shopee.Client 实现
type AuthGateway interface {
	CallAuth(ctx context.Context, method, path string, query url.Values, body, out interface{}) error
	RefreshAccessToken(ctx context.Context, shopID int64) (*shopee.Credential, error)
}

// ==================== AuthService ====================

// AuthService 店铺授权服务
// 生成授权链接、处理授权回调、手动刷新 token
type AuthService struct {
	cfg      shopee.Config
	redirect string
	shopRepo repository.ShopRepository
	gateway  AuthGateway
}

// NewAuthService 创建授权服务
func NewAuthService(cfg shopee.Config, redirectURL string, shopRepo repository.ShopRepository, gateway AuthGateway) *AuthService {
	return &AuthService{
		cfg:      cfg,
		redirect: redirectURL,
		shopRepo: shopRepo,
		gateway:  gateway,
	}
}

// BuildAuthURL 生成卖家授权跳转链接
// 授权页是平台托管的，签名只含 partner_id + path + timestamp
func (s *AuthService) BuildAuthURL() string {
	timestamp := time.Now().Unix()
	sign := shopee.Sign(s.cfg.PartnerKey, s.cfg.PartnerID, authPartnerPath, timestamp, "", 0)

	params := url.Values{}
	params.Set("partner_id", strconv.FormatInt(s.cfg.PartnerID, 10))
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("sign", sign)
	params.Set("redirect", s.redirect)

	return s.cfg.BaseURL + authPartnerPath + "?" + params.Encode()
}

// HandleCallback 处理授权回调：用 code 换 token 并落库店铺
// 店铺已存在时只更新凭证和状态，不动业务数据
func (s *AuthService) HandleCallback(ctx context.Context, code string, shopeeShopID int64) (*model.Shop, error) {
	if code == "" || shopeeShopID <= 0 {
		return nil, fmt.Errorf("授权回调参数不完整")
	}

	var tokenResp shopee.TokenResponse
	reqBody := map[string]interface{}{
		"code":       code,
		"shop_id":    shopeeShopID,
		"partner_id": s.cfg.PartnerID,
	}
	if err := s.gateway.CallAuth(ctx, "POST", "/api/v2/auth/token/get", nil, reqBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("换取 token 失败: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("换取 token 响应缺少 access_token")
	}

	now := time.Now()
	accessExpiresAt := now.Add(time.Duration(tokenResp.ExpireIn) * time.Second)
	refreshExpiresAt := now.Add(time.Duration(tokenResp.RefreshExpireIn) * time.Second)

	shop, err := s.shopRepo.GetByShopeeShopID(ctx, shopeeShopID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("查询店铺失败: %w", err)
		}
		shop = &model.Shop{ShopeeShopID: shopeeShopID}
	}

	shop.Status = model.ShopStatusAuthorized
	shop.TokenStatus = model.TokenStatusValid
	shop.AccessToken = tokenResp.AccessToken
	shop.RefreshToken = tokenResp.RefreshToken
	shop.AccessTokenExpiresAt = &accessExpiresAt
	shop.RefreshTokenExpiresAt = &refreshExpiresAt

	if shop.ID == 0 {
		err = s.shopRepo.Create(ctx, shop)
	} else {
		err = s.shopRepo.Update(ctx, shop)
	}
	if err != nil {
		return nil, fmt.Errorf("保存店铺授权失败: %w", err)
	}

	log.Printf("[Auth] 店铺 %d 授权成功，token 有效期至 %s", shopeeShopID, accessExpiresAt.Format(time.RFC3339))
	return shop, nil
}

// RefreshToken 手动刷新指定店铺的 access token
func (s *AuthService) RefreshToken(ctx context.Context, shopeeShopID int64) error {
	shop, err := s.shopRepo.GetByShopeeShopID(ctx, shopeeShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShopNotRegistered
		}
		return fmt.Errorf("查询店铺失败: %w", err)
	}

	if _, err := s.gateway.RefreshAccessToken(ctx, shopeeShopID); err != nil {
		// 刷新失败说明 refresh token 也不可用了，标记待重新授权
		if uerr := s.shopRepo.UpdateTokenStatus(ctx, shop.ID, model.TokenStatusInvalid); uerr != nil {
			log.Printf("[Auth] 店铺 %d 更新 token 状态失败: %v", shopeeShopID, uerr)
		}
		return fmt.Errorf("刷新 token 失败: %w", err)
	}
	return nil
}
