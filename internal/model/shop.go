package model

import (
	"time"
)

// Shop 店铺状态常量
const (
	ShopStatusPending    = 0 // 待授权
	ShopStatusAuthorized = 1 // 已授权
	ShopStatusDisabled   = 2 // 已停用
)

// Token 状态常量
const (
	TokenStatusValid   = "valid"        // 有效
	TokenStatusExpired = "expired"      // 已过期
	TokenStatusInvalid = "auth_invalid" // 需重新授权
)

// Shop 店铺
// 订单和商品都挂在内部 ID 下；平台侧 shop_id 不保证跨店铺全局唯一，
// 所以业务数据一律用 (内部 shop id, 平台 id) 定位。
type Shop struct {
	BaseModel

	// 核心身份
	ShopeeShopID int64  `gorm:"uniqueIndex;not null"` // 平台侧 shop_id
	ShopName     string `gorm:"size:100"`
	Region       string `gorm:"size:20"`

	// 授权状态
	Status int `gorm:"default:0;comment:状态 0-待授权 1-已授权 2-已停用"`

	// API Token
	// 周期检测 token 是否临期，由 TokenTask 负责保活
	TokenStatus           string `gorm:"index;size:20;default:'auth_invalid'"`
	AccessToken           string `gorm:"size:512"`
	RefreshToken          string `gorm:"size:512"`
	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time

	// 最后同步时间
	OrderSyncedAt   *time.Time
	ProductSyncedAt *time.Time

	// 关联
	Orders   []Order   `gorm:"foreignKey:ShopID"`
	Products []Product `gorm:"foreignKey:ShopID"`
}

func (Shop) TableName() string {
	return "shops"
}

// HasValidRefreshToken 刷新令牌是否仍然可用
func (s *Shop) HasValidRefreshToken(now time.Time) bool {
	if s.RefreshToken == "" {
		return false
	}
	if s.RefreshTokenExpiresAt == nil {
		return true
	}
	return s.RefreshTokenExpiresAt.After(now)
}

// TokenExpiringWithin access token 是否在 d 时间内过期
func (s *Shop) TokenExpiringWithin(now time.Time, d time.Duration) bool {
	if s.AccessToken == "" || s.AccessTokenExpiresAt == nil {
		return false
	}
	return s.AccessTokenExpiresAt.Before(now.Add(d))
}
