package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/pkg/shopee"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
// 同时实现 shopee.CredentialStore，客户端刷新 token 直接写回店铺表
type ShopRepository interface {
	shopee.CredentialStore

	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByShopeeShopID(ctx context.Context, shopeeShopID int64) (*model.Shop, error)
	Update(ctx context.Context, shop *model.Shop) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 列表查询
	List(ctx context.Context, filter ShopFilter) ([]model.Shop, int64, error)
	ListAuthorized(ctx context.Context) ([]model.Shop, error)
	ListExpiringTokens(ctx context.Context, before time.Time) ([]model.Shop, error)

	// 状态相关
	UpdateTokenStatus(ctx context.Context, id int64, tokenStatus string) error
	MarkOrderSynced(ctx context.Context, id int64, at time.Time) error
	MarkProductSynced(ctx context.Context, id int64, at time.Time) error
}

// ==================== 过滤条件 ====================

// ShopFilter 店铺过滤条件
type ShopFilter struct {
	ShopName    string
	Region      string
	Status      int // -1 表示不筛选
	TokenStatus string
	Page        int
	PageSize    int
}

// ==================== 仓储实现 ====================

// shopRepo 店铺仓储实现
type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) GetByShopeeShopID(ctx context.Context, shopeeShopID int64) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).Where("shopee_shop_id = ?", shopeeShopID).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) Update(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

func (r *shopRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Shop{}).Where("id = ?", id).Updates(fields).Error
}

func (r *shopRepo) List(ctx context.Context, filter ShopFilter) ([]model.Shop, int64, error) {
	var shops []model.Shop
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Shop{})

	if filter.ShopName != "" {
		query = query.Where("shop_name LIKE ?", "%"+filter.ShopName+"%")
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Status >= 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TokenStatus != "" {
		query = query.Where("token_status = ?", filter.TokenStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&shops).Error; err != nil {
		return nil, 0, err
	}

	return shops, total, nil
}

// ListAuthorized 获取所有已授权店铺，定时同步任务以此为扇出集合
func (r *shopRepo) ListAuthorized(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ShopStatusAuthorized).
		Find(&shops).Error
	return shops, err
}

// ListExpiringTokens 查找 access token 在 before 之前过期、且仍有 refresh token 的店铺
func (r *shopRepo) ListExpiringTokens(ctx context.Context, before time.Time) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ShopStatusAuthorized).
		Where("refresh_token != ''").
		Where("access_token_expires_at IS NOT NULL AND access_token_expires_at < ?", before).
		Find(&shops).Error
	return shops, err
}

func (r *shopRepo) UpdateTokenStatus(ctx context.Context, id int64, tokenStatus string) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("id = ?", id).
		Update("token_status", tokenStatus).Error
}

func (r *shopRepo) MarkOrderSynced(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("id = ?", id).
		Update("order_synced_at", at).Error
}

func (r *shopRepo) MarkProductSynced(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("id = ?", id).
		Update("product_synced_at", at).Error
}

// ==================== CredentialStore 实现 ====================

// GetToken 按平台 shop_id 读取凭证；店铺未注册返回 (nil, nil)
func (r *shopRepo) GetToken(ctx context.Context, shopeeShopID int64) (*shopee.Credential, error) {
	shop, err := r.GetByShopeeShopID(ctx, shopeeShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	cred := &shopee.Credential{
		AccessToken:  shop.AccessToken,
		RefreshToken: shop.RefreshToken,
	}
	if shop.AccessTokenExpiresAt != nil {
		cred.AccessTokenExpiresAt = *shop.AccessTokenExpiresAt
	}
	if shop.RefreshTokenExpiresAt != nil {
		cred.RefreshTokenExpiresAt = *shop.RefreshTokenExpiresAt
	}
	return cred, nil
}

// SaveToken 刷新成功后整组替换凭证并把 token 状态置为有效
func (r *shopRepo) SaveToken(ctx context.Context, shopeeShopID int64, cred *shopee.Credential) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("shopee_shop_id = ?", shopeeShopID).
		Updates(map[string]interface{}{
			"access_token":             cred.AccessToken,
			"refresh_token":            cred.RefreshToken,
			"access_token_expires_at":  cred.AccessTokenExpiresAt,
			"refresh_token_expires_at": cred.RefreshTokenExpiresAt,
			"token_status":             model.TokenStatusValid,
		}).Error
}
