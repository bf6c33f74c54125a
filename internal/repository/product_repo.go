package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
)

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	ShopID   int64
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
// 图片和变体没有独立的增量更新入口，统一走整体重建
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByShopAndItemID(ctx context.Context, shopID, itemID int64) (*model.Product, error)
	GetWithRelations(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error

	// 关联重建
	ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error
	ReplaceModels(ctx context.Context, productID int64, models []model.ProductModel) error
	DeleteModels(ctx context.Context, productID int64) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByShopAndItemID 按 (shop_id, item_id) 查找商品；不存在返回 (nil, nil)
func (r *productRepository) GetByShopAndItemID(ctx context.Context, shopID, itemID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND item_id = ?", shopID, itemID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetWithRelations(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC, id ASC")
		}).
		Preload("Models", func(db *gorm.DB) *gorm.DB {
			return db.Order("model_id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.ShopID > 0 {
		db = db.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		db = db.Where("title LIKE ?", "%"+filter.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.
		Order("shopee_update_time DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ReplaceImages 删全量再写全量，保证图片集合和平台一致
func (r *productRepository) ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		for i := range images {
			images[i].ProductID = productID
		}
		return tx.CreateInBatches(images, 100).Error
	})
}

// ReplaceModels 删全量再写全量，保证变体集合和平台一致
func (r *productRepository) ReplaceModels(ctx context.Context, productID int64, models []model.ProductModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.ProductModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		for i := range models {
			models[i].ProductID = productID
		}
		return tx.CreateInBatches(models, 100).Error
	})
}

// DeleteModels 商品不再声明变体时清空其全部变体
func (r *productRepository) DeleteModels(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductModel{}).Error
}
