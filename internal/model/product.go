package model

import (
	"time"
)

// ==================== Product 商品主表 ====================

// Product 商品
// 以 (shop_id, item_id) 唯一定位；图片和变体每次同步整体重建
type Product struct {
	BaseModel
	ShopID int64 `gorm:"index;uniqueIndex:idx_shop_item;not null"`
	ItemID int64 `gorm:"uniqueIndex:idx_shop_item;not null"` // 平台侧 item_id

	// 基本信息
	Status   string `gorm:"size:32;index"`
	Title    string `gorm:"size:500"`
	Currency string `gorm:"size:10"`

	// 价格区间与库存
	PriceMin float64
	PriceMax float64
	Stock    int
	Sold     int

	// 分类与品牌
	Brand      string `gorm:"size:255"`
	CategoryID int64

	// 变体开关
	HasModel bool `gorm:"default:false"`

	// 平台更新时间
	ShopeeUpdateTime *time.Time `gorm:"index"`

	// 同步时间
	SyncedAt *time.Time

	// 关联
	Images []ProductImage `gorm:"foreignKey:ProductID"`
	Models []ProductModel `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

// ==================== ProductImage 商品图片 ====================

// ProductImage 商品图片
// 列表接口不提供稳定的图片身份，每次同步删全量再写全量
type ProductImage struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"index;not null"`

	URL     string `gorm:"size:1024;not null"`
	ImageID string `gorm:"size:64"` // 平台图片 ID，接口有返回时透传保留
	Rank    int    `gorm:"default:0"`

	CreatedAt time.Time
}

func (*ProductImage) TableName() string {
	return "product_images"
}

// ==================== ProductModel 商品变体 ====================

// ProductModel 商品变体（平台叫 model）
// 以 (product_id, model_id) 唯一；商品声明变体时整体重建，不再声明时全部删除
type ProductModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"index;uniqueIndex:idx_product_model;not null"`
	ModelID   int64 `gorm:"uniqueIndex:idx_product_model;not null"`

	Name  string `gorm:"size:255"`
	SKU   string `gorm:"size:100;index"`
	Price float64
	Stock int
	Sold  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*ProductModel) TableName() string {
	return "product_models"
}
