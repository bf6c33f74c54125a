package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// Shopee 订单状态（平台自由文本枚举，这里只列出业务关心的几个）
const (
	OrderStatusUnpaid      = "UNPAID"
	OrderStatusReadyToShip = "READY_TO_SHIP"
	OrderStatusProcessed   = "PROCESSED"
	OrderStatusShipped     = "SHIPPED"
	OrderStatusCompleted   = "COMPLETED"
	OrderStatusCancelled   = "CANCELLED"
)

// ==================== Order 订单主表 ====================

// Order 订单
// 以 (shop_id, order_sn) 唯一定位；只由同步管道创建和更新，从不删除
type Order struct {
	BaseModel
	ShopID  int64  `gorm:"index;uniqueIndex:idx_shop_order_sn;not null"`
	OrderSN string `gorm:"size:64;uniqueIndex:idx_shop_order_sn;not null"`

	// 状态与基础信息
	OrderStatus string `gorm:"size:32;index"`
	Region      string `gorm:"size:20"`
	Currency    string `gorm:"size:10"`

	// 发货期限
	DaysToShip int
	ShipByDate *time.Time `gorm:"index"`

	// 平台时间戳
	ShopeeCreateTime *time.Time
	ShopeeUpdateTime *time.Time `gorm:"index"`

	// 业务透传字段
	BookingSN             string `gorm:"size:64"`
	COD                   bool   `gorm:"default:false"`
	AdvancePackage        bool   `gorm:"default:false"`
	HotListingOrder       bool   `gorm:"default:false"`
	IsBuyerShopCollection bool   `gorm:"default:false"`
	MessageToSeller       string `gorm:"type:text"`
	ReverseShippingFee    float64

	// 平台原始数据，便于排查字段映射问题
	RawData datatypes.JSON `gorm:"type:jsonb"`

	// 同步时间
	SyncedAt *time.Time

	// 关联
	AddressSnapshots []OrderAddressSnapshot `gorm:"foreignKey:OrderID"`
}

func (*Order) TableName() string {
	return "orders"
}

// AwaitingShipment 是否仍在等待发货
// 发货风险分类只对这个状态的订单生效
func (o *Order) AwaitingShipment() bool {
	return o.OrderStatus == OrderStatusReadyToShip
}

// ==================== OrderAddressSnapshot 地址快照 ====================

// OrderAddressSnapshot 收件地址快照
// 追加写、不可变：只有内容哈希与最近一条不同时才新增，形成地址变更历史
type OrderAddressSnapshot struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	OrderID int64 `gorm:"index;not null"`

	Name        string `gorm:"size:255"`
	Phone       string `gorm:"size:64"`
	Town        string `gorm:"size:255"`
	District    string `gorm:"size:255"`
	City        string `gorm:"size:255"`
	State       string `gorm:"size:255"`
	Region      string `gorm:"size:20"`
	Zipcode     string `gorm:"size:20"`
	FullAddress string `gorm:"type:text"`

	// 归一化后的内容哈希，用于去重
	AddressHash string `gorm:"size:64;index;not null"`

	CreatedAt time.Time
}

func (*OrderAddressSnapshot) TableName() string {
	return "order_address_snapshots"
}
