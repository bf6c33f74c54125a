package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
)

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
type OrderFilter struct {
	ShopID    int64
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Keyword   string
	Page      int
	PageSize  int
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByShopAndSN(ctx context.Context, shopID int64, orderSN string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 统计
	CountByShopAndStatus(ctx context.Context, shopID int64, status string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByShopAndSN 按 (shop_id, order_sn) 查找订单；不存在返回 (nil, nil)
func (r *orderRepository) GetByShopAndSN(ctx context.Context, shopID int64, orderSN string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND order_sn = ?", shopID, orderSN).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})

	// 应用过滤条件
	if filter.ShopID > 0 {
		db = db.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		db = db.Where("order_status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		db = db.Where("shopee_create_time >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("shopee_create_time <= ?", filter.EndDate)
	}
	if filter.Keyword != "" {
		db = db.Where("order_sn LIKE ?", "%"+filter.Keyword+"%")
	}

	// 计算总数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.
		Order("shopee_create_time DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepository) CountByShopAndStatus(ctx context.Context, shopID int64, status string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&model.Order{}).Where("shop_id = ?", shopID)
	if status != "" {
		db = db.Where("order_status = ?", status)
	}
	err := db.Count(&count).Error
	return count, err
}

// ==================== AddressSnapshotRepository 地址快照仓库 ====================

// AddressSnapshotRepository 地址快照仓库接口
// 快照只追加，没有更新和删除
type AddressSnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.OrderAddressSnapshot) error
	GetLatest(ctx context.Context, orderID int64) (*model.OrderAddressSnapshot, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderAddressSnapshot, error)
	CountByOrderID(ctx context.Context, orderID int64) (int64, error)
}

type addressSnapshotRepository struct {
	db *gorm.DB
}

// NewAddressSnapshotRepository 创建地址快照仓库
func NewAddressSnapshotRepository(db *gorm.DB) AddressSnapshotRepository {
	return &addressSnapshotRepository{db: db}
}

func (r *addressSnapshotRepository) Create(ctx context.Context, snapshot *model.OrderAddressSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// GetLatest 取最新一条快照；没有快照返回 (nil, nil)
func (r *addressSnapshotRepository) GetLatest(ctx context.Context, orderID int64) (*model.OrderAddressSnapshot, error) {
	var snapshot model.OrderAddressSnapshot
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *addressSnapshotRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderAddressSnapshot, error) {
	var snapshots []model.OrderAddressSnapshot
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&snapshots).Error
	return snapshots, err
}

func (r *addressSnapshotRepository) CountByOrderID(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderAddressSnapshot{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
