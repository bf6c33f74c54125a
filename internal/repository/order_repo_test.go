package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopee_dev_v1_202608/internal/model"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Order{}, &model.OrderAddressSnapshot{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func TestOrderRepo_GetByShopAndSN_Missing(t *testing.T) {
	repo := NewOrderRepository(setupOrderTestDB(t))

	// 不存在返回 (nil, nil)，上层据此走创建分支
	order, err := repo.GetByShopAndSN(context.Background(), 1, "SN-NONE")
	if err != nil {
		t.Fatalf("GetByShopAndSN() error = %v", err)
	}
	if order != nil {
		t.Errorf("order = %+v, want nil", order)
	}
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository(setupOrderTestDB(t))
	ctx := context.Background()

	order := &model.Order{
		ShopID:      1,
		OrderSN:     "SN001",
		OrderStatus: model.OrderStatusReadyToShip,
		Currency:    "VND",
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if order.ID == 0 {
		t.Error("ID 应该被自动分配")
	}

	found, err := repo.GetByShopAndSN(ctx, 1, "SN001")
	if err != nil {
		t.Fatalf("GetByShopAndSN() error = %v", err)
	}
	if found == nil || found.OrderStatus != model.OrderStatusReadyToShip {
		t.Errorf("found = %+v, want READY_TO_SHIP", found)
	}

	// 另一店铺的同名单号不可见
	other, err := repo.GetByShopAndSN(ctx, 2, "SN001")
	if err != nil {
		t.Fatalf("GetByShopAndSN() error = %v", err)
	}
	if other != nil {
		t.Errorf("跨店铺查询 = %+v, want nil", other)
	}
}

func TestAddressSnapshotRepo_GetLatest(t *testing.T) {
	repo := NewAddressSnapshotRepository(setupOrderTestDB(t))
	ctx := context.Background()

	// 没有快照返回 (nil, nil)
	latest, err := repo.GetLatest(ctx, 1)
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}

	repo.Create(ctx, &model.OrderAddressSnapshot{OrderID: 1, Zipcode: "70000", AddressHash: "h1"})
	repo.Create(ctx, &model.OrderAddressSnapshot{OrderID: 1, Zipcode: "70001", AddressHash: "h2"})
	repo.Create(ctx, &model.OrderAddressSnapshot{OrderID: 2, Zipcode: "10000", AddressHash: "h3"})

	latest, err = repo.GetLatest(ctx, 1)
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if latest.AddressHash != "h2" {
		t.Errorf("最新快照 = %s, want h2", latest.AddressHash)
	}

	count, err := repo.CountByOrderID(ctx, 1)
	if err != nil {
		t.Fatalf("CountByOrderID() error = %v", err)
	}
	if count != 2 {
		t.Errorf("快照数 = %d, want 2", count)
	}
}
