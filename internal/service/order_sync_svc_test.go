package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/pkg/shopee"
)

// ==================== 测试基础设施 ====================

func setupSyncTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Shop{},
		&model.Order{}, &model.OrderAddressSnapshot{},
		&model.Product{}, &model.ProductImage{}, &model.ProductModel{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func createTestShop(t *testing.T, db *gorm.DB, shopeeShopID int64) *model.Shop {
	shop := &model.Shop{
		ShopeeShopID: shopeeShopID,
		ShopName:     "测试店铺",
		Status:       model.ShopStatusAuthorized,
		TokenStatus:  model.TokenStatusValid,
		AccessToken:  "tok",
		RefreshToken: "ref",
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("创建测试店铺失败: %v", err)
	}
	return shop
}

// fakeGateway 按路径返回预置响应的测试替身
type fakeGateway struct {
	responses map[string]interface{}
	calls     []string
}

func (g *fakeGateway) CallAPI(ctx context.Context, shopID int64, method, path string, query url.Values, body, out interface{}) error {
	g.calls = append(g.calls, path)
	resp, ok := g.responses[path]
	if !ok {
		return errors.New("未预置的路径: " + path)
	}
	if err, isErr := resp.(error); isErr {
		return err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func testAddress(zipcode string) *shopee.RecipientAddress {
	return &shopee.RecipientAddress{
		Name:        "Nguyen Van A",
		Phone:       "0901234567",
		Town:        "Ben Nghe",
		District:    "District 1",
		City:        "Ho Chi Minh",
		State:       "HCM",
		Region:      "VN",
		Zipcode:     zipcode,
		FullAddress: "123 Le Loi, District 1",
	}
}

func orderPipelineFixture(t *testing.T, detail shopee.OrderDetail) (*OrderSyncService, *gorm.DB, *fakeGateway) {
	db := setupSyncTestDB(t)
	createTestShop(t, db, 700)

	gateway := &fakeGateway{responses: map[string]interface{}{
		"/api/v2/order/get_order_list": shopee.OrderListResponse{
			OrderList: []shopee.OrderListEntry{{OrderSN: detail.OrderSN, OrderStatus: detail.OrderStatus}},
			More:      false,
		},
		"/api/v2/order/get_order_detail": shopee.OrderDetailResponse{
			OrderList: []shopee.OrderDetail{detail},
		},
	}}

	svc := NewOrderSyncService(
		repository.NewShopRepository(db),
		repository.NewOrderRepository(db),
		repository.NewAddressSnapshotRepository(db),
		gateway,
	)
	return svc, db, gateway
}

// ==================== 纯函数 ====================

func TestParseRangeDays(t *testing.T) {
	cases := []struct{ in, want int }{
		{7, 7}, {15, 15}, {30, 30}, {60, 60},
		{0, 7}, {-1, 7}, {10, 7}, {90, 7},
	}
	for _, c := range cases {
		if got := ParseRangeDays(c.in); got != c.want {
			t.Errorf("ParseRangeDays(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAddressHash_NormalizationInvariance(t *testing.T) {
	a := testAddress("70000")

	b := testAddress("70000")
	b.Name = "  NGUYEN   VAN  A  " // 大小写和空白差异
	b.City = "HO CHI MINH"

	if addressHash(a) != addressHash(b) {
		t.Error("只有大小写/空白差异的地址应产生相同哈希")
	}
}

func TestAddressHash_ZipcodeChange(t *testing.T) {
	a := testAddress("70000")
	b := testAddress("70001")

	if addressHash(a) == addressHash(b) {
		t.Error("邮编不同的地址应产生不同哈希")
	}
}

func TestClassifyShipRisk(t *testing.T) {
	now := time.Now()
	in2h := now.Add(2 * time.Hour)
	ago1h := now.Add(-time.Hour)
	in3d := now.Add(72 * time.Hour)

	cases := []struct {
		name       string
		status     string
		shipBy     *time.Time
		wantLate   bool
		wantAtRisk bool
	}{
		{"还剩2小时_临期", model.OrderStatusReadyToShip, &in2h, false, true},
		{"已超1小时_超期", model.OrderStatusReadyToShip, &ago1h, true, false},
		{"已发货_不参与", model.OrderStatusShipped, &ago1h, false, false},
		{"还剩3天_正常", model.OrderStatusReadyToShip, &in3d, false, false},
		{"无期限_不参与", model.OrderStatusReadyToShip, nil, false, false},
	}
	for _, c := range cases {
		late, atRisk := classifyShipRisk(c.status, c.shipBy, now)
		if late != c.wantLate || atRisk != c.wantAtRisk {
			t.Errorf("%s: classifyShipRisk = (%v, %v), want (%v, %v)",
				c.name, late, atRisk, c.wantLate, c.wantAtRisk)
		}
	}
}

// ==================== 同步管道 ====================

func TestSyncOrders_ShopNotRegistered(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewOrderSyncService(
		repository.NewShopRepository(db),
		repository.NewOrderRepository(db),
		repository.NewAddressSnapshotRepository(db),
		&fakeGateway{},
	)

	_, err := svc.SyncOrders(context.Background(), 999, 7, 0)
	if !errors.Is(err, ErrShopNotRegistered) {
		t.Errorf("err = %v, want ErrShopNotRegistered", err)
	}
}

func TestSyncOrders_CreatesOrderAndFirstSnapshot(t *testing.T) {
	detail := shopee.OrderDetail{
		OrderSN:          "SN001",
		OrderStatus:      model.OrderStatusReadyToShip,
		Region:           "VN",
		Currency:         "VND",
		DaysToShip:       2,
		ShipByDate:       time.Now().Add(72 * time.Hour).Unix(),
		CreateTime:       time.Now().Add(-time.Hour).Unix(),
		UpdateTime:       time.Now().Unix(),
		RecipientAddress: testAddress("70000"),
	}
	svc, db, _ := orderPipelineFixture(t, detail)

	summary, err := svc.SyncOrders(context.Background(), 700, 7, 0)
	if err != nil {
		t.Fatalf("SyncOrders() error = %v", err)
	}

	if summary.Processed != 1 {
		t.Errorf("Processed = %d, want 1", summary.Processed)
	}
	if summary.AddressChanged != 1 {
		t.Errorf("首次同步应产生快照, AddressChanged = %d, want 1", summary.AddressChanged)
	}
	if summary.Truncated {
		t.Error("单页列表不应被标记截断")
	}

	var order model.Order
	if err := db.Where("order_sn = ?", "SN001").First(&order).Error; err != nil {
		t.Fatalf("订单未落库: %v", err)
	}
	if order.OrderStatus != model.OrderStatusReadyToShip {
		t.Errorf("OrderStatus = %s, want READY_TO_SHIP", order.OrderStatus)
	}
	if len(order.RawData) == 0 {
		t.Error("RawData 应保存平台原始数据")
	}

	var snapCount int64
	db.Model(&model.OrderAddressSnapshot{}).Count(&snapCount)
	if snapCount != 1 {
		t.Errorf("快照数 = %d, want 1", snapCount)
	}
}

func TestSyncOrders_SameAddressRerunIsIdempotent(t *testing.T) {
	detail := shopee.OrderDetail{
		OrderSN:          "SN001",
		OrderStatus:      model.OrderStatusShipped,
		UpdateTime:       time.Now().Unix(),
		RecipientAddress: testAddress("70000"),
	}
	svc, db, _ := orderPipelineFixture(t, detail)

	if _, err := svc.SyncOrders(context.Background(), 700, 7, 0); err != nil {
		t.Fatalf("首次 SyncOrders() error = %v", err)
	}

	summary, err := svc.SyncOrders(context.Background(), 700, 7, 0)
	if err != nil {
		t.Fatalf("二次 SyncOrders() error = %v", err)
	}

	if summary.AddressChanged != 0 {
		t.Errorf("地址未变时 AddressChanged = %d, want 0", summary.AddressChanged)
	}

	var orderCount, snapCount int64
	db.Model(&model.Order{}).Count(&orderCount)
	db.Model(&model.OrderAddressSnapshot{}).Count(&snapCount)
	if orderCount != 1 {
		t.Errorf("重跑后订单数 = %d, want 1", orderCount)
	}
	if snapCount != 1 {
		t.Errorf("重跑后快照数 = %d, want 1", snapCount)
	}
}

func TestSyncOrders_ChangedZipcodeAppendsSnapshot(t *testing.T) {
	detail := shopee.OrderDetail{
		OrderSN:          "SN001",
		OrderStatus:      model.OrderStatusShipped,
		UpdateTime:       time.Now().Unix(),
		RecipientAddress: testAddress("70000"),
	}
	svc, db, gateway := orderPipelineFixture(t, detail)

	if _, err := svc.SyncOrders(context.Background(), 700, 7, 0); err != nil {
		t.Fatalf("首次 SyncOrders() error = %v", err)
	}

	// 买家改了邮编
	detail.RecipientAddress = testAddress("70001")
	gateway.responses["/api/v2/order/get_order_detail"] = shopee.OrderDetailResponse{
		OrderList: []shopee.OrderDetail{detail},
	}

	summary, err := svc.SyncOrders(context.Background(), 700, 7, 0)
	if err != nil {
		t.Fatalf("二次 SyncOrders() error = %v", err)
	}

	if summary.AddressChanged != 1 {
		t.Errorf("AddressChanged = %d, want 1", summary.AddressChanged)
	}

	var snaps []model.OrderAddressSnapshot
	db.Order("id ASC").Find(&snaps)
	if len(snaps) != 2 {
		t.Fatalf("快照数 = %d, want 2", len(snaps))
	}
	if snaps[0].Zipcode != "70000" || snaps[1].Zipcode != "70001" {
		t.Errorf("快照历史 = %s/%s, want 70000/70001", snaps[0].Zipcode, snaps[1].Zipcode)
	}
}

func TestSyncOrders_RiskCounters(t *testing.T) {
	lateBy := time.Now().Add(-time.Hour).Unix()
	detail := shopee.OrderDetail{
		OrderSN:     "SN-LATE",
		OrderStatus: model.OrderStatusReadyToShip,
		ShipByDate:  lateBy,
		UpdateTime:  time.Now().Unix(),
	}
	svc, _, _ := orderPipelineFixture(t, detail)

	summary, err := svc.SyncOrders(context.Background(), 700, 7, 0)
	if err != nil {
		t.Fatalf("SyncOrders() error = %v", err)
	}
	if summary.Late != 1 {
		t.Errorf("Late = %d, want 1", summary.Late)
	}
	if summary.AtRisk != 0 {
		t.Errorf("AtRisk = %d, want 0", summary.AtRisk)
	}
}

func TestSyncOrders_DetailFailureAborts(t *testing.T) {
	detail := shopee.OrderDetail{OrderSN: "SN001", UpdateTime: time.Now().Unix()}
	svc, _, gateway := orderPipelineFixture(t, detail)

	gateway.responses["/api/v2/order/get_order_detail"] = &shopee.RemoteError{
		Path: "/api/v2/order/get_order_detail",
		Code: "error_server",
	}

	_, err := svc.SyncOrders(context.Background(), 700, 7, 0)
	var rerr *shopee.RemoteError
	if !errors.As(err, &rerr) {
		t.Errorf("err = %v, want *RemoteError", err)
	}
}
