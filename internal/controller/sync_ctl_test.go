package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/internal/service"
	"shopee_dev_v1_202608/pkg/shopee"
)

// stubGateway 固定返回预置错误或空响应
type stubGateway struct {
	err error
}

func (g *stubGateway) CallAPI(ctx context.Context, shopID int64, method, path string, query url.Values, body, out interface{}) error {
	return g.err
}

func setupSyncRouter(t *testing.T, gateway service.ShopeeGateway, withShop bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Shop{}, &model.Order{}, &model.OrderAddressSnapshot{},
		&model.Product{}, &model.ProductImage{}, &model.ProductModel{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	shopRepo := repository.NewShopRepository(db)
	if withShop {
		if err := shopRepo.Create(context.Background(), &model.Shop{
			ShopeeShopID: 700,
			Status:       model.ShopStatusAuthorized,
		}); err != nil {
			t.Fatalf("创建测试店铺失败: %v", err)
		}
	}

	orderSync := service.NewOrderSyncService(
		shopRepo,
		repository.NewOrderRepository(db),
		repository.NewAddressSnapshotRepository(db),
		gateway,
	)
	productSync := service.NewProductSyncService(shopRepo, repository.NewProductRepository(db), gateway)
	ctl := NewSyncController(orderSync, productSync)

	r := gin.New()
	r.POST("/api/shops/:shop_id/sync/orders", ctl.SyncOrders)
	r.POST("/api/shops/:shop_id/sync/products", ctl.SyncProducts)
	return r
}

func TestSyncOrders_InvalidShopID(t *testing.T) {
	r := setupSyncRouter(t, &stubGateway{}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/shops/abc/sync/orders", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncOrders_UnregisteredShopMapsTo400(t *testing.T) {
	r := setupSyncRouter(t, &stubGateway{}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/shops/700/sync/orders", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "未在系统中注册")
}

func TestSyncOrders_RemoteErrorMapsTo502(t *testing.T) {
	gateway := &stubGateway{err: &shopee.RemoteError{
		Path:      "/api/v2/order/get_order_list",
		Code:      "error_server",
		Message:   "internal error",
		RequestID: "req-1",
	}}
	r := setupSyncRouter(t, gateway, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/shops/700/sync/orders", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error_server")
}

func TestSyncOrders_MissingCredentialMapsTo400(t *testing.T) {
	gateway := &stubGateway{err: shopee.ErrMissingCredential}
	r := setupSyncRouter(t, gateway, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/shops/700/sync/orders", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncProducts_UnregisteredShopMapsTo400(t *testing.T) {
	r := setupSyncRouter(t, &stubGateway{}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/shops/700/sync/products", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
