package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/pkg/shopee"
)

func productPipelineFixture(t *testing.T, item shopee.ItemBaseInfo, models []shopee.ModelInfo) (*ProductSyncService, *gorm.DB, *fakeGateway) {
	db := setupSyncTestDB(t)
	createTestShop(t, db, 700)

	gateway := &fakeGateway{responses: map[string]interface{}{
		"/api/v2/product/get_item_list": shopee.ItemListResponse{
			Item:        []shopee.ItemListEntry{{ItemID: item.ItemID, ItemStatus: item.ItemStatus}},
			HasNextPage: false,
		},
		"/api/v2/product/get_item_base_info": shopee.ItemBaseInfoResponse{
			ItemList: []shopee.ItemBaseInfo{item},
		},
		"/api/v2/product/get_model_list": shopee.ModelListResponse{Model: models},
	}}

	svc := NewProductSyncService(
		repository.NewShopRepository(db),
		repository.NewProductRepository(db),
		gateway,
	)
	return svc, db, gateway
}

func testItem(hasModel bool) shopee.ItemBaseInfo {
	return shopee.ItemBaseInfo{
		ItemID:     1001,
		ItemStatus: "NORMAL",
		ItemName:   "测试商品",
		PriceInfo:  []shopee.PriceInfo{{Currency: "VND", CurrentPrice: 150000}},
		StockInfoV2: &shopee.StockInfoV2{
			SummaryInfo: shopee.StockSummaryInfo{TotalAvailableStock: 30},
		},
		Sold:       12,
		HasModel:   hasModel,
		CategoryID: 5,
		UpdateTime: time.Now().Unix(),
		Image: &shopee.ItemImage{
			ImageURLList: []string{"https://cf.shopee.vn/img-1", "https://cf.shopee.vn/img-2"},
			ImageIDList:  []string{"id-1", "id-2"},
		},
	}
}

func TestSyncProducts_ShopNotRegistered(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewProductSyncService(
		repository.NewShopRepository(db),
		repository.NewProductRepository(db),
		&fakeGateway{},
	)

	_, err := svc.SyncProducts(context.Background(), 999, 0)
	if !errors.Is(err, ErrShopNotRegistered) {
		t.Errorf("err = %v, want ErrShopNotRegistered", err)
	}
}

func TestSyncProducts_CreatesProductWithImagesAndModels(t *testing.T) {
	models := []shopee.ModelInfo{
		{ModelID: 1, ModelName: "红色", SKU: "SKU-R", PriceInfo: []shopee.PriceInfo{{CurrentPrice: 150000}},
			StockInfoV2: &shopee.StockInfoV2{SummaryInfo: shopee.StockSummaryInfo{TotalAvailableStock: 10}}, Sold: 3},
		{ModelID: 2, ModelName: "蓝色", SKU: "SKU-B", PriceInfo: []shopee.PriceInfo{{CurrentPrice: 160000}},
			StockInfoV2: &shopee.StockInfoV2{SummaryInfo: shopee.StockSummaryInfo{TotalAvailableStock: 20}}, Sold: 9},
	}
	svc, db, _ := productPipelineFixture(t, testItem(true), models)

	summary, err := svc.SyncProducts(context.Background(), 700, 0)
	if err != nil {
		t.Fatalf("SyncProducts() error = %v", err)
	}
	if summary.Fetched != 1 || summary.Upserted != 1 {
		t.Errorf("summary = %+v, want Fetched=1 Upserted=1", summary)
	}

	var product model.Product
	if err := db.Where("item_id = ?", 1001).First(&product).Error; err != nil {
		t.Fatalf("商品未落库: %v", err)
	}
	if product.Title != "测试商品" || product.Stock != 30 || !product.HasModel {
		t.Errorf("商品字段异常: %+v", product)
	}

	var images []model.ProductImage
	db.Where("product_id = ?", product.ID).Order("rank ASC").Find(&images)
	if len(images) != 2 {
		t.Fatalf("图片数 = %d, want 2", len(images))
	}
	if images[0].URL != "https://cf.shopee.vn/img-1" || images[0].Rank != 0 {
		t.Errorf("首图 = %+v, want img-1/rank 0", images[0])
	}

	var dbModels []model.ProductModel
	db.Where("product_id = ?", product.ID).Order("model_id ASC").Find(&dbModels)
	if len(dbModels) != 2 {
		t.Fatalf("变体数 = %d, want 2", len(dbModels))
	}
	if dbModels[0].SKU != "SKU-R" || dbModels[0].Stock != 10 {
		t.Errorf("变体 = %+v, want SKU-R/stock 10", dbModels[0])
	}
}

func TestSyncProducts_ReplacesImagesWholesale(t *testing.T) {
	svc, db, gateway := productPipelineFixture(t, testItem(false), nil)

	if _, err := svc.SyncProducts(context.Background(), 700, 0); err != nil {
		t.Fatalf("首次 SyncProducts() error = %v", err)
	}

	// 平台侧只剩一张新图
	item := testItem(false)
	item.Image = &shopee.ItemImage{ImageURLList: []string{"https://cf.shopee.vn/img-3"}}
	gateway.responses["/api/v2/product/get_item_base_info"] = shopee.ItemBaseInfoResponse{
		ItemList: []shopee.ItemBaseInfo{item},
	}

	if _, err := svc.SyncProducts(context.Background(), 700, 0); err != nil {
		t.Fatalf("二次 SyncProducts() error = %v", err)
	}

	var images []model.ProductImage
	db.Find(&images)
	if len(images) != 1 {
		t.Fatalf("图片数 = %d, want 1（整体重建）", len(images))
	}
	if images[0].URL != "https://cf.shopee.vn/img-3" {
		t.Errorf("URL = %s, want img-3", images[0].URL)
	}

	var productCount int64
	db.Model(&model.Product{}).Count(&productCount)
	if productCount != 1 {
		t.Errorf("重跑后商品数 = %d, want 1", productCount)
	}
}

func TestSyncProducts_ModelsRemovedWhenVariantsGone(t *testing.T) {
	models := []shopee.ModelInfo{{ModelID: 1, ModelName: "红色", SKU: "SKU-R"}}
	svc, db, gateway := productPipelineFixture(t, testItem(true), models)

	if _, err := svc.SyncProducts(context.Background(), 700, 0); err != nil {
		t.Fatalf("首次 SyncProducts() error = %v", err)
	}

	var count int64
	db.Model(&model.ProductModel{}).Count(&count)
	if count != 1 {
		t.Fatalf("首次同步变体数 = %d, want 1", count)
	}

	// 商品不再声明变体
	gateway.responses["/api/v2/product/get_item_base_info"] = shopee.ItemBaseInfoResponse{
		ItemList: []shopee.ItemBaseInfo{testItem(false)},
	}

	if _, err := svc.SyncProducts(context.Background(), 700, 0); err != nil {
		t.Fatalf("二次 SyncProducts() error = %v", err)
	}

	db.Model(&model.ProductModel{}).Count(&count)
	if count != 0 {
		t.Errorf("变体应被清空, 剩余 %d", count)
	}

	var product model.Product
	db.Where("item_id = ?", 1001).First(&product)
	if product.HasModel {
		t.Error("HasModel 应更新为 false")
	}
}

func TestSyncProducts_ListFailure(t *testing.T) {
	svc, _, gateway := productPipelineFixture(t, testItem(false), nil)
	gateway.responses["/api/v2/product/get_item_list"] = &shopee.RemoteError{
		Path: "/api/v2/product/get_item_list",
		Code: "error_server",
	}

	_, err := svc.SyncProducts(context.Background(), 700, 0)
	var rerr *shopee.RemoteError
	if !errors.As(err, &rerr) {
		t.Errorf("err = %v, want *RemoteError", err)
	}
}
