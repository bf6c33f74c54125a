package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/pkg/shopee"
)

// 基础信息拉取的批大小，平台单次最多 50
const itemBaseInfoChunkSize = 20

// ==================== ProductSyncService ====================

// ProductSyncSummary 单次商品同步的结果
type ProductSyncSummary struct {
	ShopeeShopID int64 `json:"shopee_shop_id"`
	Fetched      int   `json:"fetched"`   // 列表收集到的商品数
	Upserted     int   `json:"upserted"`  // 成功落库的商品数
	Truncated    bool  `json:"truncated"` // 列表遍历是否被页数上限截断
}

// ProductSyncService 商品同步服务
// 拉取在售商品列表 + 基础信息，图片和变体每次整体重建
type ProductSyncService struct {
	shopRepo    repository.ShopRepository
	productRepo repository.ProductRepository
	gateway     ShopeeGateway
}

// NewProductSyncService 创建商品同步服务
func NewProductSyncService(
	shopRepo repository.ShopRepository,
	productRepo repository.ProductRepository,
	gateway ShopeeGateway,
) *ProductSyncService {
	return &ProductSyncService{
		shopRepo:    shopRepo,
		productRepo: productRepo,
		gateway:     gateway,
	}
}

// ==================== 同步入口 ====================

// SyncProducts 同步指定店铺的全部在售商品
// 列表被截断时照常处理已收集的商品，结果打上 Truncated 标记。
func (s *ProductSyncService) SyncProducts(ctx context.Context, shopeeShopID int64, pageSize int) (*ProductSyncSummary, error) {
	shop, err := s.shopRepo.GetByShopeeShopID(ctx, shopeeShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotRegistered
		}
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}

	if pageSize <= 0 {
		pageSize = 50
	}

	now := time.Now()
	summary := &ProductSyncSummary{ShopeeShopID: shopeeShopID}

	// 第一步：偏移量遍历商品列表，收集 item_id
	itemIDs, err := shopee.WalkOffset(ctx, shopee.DefaultMaxPages, func(ctx context.Context, offset int) (shopee.OffsetPage[int64], error) {
		query := url.Values{}
		query.Set("item_status", "NORMAL")
		query.Set("offset", strconv.Itoa(offset))
		query.Set("page_size", strconv.Itoa(pageSize))

		var resp shopee.ItemListResponse
		if err := s.gateway.CallAPI(ctx, shopeeShopID, "GET", "/api/v2/product/get_item_list", query, nil, &resp); err != nil {
			return shopee.OffsetPage[int64]{}, err
		}

		ids := make([]int64, 0, len(resp.Item))
		for _, entry := range resp.Item {
			ids = append(ids, entry.ItemID)
		}
		return shopee.OffsetPage[int64]{Items: ids, HasNext: resp.HasNextPage, NextOffset: resp.NextOffset}, nil
	})
	if err != nil {
		var terr *shopee.TruncatedError
		if !errors.As(err, &terr) {
			return nil, fmt.Errorf("拉取商品列表失败: %w", err)
		}
		summary.Truncated = true
		log.Printf("[ProductSync] 店铺 %d 商品列表在 %d 页后截断，继续处理已收集的 %d 条", shopeeShopID, terr.Pages, len(itemIDs))
	}
	summary.Fetched = len(itemIDs)

	log.Printf("[ProductSync] 店铺 %d 共 %d 件在售商品待同步", shopeeShopID, len(itemIDs))

	// 第二步：分批拉基础信息并逐件落库
	for _, batch := range shopee.Chunk(itemIDs, itemBaseInfoChunkSize) {
		items, err := s.fetchItemBaseInfo(ctx, shopeeShopID, batch)
		if err != nil {
			return summary, fmt.Errorf("拉取商品基础信息失败: %w", err)
		}

		for i := range items {
			if err := s.upsertProduct(ctx, shopeeShopID, shop.ID, &items[i], now); err != nil {
				return summary, fmt.Errorf("落库商品 %d 失败: %w", items[i].ItemID, err)
			}
			summary.Upserted++
		}
	}

	if err := s.shopRepo.MarkProductSynced(ctx, shop.ID, now); err != nil {
		log.Printf("[ProductSync] 店铺 %d 更新同步时间失败: %v", shopeeShopID, err)
	}

	log.Printf("[ProductSync] 店铺 %d 同步完成: 收集 %d, 落库 %d", shopeeShopID, summary.Fetched, summary.Upserted)
	return summary, nil
}

// fetchItemBaseInfo 拉取一批商品的基础信息
func (s *ProductSyncService) fetchItemBaseInfo(ctx context.Context, shopeeShopID int64, itemIDs []int64) ([]shopee.ItemBaseInfo, error) {
	strIDs := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		strIDs[i] = strconv.FormatInt(id, 10)
	}

	query := url.Values{}
	query.Set("item_id_list", strings.Join(strIDs, ","))

	var resp shopee.ItemBaseInfoResponse
	if err := s.gateway.CallAPI(ctx, shopeeShopID, "GET", "/api/v2/product/get_item_base_info", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ItemList, nil
}

// ==================== 落库 ====================

// upsertProduct 按 (shop_id, item_id) 查找后创建或更新，再重建图片和变体
func (s *ProductSyncService) upsertProduct(ctx context.Context, shopeeShopID, shopID int64, item *shopee.ItemBaseInfo, now time.Time) error {
	existing, err := s.productRepo.GetByShopAndItemID(ctx, shopID, item.ItemID)
	if err != nil {
		return err
	}

	product := existing
	if product == nil {
		product = &model.Product{ShopID: shopID, ItemID: item.ItemID}
	}
	applyItemBaseInfo(product, item, now)

	if existing == nil {
		err = s.productRepo.Create(ctx, product)
	} else {
		err = s.productRepo.Update(ctx, product)
	}
	if err != nil {
		return err
	}

	// 图片整体重建
	if err := s.productRepo.ReplaceImages(ctx, product.ID, buildImages(item)); err != nil {
		return err
	}

	// 变体：声明变体时拉取变体列表整体重建，否则清空
	if item.HasModel {
		models, err := s.fetchModels(ctx, shopeeShopID, item.ItemID)
		if err != nil {
			return err
		}
		if err := s.productRepo.ReplaceModels(ctx, product.ID, models); err != nil {
			return err
		}
	} else if err := s.productRepo.DeleteModels(ctx, product.ID); err != nil {
		return err
	}

	return nil
}

// fetchModels 拉取商品的变体列表
func (s *ProductSyncService) fetchModels(ctx context.Context, shopeeShopID, itemID int64) ([]model.ProductModel, error) {
	query := url.Values{}
	query.Set("item_id", strconv.FormatInt(itemID, 10))

	var resp shopee.ModelListResponse
	if err := s.gateway.CallAPI(ctx, shopeeShopID, "GET", "/api/v2/product/get_model_list", query, nil, &resp); err != nil {
		return nil, err
	}

	models := make([]model.ProductModel, 0, len(resp.Model))
	for _, m := range resp.Model {
		pm := model.ProductModel{
			ModelID: m.ModelID,
			Name:    m.ModelName,
			SKU:     m.SKU,
			Sold:    m.Sold,
		}
		if len(m.PriceInfo) > 0 {
			pm.Price = m.PriceInfo[0].CurrentPrice
		}
		if m.StockInfoV2 != nil {
			pm.Stock = m.StockInfoV2.SummaryInfo.TotalAvailableStock
		}
		models = append(models, pm)
	}
	return models, nil
}

// applyItemBaseInfo 把平台基础信息映射到商品模型
func applyItemBaseInfo(product *model.Product, item *shopee.ItemBaseInfo, now time.Time) {
	product.Status = item.ItemStatus
	product.Title = item.ItemName
	product.Currency = item.Currency
	product.Sold = item.Sold
	product.HasModel = item.HasModel
	product.CategoryID = item.CategoryID
	product.ShopeeUpdateTime = unixToTime(item.UpdateTime)
	product.SyncedAt = &now

	// 价格区间取所有报价的最小最大
	product.PriceMin, product.PriceMax = 0, 0
	for i, p := range item.PriceInfo {
		if i == 0 || p.CurrentPrice < product.PriceMin {
			product.PriceMin = p.CurrentPrice
		}
		if p.CurrentPrice > product.PriceMax {
			product.PriceMax = p.CurrentPrice
		}
		if product.Currency == "" {
			product.Currency = p.Currency
		}
	}

	if item.StockInfoV2 != nil {
		product.Stock = item.StockInfoV2.SummaryInfo.TotalAvailableStock
	}
	if item.Brand != nil {
		product.Brand = item.Brand.Name
	}
}

// buildImages 按返回顺序生成图片记录，顺序即展示顺序
func buildImages(item *shopee.ItemBaseInfo) []model.ProductImage {
	if item.Image == nil {
		return nil
	}
	images := make([]model.ProductImage, 0, len(item.Image.ImageURLList))
	for i, u := range item.Image.ImageURLList {
		img := model.ProductImage{URL: u, Rank: i}
		if i < len(item.Image.ImageIDList) {
			img.ImageID = item.Image.ImageIDList[i]
		}
		images = append(images, img)
	}
	return images
}
