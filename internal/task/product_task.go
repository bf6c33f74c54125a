package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/internal/service"
)

// ==================== ProductSyncTask 商品同步任务 ====================

// ProductSyncTask 商品同步定时任务
// 商品变化频率低，每小时全量拉一遍在售商品
type ProductSyncTask struct {
	shopRepo    repository.ShopRepository
	productSync *service.ProductSyncService
	cron        *cron.Cron

	concurrencyLimit int
	sleepTime        time.Duration
}

// NewProductSyncTask 创建商品同步任务
func NewProductSyncTask(shopRepo repository.ShopRepository, productSync *service.ProductSyncService) *ProductSyncTask {
	return &ProductSyncTask{
		shopRepo:         shopRepo,
		productSync:      productSync,
		cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 5,
		sleepTime:        500 * time.Millisecond,
	}
}

// Start 启动定时任务
func (t *ProductSyncTask) Start() {
	// 每小时执行
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		t.syncAllShops(ctx)
	})
	if err != nil {
		log.Printf("[ProductSyncTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[ProductSyncTask] 已启动 (每小时)")
}

// Stop 停止任务
func (t *ProductSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[ProductSyncTask] 已停止")
}

// syncAllShops 同步所有已授权店铺的商品
func (t *ProductSyncTask) syncAllShops(ctx context.Context) {
	shops, err := t.shopRepo.ListAuthorized(ctx)
	if err != nil {
		log.Printf("[ProductSyncTask] 获取店铺列表失败: %v", err)
		return
	}
	if len(shops) == 0 {
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	var (
		totalUpserted int
		totalErrors   int
		mu            sync.Mutex
	)

	log.Printf("[ProductSyncTask] 开始处理 %d 个店铺", len(shops))

	for i := range shops {
		shop := shops[i]
		select {
		case <-ctx.Done():
			log.Println("[ProductSyncTask] 任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func(shopeeShopID int64, shopName string) {
			defer wg.Done()
			defer func() { <-sem }()

			summary, err := t.productSync.SyncProducts(ctx, shopeeShopID, 0)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Printf("[ProductSyncTask] 店铺 %s(%d) 同步失败: %v", shopName, shopeeShopID, err)
				totalErrors++
				return
			}
			totalUpserted += summary.Upserted
		}(shop.ShopeeShopID, shop.ShopName)
	}

	wg.Wait()
	log.Printf("[ProductSyncTask] 同步完成: 店铺 %d, 商品 %d, 错误 %d", len(shops), totalUpserted, totalErrors)
}
