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

// ==================== OrderSyncTask 订单同步任务 ====================

// OrderSyncTask 订单同步定时任务
// 每 10 分钟扫一遍已授权店铺，同步最近 7 天有更新的订单
type OrderSyncTask struct {
	shopRepo  repository.ShopRepository
	orderSync *service.OrderSyncService
	cron      *cron.Cron

	// 并发控制
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewOrderSyncTask 创建订单同步任务
func NewOrderSyncTask(shopRepo repository.ShopRepository, orderSync *service.OrderSyncService) *OrderSyncTask {
	return &OrderSyncTask{
		shopRepo:         shopRepo,
		orderSync:        orderSync,
		cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 10,
		sleepTime:        200 * time.Millisecond,
	}
}

// SetConcurrency 设置并发参数
func (t *OrderSyncTask) SetConcurrency(limit int, sleep time.Duration) {
	t.concurrencyLimit = limit
	t.sleepTime = sleep
}

// Start 启动定时任务
func (t *OrderSyncTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		log.Println("[OrderSyncTask] 执行首次订单同步...")
		t.syncAllShops(ctx)
	}()

	// 每 10 分钟执行
	_, err := t.cron.AddFunc("0 */10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.syncAllShops(ctx)
	})
	if err != nil {
		log.Printf("[OrderSyncTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[OrderSyncTask] 已启动 (每10分钟)")
}

// Stop 停止任务
func (t *OrderSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[OrderSyncTask] 已停止")
}

// syncAllShops 同步所有已授权店铺的订单
func (t *OrderSyncTask) syncAllShops(ctx context.Context) {
	shops, err := t.shopRepo.ListAuthorized(ctx)
	if err != nil {
		log.Printf("[OrderSyncTask] 获取店铺列表失败: %v", err)
		return
	}
	if len(shops) == 0 {
		log.Println("[OrderSyncTask] 无已授权店铺需要同步")
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	var (
		totalProcessed int
		totalChanged   int
		totalErrors    int
		mu             sync.Mutex
	)

	log.Printf("[OrderSyncTask] 开始处理 %d 个店铺", len(shops))

	for i := range shops {
		shop := shops[i]
		select {
		case <-ctx.Done():
			log.Println("[OrderSyncTask] 任务超时停止")
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

			summary, err := t.orderSync.SyncOrders(ctx, shopeeShopID, 7, 0)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Printf("[OrderSyncTask] 店铺 %s(%d) 同步失败: %v", shopName, shopeeShopID, err)
				totalErrors++
				return
			}

			totalProcessed += summary.Processed
			totalChanged += summary.AddressChanged
		}(shop.ShopeeShopID, shop.ShopName)
	}

	wg.Wait()
	log.Printf("[OrderSyncTask] 同步完成: 店铺 %d, 订单 %d, 地址变更 %d, 错误 %d",
		len(shops), totalProcessed, totalChanged, totalErrors)
}
