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

// ==================== TokenTask Token 保活任务 ====================

// TokenTask Token 保活任务
// 平台 access token 4 小时过期，每 40 分钟提前刷新临期的
type TokenTask struct {
	shopRepo    repository.ShopRepository
	authService *service.AuthService
	cron        *cron.Cron

	// 提前量：过期前 1 小时内就刷新
	refreshAhead time.Duration

	// 控制并发刷新的数量
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewTokenTask 创建 Token 保活任务
func NewTokenTask(shopRepo repository.ShopRepository, authService *service.AuthService) *TokenTask {
	return &TokenTask{
		shopRepo:         shopRepo,
		authService:      authService,
		cron:             cron.New(cron.WithSeconds()),
		refreshAhead:     time.Hour,
		concurrencyLimit: 20,
		sleepTime:        50 * time.Millisecond,
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[TokenTask] 服务启动，正在执行首次 Token 检查...")
		t.refreshJob(ctx)
	}()

	// 每 40 分钟检查一次
	_, err := t.cron.AddFunc("0 0/40 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.refreshJob(ctx)
	})
	if err != nil {
		log.Printf("[TokenTask] 定时任务启动失败: %v", err)
		return
	}

	t.cron.Start()
	log.Println("[TokenTask] 已启动 (每40分钟检查一次)")
}

// Stop 停止任务
func (t *TokenTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[TokenTask] 已停止")
}

// refreshJob 刷新所有临期 token
func (t *TokenTask) refreshJob(ctx context.Context) {
	shops, err := t.shopRepo.ListExpiringTokens(ctx, time.Now().Add(t.refreshAhead))
	if err != nil {
		log.Printf("[TokenTask] 临期店铺查询失败: %v", err)
		return
	}
	if len(shops) == 0 {
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	log.Printf("[TokenTask] 开始刷新 %d 个店铺的 Token，并发上限: %d", len(shops), t.concurrencyLimit)

	for i := range shops {
		shop := shops[i]
		select {
		case <-ctx.Done():
			log.Println("[TokenTask] 任务超时停止")
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

			if err := t.authService.RefreshToken(ctx, shopeeShopID); err != nil {
				// 日志仅记录，不中断其他协程
				log.Printf("[TokenTask] 店铺 [%s] 刷新失败: %v", shopName, err)
			}
		}(shop.ShopeeShopID, shop.ShopName)
	}

	wg.Wait()
	log.Println("[TokenTask] 本轮 Token 刷新任务完成")
}
