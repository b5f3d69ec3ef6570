package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"storesync/internal/model"
	"storesync/internal/repository"
	"storesync/internal/service"
)

// ==================== ImportTask 商品定时导入任务 ====================

// ImportTask 按计划全量重导所有 Shopify 店铺的商品
// cron 表达式来自配置（IMPORT_CRON），为空时任务不启动
type ImportTask struct {
	storeRepo  repository.StoreRepository
	productSvc *service.ProductService
	cron       *cron.Cron
	spec       string

	// 并发控制
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewImportTask 创建定时导入任务
func NewImportTask(
	storeRepo repository.StoreRepository,
	productSvc *service.ProductService,
	spec string,
) *ImportTask {
	return &ImportTask{
		storeRepo:        storeRepo,
		productSvc:       productSvc,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		concurrencyLimit: 3,
		sleepTime:        300 * time.Millisecond,
	}
}

// SetConcurrency 设置并发参数
func (t *ImportTask) SetConcurrency(limit int, sleep time.Duration) {
	t.concurrencyLimit = limit
	t.sleepTime = sleep
}

// Start 启动定时任务，spec 为空时直接跳过
func (t *ImportTask) Start() {
	if t.spec == "" {
		log.Println("[ImportTask] 未配置 IMPORT_CRON，定时导入不启动")
		return
	}

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()
		t.importAllStores(ctx)
	})
	if err != nil {
		log.Printf("[ImportTask] cron 表达式无效 %q: %v", t.spec, err)
		return
	}

	t.cron.Start()
	log.Printf("[ImportTask] 已启动 (%s)", t.spec)
}

// Stop 停止任务
func (t *ImportTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[ImportTask] 已停止")
}

// importAllStores 重导所有 Shopify 店铺
func (t *ImportTask) importAllStores(ctx context.Context) {
	stores, err := t.storeRepo.ListByPlatform(ctx, model.PlatformShopify)
	if err != nil {
		log.Printf("[ImportTask] 获取店铺列表失败: %v", err)
		return
	}

	if len(stores) == 0 {
		log.Println("[ImportTask] 无 Shopify 店铺需要导入")
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	var (
		successCount int
		failCount    int
		totalCount   int
		mu           sync.Mutex
	)

	log.Printf("[ImportTask] 开始处理 %d 个店铺", len(stores))

	for i := range stores {
		store := stores[i]
		select {
		case <-ctx.Done():
			log.Println("[ImportTask] 任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func(storeID, userID int64, storeName string) {
			defer wg.Done()
			defer func() { <-sem }()

			count, err := t.productSvc.ImportStoreProducts(ctx, userID, storeID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Printf("[ImportTask] 店铺 %s(%d) 导入失败: %v", storeName, storeID, err)
				failCount++
				return
			}
			successCount++
			totalCount += count
		}(store.ID, store.UserID, store.Name)
	}

	wg.Wait()
	log.Printf("[ImportTask] 完成: 成功 %d 失败 %d 商品 %d", successCount, failCount, totalCount)
}
