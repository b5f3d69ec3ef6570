package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storesync/internal/api/dto"
	"storesync/internal/model"
	"storesync/internal/repository"
	"storesync/pkg/shopify"
)

// ==================== 假远程平台 ====================

// fakeShopify 可编程的 Shopify Admin API 假实现
type fakeShopify struct {
	mu sync.Mutex

	products   []shopify.Product
	metafields map[int64][]shopify.Metafield

	// 指定商品的元字段接口返回 500
	failMetafieldsFor int64

	// 调用记录
	productPuts   []map[string]json.RawMessage
	metafieldPuts int
	metafieldPost int
	nextCreatedID int64

	server *httptest.Server
}

func newFakeShopify() *fakeShopify {
	f := &fakeShopify{
		metafields:    map[int64][]shopify.Metafield{},
		nextCreatedID: 9000,
	}

	prefix := "/admin/api/" + shopify.APIVersion + "/"
	mux := http.NewServeMux()

	mux.HandleFunc(prefix+"products.json", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		var sid int64
		fmt.Sscanf(r.URL.Query().Get("since_id"), "%d", &sid)
		var page []shopify.Product
		for _, p := range f.products {
			if p.ID > sid {
				page = append(page, p)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"products": page})
	})

	mux.HandleFunc(prefix+"products/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		rest := strings.TrimPrefix(r.URL.Path, prefix+"products/")

		switch {
		// products/{id}/metafields/{mid}.json
		case strings.Contains(rest, "/metafields/") && r.Method == http.MethodPut:
			f.metafieldPuts++
			fmt.Fprint(w, `{}`)

		// products/{id}/metafields.json
		case strings.HasSuffix(rest, "/metafields.json"):
			var pid int64
			fmt.Sscanf(rest, "%d/metafields.json", &pid)

			if r.Method == http.MethodPost {
				f.metafieldPost++
				f.nextCreatedID++
				var body struct {
					Metafield shopify.Metafield `json:"metafield"`
				}
				json.NewDecoder(r.Body).Decode(&body)
				body.Metafield.ID = f.nextCreatedID
				json.NewEncoder(w).Encode(map[string]interface{}{"metafield": body.Metafield})
				return
			}

			if pid == f.failMetafieldsFor {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"errors":"boom"}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"metafields": f.metafields[pid]})

		// products/{id}.json
		case r.Method == http.MethodPut:
			var body map[string]json.RawMessage
			json.NewDecoder(r.Body).Decode(&body)
			f.productPuts = append(f.productPuts, body)
			fmt.Fprint(w, `{}`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeShopify) close() { f.server.Close() }

// ==================== 测试辅助 ====================

type svcFixture struct {
	db         *gorm.DB
	productSvc *ProductService
	storeRepo  repository.StoreRepository
	remote     *fakeShopify
	user       *model.User
	store      *model.Store
}

func setupProductSvc(t *testing.T, cfg SyncConfig) *svcFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// :memory: 按连接隔离，收敛到单连接避免拿到空库
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{}, &model.Store{},
		&model.Product{}, &model.ProductVariant{}, &model.ProductTag{}, &model.ProductMetafield{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	remote := newFakeShopify()
	t.Cleanup(remote.close)

	user := &model.User{Email: "owner@example.com", Name: "Owner", Password: "x"}
	db.Create(user)

	store := &model.Store{
		Name:        "测试店铺",
		Platform:    model.PlatformShopify,
		StoreURL:    remote.server.URL,
		AccessToken: "shpat_test",
		UserID:      user.ID,
	}
	db.Create(store)

	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)

	svc := NewProductService(productRepo, storeRepo, cfg)
	svc.SetClientFactory(func(storeURL, accessToken string) *shopify.Client {
		return shopify.NewClient(storeURL, accessToken, shopify.WithScheme("http"))
	})

	return &svcFixture{
		db:         db,
		productSvc: svc,
		storeRepo:  storeRepo,
		remote:     remote,
		user:       user,
		store:      store,
	}
}

// ==================== 导入测试 ====================

func TestImport_CreatesProductsWithChildren(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	cap := "39.99"
	f.remote.products = []shopify.Product{
		{
			ID:       1001,
			Title:    "帆布托特包",
			BodyHTML: "<p>结实耐用</p>",
			Tags:     "bags, canvas,,  summer ",
			Variants: []shopify.Variant{
				{ID: 1, Title: "Small", Price: "29.99", CompareAtPrice: &cap, SKU: "TOTE-S", InventoryQuantity: 10},
				{ID: 2, Title: "Large", Price: "34.99", SKU: "TOTE-L", InventoryQuantity: 5},
			},
			Images: []shopify.Image{{Src: "https://cdn.example.com/fallback.jpg"}},
		},
	}
	f.remote.metafields[1001] = []shopify.Metafield{
		{ID: 501, Namespace: "custom", Key: "material", Value: "cotton", Type: "single_line_text_field"},
	}

	count, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID)
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("导入条数 = %d, 期望 1", count)
	}

	var p model.Product
	if err := f.db.Preload("Variants").Preload("Tags").Preload("Metafields").
		Where("store_id = ? AND remote_id = ?", f.store.ID, "1001").First(&p).Error; err != nil {
		t.Fatalf("查询商品失败: %v", err)
	}

	// 商品级价格取首个变体
	if p.Price != 29.99 {
		t.Errorf("Price = %v, 期望 29.99", p.Price)
	}
	if p.CompareAtPrice == nil || *p.CompareAtPrice != 39.99 {
		t.Errorf("CompareAtPrice = %v, 期望 39.99", p.CompareAtPrice)
	}
	// image 字段缺失时回退 images[0].src
	if p.Image == nil || *p.Image != "https://cdn.example.com/fallback.jpg" {
		t.Errorf("Image = %v, 期望回退到 images[0].src", p.Image)
	}
	if len(p.Variants) != 2 {
		t.Errorf("变体数 = %d, 期望 2", len(p.Variants))
	}

	// 标签拆分：逗号分隔、去空白、丢空项
	got := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		got = append(got, tag.Tag)
	}
	want := []string{"bags", "canvas", "summer"}
	if len(got) != len(want) {
		t.Fatalf("标签 = %v, 期望 %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("标签[%d] = %q, 期望 %q", i, got[i], want[i])
		}
	}

	if len(p.Metafields) != 1 || p.Metafields[0].RemoteID != "501" {
		t.Errorf("元字段 = %+v, 期望 remote_id=501 一条", p.Metafields)
	}
}

func TestImport_Idempotent(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	f.remote.products = []shopify.Product{
		{ID: 2001, Title: "初版标题", Variants: []shopify.Variant{{ID: 1, Price: "10.00"}}},
	}

	if _, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID); err != nil {
		t.Fatalf("首次导入失败: %v", err)
	}

	// 远程改标题后重导
	f.remote.mu.Lock()
	f.remote.products[0].Title = "改后标题"
	f.remote.mu.Unlock()

	if _, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID); err != nil {
		t.Fatalf("重复导入失败: %v", err)
	}

	var productCount int64
	f.db.Model(&model.Product{}).Where("store_id = ?", f.store.ID).Count(&productCount)
	if productCount != 1 {
		t.Fatalf("商品数 = %d, 期望 1 (按 store_id+remote_id 覆盖)", productCount)
	}

	var p model.Product
	f.db.Where("store_id = ? AND remote_id = ?", f.store.ID, "2001").First(&p)
	if p.Title != "改后标题" {
		t.Errorf("Title = %q, 期望覆盖为改后标题", p.Title)
	}

	var variantCount int64
	f.db.Model(&model.ProductVariant{}).Where("product_id = ?", p.ID).Count(&variantCount)
	if variantCount != 1 {
		t.Errorf("变体数 = %d, 期望 1 (整组替换不累积)", variantCount)
	}
}

func TestImport_DefaultPriceZero(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	f.remote.products = []shopify.Product{
		{ID: 3001, Title: "无变体"},
		{ID: 3002, Title: "坏价格", Variants: []shopify.Variant{{ID: 1, Price: "abc"}}},
		{ID: 3003, Title: "空价格", Variants: []shopify.Variant{{ID: 2, Price: ""}}},
	}

	if _, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID); err != nil {
		t.Fatalf("导入失败: %v", err)
	}

	var products []model.Product
	f.db.Where("store_id = ?", f.store.ID).Find(&products)
	for _, p := range products {
		if p.Price != 0 {
			t.Errorf("商品 %s Price = %v, 期望 0", p.RemoteID, p.Price)
		}
	}
}

func TestImport_StoreOwnershipAndPlatform(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	// 别人的用户 ID → 店铺视同不存在
	_, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID+999, f.store.ID)
	if !errors.Is(err, ErrStoreNotFound) {
		t.Errorf("err = %v, 期望 ErrStoreNotFound", err)
	}

	// 非 Shopify 平台不支持导入
	other := &model.Store{
		Name: "Woo", Platform: model.PlatformWooCommerce,
		StoreURL: "shop.example.com", AccessToken: "x", UserID: f.user.ID,
	}
	f.db.Create(other)

	_, err = f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, other.ID)
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("err = %v, 期望 ErrUnsupportedPlatform", err)
	}
}

func TestImport_PartialFailureKeepsCommitted(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	f.remote.products = []shopify.Product{
		{ID: 4001, Title: "第一件", Variants: []shopify.Variant{{ID: 1, Price: "5.00"}}},
		{ID: 4002, Title: "第二件", Variants: []shopify.Variant{{ID: 2, Price: "6.00"}}},
	}
	// 第二件商品的元字段接口故障
	f.remote.failMetafieldsFor = 4002

	count, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID)
	if err == nil {
		t.Fatal("期望返回错误")
	}
	if count != 1 {
		t.Errorf("已处理条数 = %d, 期望 1", count)
	}

	// 第一件保持已提交
	var committed int64
	f.db.Model(&model.Product{}).Where("store_id = ? AND remote_id = ?", f.store.ID, "4001").Count(&committed)
	if committed != 1 {
		t.Errorf("第一件商品未保留提交: count = %d", committed)
	}
}

func TestImport_SerializedPerStore(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})

	f.remote.products = []shopify.Product{
		{ID: 5001, Title: "唯一商品", Variants: []shopify.Variant{{ID: 1, Price: "9.99"}}},
	}

	// 并发触发同店铺导入，串行化后不产生重复行也不互相失败
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.productSvc.ImportStoreProducts(context.Background(), f.user.ID, f.store.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("并发导入失败: %v", err)
		}
	}

	var count int64
	f.db.Model(&model.Product{}).Where("store_id = ?", f.store.ID).Count(&count)
	if count != 1 {
		t.Errorf("商品数 = %d, 期望 1", count)
	}
}

// ==================== 编辑/回推测试 ====================

// seedProduct 预置一个带两个变体和一条本地元字段的已导入商品
func seedProduct(t *testing.T, f *svcFixture) *model.Product {
	t.Helper()

	p := &model.Product{
		StoreID:     f.store.ID,
		RemoteID:    "7001",
		Title:       "原始标题",
		Description: "原始描述",
		Price:       10.00,
	}
	if err := f.db.Create(p).Error; err != nil {
		t.Fatalf("预置商品失败: %v", err)
	}
	f.db.Create(&model.ProductVariant{ProductID: p.ID, RemoteID: "71", Title: "A", Price: 10.00})
	f.db.Create(&model.ProductVariant{ProductID: p.ID, RemoteID: "72", Title: "B", Price: 12.00})
	f.db.Create(&model.ProductMetafield{ProductID: p.ID, Namespace: "custom", Key: "note", Value: "本地", Type: "single_line_text_field"})
	return p
}

func TestUpdateProduct_PropagatesPriceAndPushes(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	p := seedProduct(t, f)

	price := 19.99
	title := "新标题"
	tags := []string{"sale", "summer"}
	updated, err := f.productSvc.UpdateProduct(context.Background(), f.user.ID, p.ID, &dto.UpdateProductReq{
		Title: &title,
		Price: &price,
		Tags:  &tags,
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}

	if updated.Title != "新标题" || updated.Price != 19.99 {
		t.Errorf("本地字段未更新: %+v", updated)
	}

	// 价格无条件传播到所有本地变体
	for _, v := range updated.Variants {
		if v.Price != 19.99 {
			t.Errorf("变体 %s Price = %v, 期望 19.99", v.RemoteID, v.Price)
		}
	}

	// 远程收到一次商品 PUT，含全量变体价格数组
	f.remote.mu.Lock()
	defer f.remote.mu.Unlock()
	if len(f.remote.productPuts) != 1 {
		t.Fatalf("远程商品 PUT 次数 = %d, 期望 1", len(f.remote.productPuts))
	}

	var body struct {
		Title    string `json:"title"`
		Tags     string `json:"tags"`
		Variants []struct {
			ID    int64  `json:"id"`
			Price string `json:"price"`
		} `json:"variants"`
	}
	json.Unmarshal(f.remote.productPuts[0]["product"], &body)
	if body.Title != "新标题" {
		t.Errorf("远程 title = %q", body.Title)
	}
	if body.Tags != "sale, summer" {
		t.Errorf("远程 tags = %q, 期望 sale, summer", body.Tags)
	}
	if len(body.Variants) != 2 {
		t.Fatalf("远程变体数 = %d, 期望 2", len(body.Variants))
	}
	for _, v := range body.Variants {
		if v.Price != "19.99" {
			t.Errorf("远程变体 %d price = %q, 期望 19.99", v.ID, v.Price)
		}
	}
}

func TestUpdateProduct_LocalMetafieldSkipsRemote(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	p := seedProduct(t, f)

	// 无远程 ID 的元字段默认只落本地
	_, err := f.productSvc.UpdateProduct(context.Background(), f.user.ID, p.ID, &dto.UpdateProductReq{
		Metafields: []dto.MetafieldPatch{
			{Namespace: "custom", Key: "note", Value: "改过", Type: "single_line_text_field"},
		},
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}

	f.remote.mu.Lock()
	puts, posts := f.remote.metafieldPuts, f.remote.metafieldPost
	f.remote.mu.Unlock()
	if puts != 0 || posts != 0 {
		t.Errorf("远程元字段调用 put=%d post=%d, 期望均为 0", puts, posts)
	}

	var mf model.ProductMetafield
	f.db.Where("product_id = ? AND key = ?", p.ID, "note").First(&mf)
	if mf.Value != "改过" {
		t.Errorf("本地元字段 Value = %q, 期望改过", mf.Value)
	}
}

func TestUpdateProduct_RemoteMetafieldPushed(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	p := seedProduct(t, f)

	_, err := f.productSvc.UpdateProduct(context.Background(), f.user.ID, p.ID, &dto.UpdateProductReq{
		Metafields: []dto.MetafieldPatch{
			{RemoteID: "501", Namespace: "custom", Key: "material", Value: "linen", Type: "single_line_text_field"},
		},
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}

	f.remote.mu.Lock()
	defer f.remote.mu.Unlock()
	if f.remote.metafieldPuts != 1 {
		t.Errorf("远程元字段 PUT 次数 = %d, 期望 1", f.remote.metafieldPuts)
	}
}

func TestUpdateProduct_CreateMissingMetafields(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{CreateMissingMetafields: true})
	p := seedProduct(t, f)

	_, err := f.productSvc.UpdateProduct(context.Background(), f.user.ID, p.ID, &dto.UpdateProductReq{
		Metafields: []dto.MetafieldPatch{
			{Namespace: "custom", Key: "origin", Value: "手工", Type: "single_line_text_field"},
		},
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}

	f.remote.mu.Lock()
	posts := f.remote.metafieldPost
	f.remote.mu.Unlock()
	if posts != 1 {
		t.Fatalf("远程元字段 POST 次数 = %d, 期望 1", posts)
	}

	// 平台分配的 ID 回写到本地行
	var mf model.ProductMetafield
	f.db.Where("product_id = ? AND key = ?", p.ID, "origin").First(&mf)
	if mf.RemoteID == "" {
		t.Error("本地元字段未回写远程 ID")
	}
}

func TestUpdateProduct_NotOwned(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	p := seedProduct(t, f)

	stranger := &model.User{Email: "other@example.com", Name: "Other", Password: "x"}
	f.db.Create(stranger)

	title := "越权"
	_, err := f.productSvc.UpdateProduct(context.Background(), stranger.ID, p.ID, &dto.UpdateProductReq{Title: &title})
	if !errors.Is(err, ErrNotOwned) {
		t.Errorf("err = %v, 期望 ErrNotOwned", err)
	}

	// 越权请求不产生任何变更
	var got model.Product
	f.db.First(&got, p.ID)
	if got.Title != "原始标题" {
		t.Errorf("Title = %q, 越权不应修改", got.Title)
	}
}

func TestUpdateProduct_RemoteFailureKeepsLocal(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	p := seedProduct(t, f)

	// 远程 PUT 故障
	f.remote.server.Close()

	title := "本地已提交"
	_, err := f.productSvc.UpdateProduct(context.Background(), f.user.ID, p.ID, &dto.UpdateProductReq{Title: &title})
	if err == nil {
		t.Fatal("期望回推失败返回错误")
	}
	var rerr *shopify.RemoteError
	if !errors.As(err, &rerr) {
		t.Errorf("错误类型 = %T, 期望 *RemoteError", err)
	}

	// 本地改动不回滚
	var got model.Product
	f.db.First(&got, p.ID)
	if got.Title != "本地已提交" {
		t.Errorf("Title = %q, 本地改动应保留", got.Title)
	}
}

func TestListProducts_ScopedToOwner(t *testing.T) {
	f := setupProductSvc(t, SyncConfig{})
	seedProduct(t, f)

	// 归属用户能看到
	products, err := f.productSvc.ListProducts(context.Background(), f.user.ID, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("商品数 = %d, 期望 1", len(products))
	}

	// 指定别人店铺 → 404 语义
	stranger := &model.User{Email: "s@example.com", Name: "S", Password: "x"}
	f.db.Create(stranger)
	_, err = f.productSvc.ListProducts(context.Background(), stranger.ID, f.store.ID)
	if !errors.Is(err, ErrStoreNotFound) {
		t.Errorf("err = %v, 期望 ErrStoreNotFound", err)
	}

	// 别人看全量列表为空
	products, err = f.productSvc.ListProducts(context.Background(), stranger.ID, 0)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("越权商品数 = %d, 期望 0", len(products))
	}
}
