package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storesync/internal/api/dto"
	"storesync/internal/model"
	"storesync/internal/repository"
	"storesync/pkg/metrics"
	"storesync/pkg/shopify"
	"storesync/pkg/utils"
)

// SyncConfig 同步行为配置
type SyncConfig struct {
	// CreateMissingMetafields 编辑时是否把无远程 ID 的元字段创建到远程
	// 默认 false：本地新增的元字段只落库，不回推
	CreateMissingMetafields bool
}

// ProductService 商品查询 + 双向同步
// 导入方向：远程商品 -> 本地行（逐商品事务写入）
// 回推方向：本地编辑 -> 远程部分更新
type ProductService struct {
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	cfg         SyncConfig

	// 同店铺导入串行化，防止并发导入竞争建行
	importLocks utils.KeyMutex

	// 客户端工厂，测试时替换为指向本地假远程的实现
	newClient func(storeURL, accessToken string) *shopify.Client
}

// NewProductService 工厂方法
func NewProductService(productRepo repository.ProductRepository, storeRepo repository.StoreRepository, cfg SyncConfig) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		storeRepo:   storeRepo,
		cfg:         cfg,
		newClient: func(storeURL, accessToken string) *shopify.Client {
			return shopify.NewClient(storeURL, accessToken)
		},
	}
}

// SetClientFactory 替换远程客户端工厂（测试用）
func (s *ProductService) SetClientFactory(f func(storeURL, accessToken string) *shopify.Client) {
	s.newClient = f
}

// ==================== 查询 ====================

// ListProducts 列出用户的商品
// storeID > 0 时限定单店铺（须归属当前用户，否则视同不存在）
func (s *ProductService) ListProducts(ctx context.Context, userID, storeID int64) ([]model.Product, error) {
	var storeIDs []int64

	if storeID > 0 {
		store, err := s.storeRepo.GetOwned(ctx, storeID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStoreNotFound
			}
			return nil, err
		}
		storeIDs = []int64{store.ID}
	} else {
		stores, err := s.storeRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, st := range stores {
			storeIDs = append(storeIDs, st.ID)
		}
	}

	return s.productRepo.ListByStores(ctx, storeIDs)
}

// GetProduct 商品详情，归属校验不通过按不存在处理
func (s *ProductService) GetProduct(ctx context.Context, userID, productID int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.Store == nil || product.Store.UserID != userID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ==================== 导入方向 ====================

// ImportStoreProducts 全量导入店铺商品，返回处理条数
// 每个商品的建行 + 子表替换包在一个事务里；循环整体不包事务，
// 中途失败时已处理的商品保持已提交状态
func (s *ProductService) ImportStoreProducts(ctx context.Context, userID, storeID int64) (int, error) {
	store, err := s.storeRepo.GetOwned(ctx, storeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrStoreNotFound
		}
		return 0, err
	}

	if store.Platform != model.PlatformShopify {
		return 0, ErrUnsupportedPlatform
	}

	// 同店铺导入串行化
	s.importLocks.Lock(store.ID)
	defer s.importLocks.Unlock(store.ID)

	client := s.newClient(store.StoreURL, store.AccessToken)

	remoteProducts, err := client.FetchProducts(ctx)
	if err != nil {
		metrics.ImportTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	count := 0
	for _, rp := range remoteProducts {
		// 元字段单独拉取，每个商品一次请求
		mfs, err := client.FetchProductMetafields(ctx, rp.ID)
		if err != nil {
			metrics.ImportTotal.WithLabelValues("error").Inc()
			return count, err
		}

		if err := s.importOne(ctx, store.ID, rp, mfs); err != nil {
			metrics.ImportTotal.WithLabelValues("error").Inc()
			return count, err
		}
		count++
	}

	metrics.ImportTotal.WithLabelValues("ok").Inc()
	metrics.ImportedProducts.Add(float64(count))
	zap.L().Info("商品导入完成",
		zap.Int64("store_id", store.ID),
		zap.Int("imported", count))

	return count, nil
}

// importOne 单个商品的建行/覆盖 + 子表整组替换，包在一个事务里
func (s *ProductService) importOne(ctx context.Context, storeID int64, rp shopify.Product, mfs []shopify.Metafield) error {
	remoteID := strconv.FormatInt(rp.ID, 10)

	product := &model.Product{
		StoreID:        storeID,
		RemoteID:       remoteID,
		Title:          rp.Title,
		Description:    rp.BodyHTML,
		Price:          firstVariantPrice(rp.Variants),
		CompareAtPrice: firstVariantCompareAt(rp.Variants),
		Image:          productImage(rp),
	}

	return s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		if err := txRepo.Upsert(ctx, product); err != nil {
			return err
		}

		// Upsert 命中已有行时主键未必回填，按冲突键重查一次
		saved, err := txRepo.GetByStoreAndRemoteID(ctx, storeID, remoteID)
		if err != nil {
			return err
		}

		variants := make([]model.ProductVariant, 0, len(rp.Variants))
		for _, v := range rp.Variants {
			variants = append(variants, model.ProductVariant{
				RemoteID:          strconv.FormatInt(v.ID, 10),
				Title:             v.Title,
				Price:             parsePrice(v.Price),
				CompareAtPrice:    parseOptionalPrice(v.CompareAtPrice),
				SKU:               v.SKU,
				InventoryQuantity: v.InventoryQuantity,
				Option1:           v.Option1,
				Option2:           v.Option2,
				Option3:           v.Option3,
			})
		}
		if err := txRepo.ReplaceVariants(ctx, saved.ID, variants); err != nil {
			return err
		}

		tags := make([]model.ProductTag, 0)
		for _, t := range splitTags(rp.Tags) {
			tags = append(tags, model.ProductTag{Tag: t})
		}
		if err := txRepo.ReplaceTags(ctx, saved.ID, tags); err != nil {
			return err
		}

		metafields := make([]model.ProductMetafield, 0, len(mfs))
		for _, mf := range mfs {
			var mfRemoteID string
			if mf.ID != 0 {
				mfRemoteID = strconv.FormatInt(mf.ID, 10)
			}
			metafields = append(metafields, model.ProductMetafield{
				RemoteID:  mfRemoteID,
				Namespace: mf.Namespace,
				Key:       mf.Key,
				Value:     mf.Value,
				Type:      mf.Type,
			})
		}
		return txRepo.ReplaceMetafields(ctx, saved.ID, metafields)
	})
}

// ==================== 编辑/回推方向 ====================

// UpdateProduct 应用编辑补丁
// 本地写入包在一个事务里；远程回推在本地提交之后执行，
// 回推失败时本地改动不回滚，错误原样上抛
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID int64, req *dto.UpdateProductReq) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.Store == nil || product.Store.UserID != userID {
		return nil, ErrNotOwned
	}

	// ---- 本地写入 ----
	err = s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		fields := map[string]interface{}{}
		if req.Title != nil {
			fields["title"] = *req.Title
		}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		if req.Price != nil {
			fields["price"] = *req.Price
		}
		if len(fields) > 0 {
			if err := txRepo.UpdateFields(ctx, productID, fields); err != nil {
				return err
			}
		}

		// 商品级价格无条件传播到所有本地变体
		if req.Price != nil {
			if err := txRepo.UpdateAllVariantPrices(ctx, productID, *req.Price); err != nil {
				return err
			}
		}

		if req.Tags != nil {
			tags := make([]model.ProductTag, 0, len(*req.Tags))
			for _, t := range *req.Tags {
				tags = append(tags, model.ProductTag{Tag: t})
			}
			if err := txRepo.ReplaceTags(ctx, productID, tags); err != nil {
				return err
			}
		}

		if req.Metafields != nil {
			metafields := make([]model.ProductMetafield, 0, len(req.Metafields))
			for _, mf := range req.Metafields {
				metafields = append(metafields, model.ProductMetafield{
					RemoteID:  mf.RemoteID,
					Namespace: mf.Namespace,
					Key:       mf.Key,
					Value:     mf.Value,
					Type:      mf.Type,
				})
			}
			if err := txRepo.ReplaceMetafields(ctx, productID, metafields); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// 重新加载，拿到传播后的变体/标签/元字段
	updated, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// ---- 远程回推 ----
	// 仅 Shopify 店铺且商品带远程 ID 时回推；其余平台编辑只落本地
	if product.Store.Platform == model.PlatformShopify && updated.RemoteID != "" {
		if err := s.pushEdit(ctx, product.Store, updated, req); err != nil {
			metrics.RemotePushTotal.WithLabelValues("error").Inc()
			zap.L().Error("编辑回推失败，本地已提交，远程状态可能不一致",
				zap.Int64("product_id", productID),
				zap.Error(err))
			return nil, err
		}
		metrics.RemotePushTotal.WithLabelValues("ok").Inc()
	}

	return updated, nil
}

// pushEdit 把本次编辑构造成远程部分更新并下发
func (s *ProductService) pushEdit(ctx context.Context, store *model.Store, product *model.Product, req *dto.UpdateProductReq) error {
	remotePID, err := strconv.ParseInt(product.RemoteID, 10, 64)
	if err != nil {
		return fmt.Errorf("远程商品 ID 无效: %q", product.RemoteID)
	}

	client := s.newClient(store.StoreURL, store.AccessToken)

	upd := shopify.ProductUpdate{
		Title: req.Title,
	}
	if req.Description != nil {
		upd.BodyHTML = req.Description
	}
	if req.Tags != nil {
		joined := strings.Join(*req.Tags, ", ")
		upd.Tags = &joined
	}

	// 价格变更时下发全量变体价格数组
	if req.Price != nil {
		for _, v := range product.Variants {
			vid, err := strconv.ParseInt(v.RemoteID, 10, 64)
			if err != nil {
				continue // 无远程 ID 的变体无法下发
			}
			item := shopify.VariantPriceUpdate{
				ID:    vid,
				Price: formatPrice(v.Price),
			}
			if v.CompareAtPrice != nil {
				cap := formatPrice(*v.CompareAtPrice)
				item.CompareAtPrice = &cap
			}
			upd.Variants = append(upd.Variants, item)
		}
	}

	if err := client.UpdateProduct(ctx, remotePID, upd); err != nil {
		return err
	}

	if req.Metafields == nil {
		return nil
	}

	// 带远程 ID 的元字段逐条更新
	for _, mf := range req.Metafields {
		if mf.RemoteID == "" {
			continue
		}
		mfID, err := strconv.ParseInt(mf.RemoteID, 10, 64)
		if err != nil {
			continue
		}
		patch := shopify.MetafieldUpdate{
			ID:        mfID,
			Namespace: strPtr(mf.Namespace),
			Key:       strPtr(mf.Key),
			Value:     strPtr(mf.Value),
			Type:      strPtr(mf.Type),
		}
		if err := client.UpdateMetafield(ctx, remotePID, mfID, patch); err != nil {
			return err
		}
	}

	// 默认关闭：无远程 ID 的元字段只落本地
	// 打开 CreateMissingMetafields 后会在远程新建并回写分配的 ID
	if s.cfg.CreateMissingMetafields {
		if err := s.createMissingMetafields(ctx, client, remotePID, product); err != nil {
			return err
		}
	}

	return nil
}

// createMissingMetafields 把本地无远程 ID 的元字段创建到远程并回写 ID
func (s *ProductService) createMissingMetafields(ctx context.Context, client *shopify.Client, remotePID int64, product *model.Product) error {
	for _, mf := range product.Metafields {
		if mf.RemoteID != "" {
			continue
		}
		newID, err := client.CreateMetafield(ctx, remotePID, shopify.Metafield{
			Namespace: mf.Namespace,
			Key:       mf.Key,
			Value:     mf.Value,
			Type:      mf.Type,
		})
		if err != nil {
			return err
		}
		if err := s.productRepo.UpdateMetafieldRemoteID(ctx, mf.ID, strconv.FormatInt(newID, 10)); err != nil {
			return err
		}
	}
	return nil
}

// ==================== 响应转换 ====================

// ToProductResp Model -> 响应 DTO
func (s *ProductService) ToProductResp(p *model.Product) dto.ProductResp {
	resp := dto.ProductResp{
		ID:             p.ID,
		StoreID:        p.StoreID,
		RemoteID:       p.RemoteID,
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Image:          p.Image,
		Variants:       make([]dto.VariantResp, 0, len(p.Variants)),
		Tags:           make([]string, 0, len(p.Tags)),
		Metafields:     make([]dto.MetafieldResp, 0, len(p.Metafields)),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	if p.Store != nil {
		resp.Store = &dto.ProductStoreResp{
			Name:     p.Store.Name,
			Platform: string(p.Store.Platform),
		}
	}

	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, dto.VariantResp{
			ID:                v.ID,
			RemoteID:          v.RemoteID,
			Title:             v.Title,
			Price:             v.Price,
			CompareAtPrice:    v.CompareAtPrice,
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQuantity,
			Option1:           v.Option1,
			Option2:           v.Option2,
			Option3:           v.Option3,
		})
	}

	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, t.Tag)
	}

	for _, mf := range p.Metafields {
		resp.Metafields = append(resp.Metafields, dto.MetafieldResp{
			ID:        mf.ID,
			RemoteID:  mf.RemoteID,
			Namespace: mf.Namespace,
			Key:       mf.Key,
			Value:     mf.Value,
			Type:      mf.Type,
		})
	}

	return resp
}

// ==================== 字段映射辅助 ====================

// parsePrice 解析价格串，空串/非法值按 0 处理
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseOptionalPrice(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// firstVariantPrice 商品级价格取首个变体的价格，缺失时为 0
func firstVariantPrice(variants []shopify.Variant) float64 {
	if len(variants) == 0 {
		return 0
	}
	return parsePrice(variants[0].Price)
}

func firstVariantCompareAt(variants []shopify.Variant) *float64 {
	if len(variants) == 0 {
		return nil
	}
	return parseOptionalPrice(variants[0].CompareAtPrice)
}

// productImage image.src 缺失时回退到 images[0].src
func productImage(rp shopify.Product) *string {
	if rp.Image != nil && rp.Image.Src != "" {
		return &rp.Image.Src
	}
	if len(rp.Images) > 0 && rp.Images[0].Src != "" {
		return &rp.Images[0].Src
	}
	return nil
}

// splitTags 逗号拆分标签串，去除空白、丢弃空项
// "a, b,,c" -> [a b c]
func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func strPtr(s string) *string {
	return &s
}
