package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storesync/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础查询
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByStoreAndRemoteID(ctx context.Context, storeID int64, remoteID string) (*model.Product, error)
	ListByStores(ctx context.Context, storeIDs []int64) ([]model.Product, error)

	// 导入写入
	// Upsert 以 (store_id, remote_id) 为冲突键创建或覆盖商品行
	Upsert(ctx context.Context, product *model.Product) error
	ReplaceVariants(ctx context.Context, productID int64, variants []model.ProductVariant) error
	ReplaceTags(ctx context.Context, productID int64, tags []model.ProductTag) error
	ReplaceMetafields(ctx context.Context, productID int64, metafields []model.ProductMetafield) error

	// 编辑写入
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	UpdateAllVariantPrices(ctx context.Context, productID int64, price float64) error
	UpdateMetafieldRemoteID(ctx context.Context, id int64, remoteID string) error

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Variants").
		Preload("Tags").
		Preload("Metafields").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByStoreAndRemoteID(ctx context.Context, storeID int64, remoteID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND remote_id = ?", storeID, remoteID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) ListByStores(ctx context.Context, storeIDs []int64) ([]model.Product, error) {
	if len(storeIDs) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Variants").
		Preload("Tags").
		Preload("Metafields").
		Where("store_id IN ?", storeIDs).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Upsert(ctx context.Context, product *model.Product) error {
	// 冲突键依赖 idx_store_remote 唯一索引，两个并发导入只会留下一行
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "price", "compare_at_price", "image", "updated_at",
		}),
	}).Create(product).Error
}

func (r *productRepo) ReplaceVariants(ctx context.Context, productID int64, variants []model.ProductVariant) error {
	// 整组替换：先删后建，不做 diff
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductVariant{}).Error
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		variants[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

func (r *productRepo) ReplaceTags(ctx context.Context, productID int64, tags []model.ProductTag) error {
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductTag{}).Error
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	for i := range tags {
		tags[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&tags).Error
}

func (r *productRepo) ReplaceMetafields(ctx context.Context, productID int64, metafields []model.ProductMetafield) error {
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductMetafield{}).Error
	if err != nil {
		return err
	}
	if len(metafields) == 0 {
		return nil
	}
	for i := range metafields {
		metafields[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&metafields).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) UpdateAllVariantPrices(ctx context.Context, productID int64, price float64) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("product_id = ?", productID).
		Update("price", price).Error
}

func (r *productRepo) UpdateMetafieldRemoteID(ctx context.Context, id int64, remoteID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductMetafield{}).
		Where("id = ?", id).
		Update("remote_id", remoteID).Error
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
