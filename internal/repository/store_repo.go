package repository

import (
	"context"

	"gorm.io/gorm"

	"storesync/internal/model"
)

// ==================== 接口定义 ====================

// StoreWithCount 店铺 + 商品数
type StoreWithCount struct {
	model.Store
	ProductCount int64 `json:"product_count"`
}

// StoreRepository 店铺仓储接口
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id int64) (*model.Store, error)
	// GetOwned 按 (id, userID) 查询，归属校验不通过视同不存在
	GetOwned(ctx context.Context, id, userID int64) (*model.Store, error)
	ListByUser(ctx context.Context, userID int64) ([]StoreWithCount, error)
	ListByPlatform(ctx context.Context, platform model.Platform) ([]model.Store, error)
	// Delete 删除店铺并级联清理其商品及变体/标签/元字段
	Delete(ctx context.Context, id int64) error

	WithTx(tx *gorm.DB) StoreRepository
}

// ==================== 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) GetOwned(ctx context.Context, id, userID int64) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) ListByUser(ctx context.Context, userID int64) ([]StoreWithCount, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}

	if len(stores) == 0 {
		return []StoreWithCount{}, nil
	}

	// 商品数一次性分组统计，避免 N+1
	storeIDs := make([]int64, 0, len(stores))
	for _, s := range stores {
		storeIDs = append(storeIDs, s.ID)
	}

	type countRow struct {
		StoreID int64
		Count   int64
	}
	var rows []countRow
	err = r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("store_id, COUNT(*) as count").
		Where("store_id IN ?", storeIDs).
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.StoreID] = row.Count
	}

	result := make([]StoreWithCount, 0, len(stores))
	for _, s := range stores {
		result = append(result, StoreWithCount{Store: s, ProductCount: counts[s.ID]})
	}
	return result, nil
}

func (r *storeRepo) ListByPlatform(ctx context.Context, platform model.Platform) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Find(&stores).Error
	return stores, err
}

func (r *storeRepo) Delete(ctx context.Context, id int64) error {
	// 软删除不会触发数据库级联，子表在同一事务里显式清理
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []int64
		err := tx.Model(&model.Product{}).
			Where("store_id = ?", id).
			Pluck("id", &productIDs).Error
		if err != nil {
			return err
		}

		if len(productIDs) > 0 {
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.ProductVariant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.ProductTag{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.ProductMetafield{}).Error; err != nil {
				return err
			}
			if err := tx.Where("store_id = ?", id).Delete(&model.Product{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Store{}, id).Error
	})
}

func (r *storeRepo) WithTx(tx *gorm.DB) StoreRepository {
	return &storeRepo{db: tx}
}
