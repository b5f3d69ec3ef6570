package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storesync/internal/api/dto"
	"storesync/internal/model"
	"storesync/internal/repository"
)

// StoreService 店铺接入管理
type StoreService struct {
	storeRepo repository.StoreRepository
}

// NewStoreService 工厂方法
func NewStoreService(storeRepo repository.StoreRepository) *StoreService {
	return &StoreService{storeRepo: storeRepo}
}

// CreateStore 接入新店铺
func (s *StoreService) CreateStore(ctx context.Context, userID int64, req *dto.CreateStoreReq) (*model.Store, error) {
	store := &model.Store{
		Name:        req.Name,
		Platform:    model.Platform(req.Platform),
		StoreURL:    req.StoreURL,
		AccessToken: req.AccessToken,
		UserID:      userID,
	}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// ListStores 列出当前用户的店铺（带商品数）
func (s *StoreService) ListStores(ctx context.Context, userID int64) ([]dto.StoreResp, error) {
	stores, err := s.storeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.StoreResp, 0, len(stores))
	for _, st := range stores {
		resp = append(resp, dto.StoreResp{
			ID:           st.ID,
			Name:         st.Name,
			Platform:     string(st.Platform),
			StoreURL:     st.StoreURL,
			ProductCount: st.ProductCount,
			CreatedAt:    st.CreatedAt,
		})
	}
	return resp, nil
}

// DeleteStore 删除店铺，级联清理其全部商品及子表
// 归属校验不通过按不存在处理
func (s *StoreService) DeleteStore(ctx context.Context, userID, storeID int64) error {
	_, err := s.storeRepo.GetOwned(ctx, storeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}
	return s.storeRepo.Delete(ctx, storeID)
}
