package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storesync/internal/api/dto"
	"storesync/internal/model"
	"storesync/internal/repository"
)

func setupStoreSvc(t *testing.T) (*StoreService, *gorm.DB, *model.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Store{},
		&model.Product{}, &model.ProductVariant{}, &model.ProductTag{}, &model.ProductMetafield{},
	))

	user := &model.User{Email: "u@example.com", Name: "U", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	return NewStoreService(repository.NewStoreRepository(db)), db, user
}

func TestStoreService_CreateAndList(t *testing.T) {
	svc, _, user := setupStoreSvc(t)
	ctx := context.Background()

	store, err := svc.CreateStore(ctx, user.ID, &dto.CreateStoreReq{
		Name:        "我的店",
		Platform:    "SHOPIFY",
		StoreURL:    "mystore.myshopify.com",
		AccessToken: "shpat_secret",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, store.UserID)
	assert.Equal(t, model.PlatformShopify, store.Platform)

	list, err := svc.ListStores(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "我的店", list[0].Name)
	assert.Equal(t, int64(0), list[0].ProductCount)
}

func TestStoreService_ListScopedToUser(t *testing.T) {
	svc, db, user := setupStoreSvc(t)
	ctx := context.Background()

	other := &model.User{Email: "o@example.com", Name: "O", Password: "x"}
	require.NoError(t, db.Create(other).Error)

	_, err := svc.CreateStore(ctx, user.ID, &dto.CreateStoreReq{
		Name: "Mine", Platform: "SHOPIFY", StoreURL: "a.example.com", AccessToken: "x",
	})
	require.NoError(t, err)
	_, err = svc.CreateStore(ctx, other.ID, &dto.CreateStoreReq{
		Name: "Theirs", Platform: "SHOPIFY", StoreURL: "b.example.com", AccessToken: "x",
	})
	require.NoError(t, err)

	list, err := svc.ListStores(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)
}

func TestStoreService_DeleteOwnership(t *testing.T) {
	svc, db, user := setupStoreSvc(t)
	ctx := context.Background()

	store, err := svc.CreateStore(ctx, user.ID, &dto.CreateStoreReq{
		Name: "Mine", Platform: "SHOPIFY", StoreURL: "a.example.com", AccessToken: "x",
	})
	require.NoError(t, err)

	// 他人删除按不存在处理
	err = svc.DeleteStore(ctx, user.ID+99, store.ID)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	// 本人删除成功
	require.NoError(t, svc.DeleteStore(ctx, user.ID, store.ID))

	var count int64
	db.Model(&model.Store{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// 再删一次 → 不存在
	err = svc.DeleteStore(ctx, user.ID, store.ID)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}
