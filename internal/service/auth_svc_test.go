package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storesync/internal/api/dto"
	"storesync/internal/middleware"
	"storesync/internal/model"
	"storesync/internal/repository"
)

func setupAuthSvc(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return NewAuthService(repository.NewUserRepository(db))
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	svc := setupAuthSvc(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &dto.RegisterReq{
		Email: "alice@example.com", Name: "Alice", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if user.Password == "secret123" {
		t.Error("密码以明文入库")
	}

	// 重复注册
	_, err = svc.Register(ctx, &dto.RegisterReq{
		Email: "alice@example.com", Name: "Alice2", Password: "other",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, 期望 ErrEmailTaken", err)
	}

	// 正确凭证
	tokens, err := svc.Login(ctx, &dto.LoginReq{Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Token 对为空")
	}
	if tokens.User.Email != "alice@example.com" {
		t.Errorf("User.Email = %q", tokens.User.Email)
	}

	// 错误密码
	_, err = svc.Login(ctx, &dto.LoginReq{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, 期望 ErrInvalidCredentials", err)
	}

	// 未注册邮箱
	_, err = svc.Login(ctx, &dto.LoginReq{Email: "nobody@example.com", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, 期望 ErrInvalidCredentials", err)
	}
}

func TestAuth_Refresh(t *testing.T) {
	svc := setupAuthSvc(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterReq{
		Email: "bob@example.com", Name: "Bob", Password: "secret123",
	}); err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	tokens, err := svc.Login(ctx, &dto.LoginReq{Email: "bob@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}

	renewed, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if renewed.AccessToken == "" {
		t.Error("刷新后 AccessToken 为空")
	}

	// Access Token 不能当 Refresh Token 用
	if _, err := svc.Refresh(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, 期望 ErrInvalidToken", err)
	}

	// 垃圾串
	if _, err := svc.Refresh(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, 期望 ErrInvalidToken", err)
	}

	// 刷新出来的 Access Token 可通过解析
	claims, err := middleware.ParseToken(renewed.AccessToken)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if claims.Email != "bob@example.com" || claims.Subject != "access" {
		t.Errorf("claims = %+v", claims)
	}
}
