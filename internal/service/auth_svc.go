package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storesync/internal/api/dto"
	"storesync/internal/middleware"
	"storesync/internal/model"
	"storesync/internal/repository"
)

// AuthService 用户注册/登录
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService 工厂方法
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register 注册用户，密码经 bcrypt 哈希后入库
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterReq) (*model.User, error) {
	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验凭证并签发 Token 对
func (s *AuthService) Login(ctx context.Context, req *dto.LoginReq) (*dto.TokenResp, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh 用 Refresh Token 换新的 Token 对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResp, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil || claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *model.User) (*dto.TokenResp, error) {
	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		User: dto.UserResp{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	}, nil
}
