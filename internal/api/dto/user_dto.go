package dto

// ==================== 请求 DTO ====================

// RegisterReq 注册请求
type RegisterReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginReq 登录请求
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshReq 刷新 Token 请求
type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ==================== 响应 DTO ====================

// UserResp 用户信息响应（不含密码哈希）
type UserResp struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenResp 登录/刷新响应
type TokenResp struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserResp `json:"user"`
}
