package controller

import (
	"github.com/gin-gonic/gin"

	"storesync/internal/api/dto"
	"storesync/internal/service"
)

type AuthController struct {
	authSvc *service.AuthService
}

func NewAuthController(authSvc *service.AuthService) *AuthController {
	return &AuthController{
		authSvc: authSvc,
	}
}

// Register 用户注册
// @Summary 用户注册
// @Description 邮箱注册新账号，密码以 bcrypt 哈希存储
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param body body dto.RegisterReq true "注册信息"
// @Success 200 {object} dto.UserResp "注册成功"
// @Failure 400 {object} map[string]string "参数错误或邮箱已被注册"
// @Router /api/auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := ctrl.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, dto.UserResp{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，返回 Access/Refresh Token 对
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param body body dto.LoginReq true "登录凭证"
// @Success 200 {object} dto.TokenResp "登录成功"
// @Failure 401 {object} map[string]string "邮箱或密码错误"
// @Router /api/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := ctrl.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, tokens)
}

// Refresh 刷新 Token
// @Summary 刷新 Token
// @Description 用 Refresh Token 换取新的 Token 对
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param body body dto.RefreshReq true "Refresh Token"
// @Success 200 {object} dto.TokenResp "刷新成功"
// @Failure 401 {object} map[string]string "Token 无效或已过期"
// @Router /api/auth/refresh [post]
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := ctrl.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, tokens)
}
