package service

import "errors"

// 业务错误，由 Controller 层映射为 HTTP 状态码
var (
	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("邮箱已被注册")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	// ErrInvalidToken Token 无效或类型错误
	ErrInvalidToken = errors.New("token 无效或已过期")

	// ErrStoreNotFound 店铺不存在或不属于当前用户 → 404
	ErrStoreNotFound = errors.New("店铺不存在")
	// ErrProductNotFound 商品不存在 → 404
	ErrProductNotFound = errors.New("商品不存在")
	// ErrNotOwned 商品所属店铺不归当前用户 → 401
	ErrNotOwned = errors.New("无权操作该资源")
	// ErrUnsupportedPlatform 当前仅支持 SHOPIFY 导入 → 400
	ErrUnsupportedPlatform = errors.New("当前仅支持 Shopify 店铺导入")
)
