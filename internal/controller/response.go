package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storesync/internal/service"
	"storesync/pkg/shopify"
)

// ==================== 统一响应 ====================

// ok 成功响应，统一 {code:0, message:"success", data:...} 包装
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// fail 错误响应
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// bindError 参数绑定失败 → 400，校验错误带违规字段明细
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数校验失败",
			"fields":  fields,
		})
		return
	}
	fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
}

// svcError 服务层错误 → HTTP 状态码
func svcError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrProductNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwned):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnsupportedPlatform):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, err.Error())
	default:
		var remoteErr *shopify.RemoteError
		if errors.As(err, &remoteErr) {
			fail(c, http.StatusInternalServerError, "远程平台请求失败: "+remoteErr.Error())
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
	}
}
