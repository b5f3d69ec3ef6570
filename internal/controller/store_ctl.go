package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storesync/internal/api/dto"
	"storesync/internal/middleware"
	"storesync/internal/service"
)

type StoreController struct {
	storeSvc   *service.StoreService
	productSvc *service.ProductService
}

func NewStoreController(storeSvc *service.StoreService, productSvc *service.ProductService) *StoreController {
	return &StoreController{
		storeSvc:   storeSvc,
		productSvc: productSvc,
	}
}

// ListStores 获取店铺列表
// @Summary 获取当前用户的店铺列表
// @Description 返回店铺及各自的商品数，不回传 AccessToken
// @Tags Store (店铺管理)
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.StoreResp "店铺列表"
// @Failure 401 {object} map[string]string "未认证"
// @Router /api/stores [get]
func (ctrl *StoreController) ListStores(c *gin.Context) {
	userID := middleware.GetUserID(c)

	stores, err := ctrl.storeSvc.ListStores(c.Request.Context(), userID)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, stores)
}

// CreateStore 接入店铺
// @Summary 接入新店铺
// @Description 登记店铺的平台、地址与访问凭证
// @Tags Store (店铺管理)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateStoreReq true "店铺信息"
// @Success 200 {object} dto.StoreResp "接入成功"
// @Failure 400 {object} map[string]string "参数错误"
// @Router /api/stores [post]
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req dto.CreateStoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	store, err := ctrl.storeSvc.CreateStore(c.Request.Context(), userID, &req)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, dto.StoreResp{
		ID:        store.ID,
		Name:      store.Name,
		Platform:  string(store.Platform),
		StoreURL:  store.StoreURL,
		CreatedAt: store.CreatedAt,
	})
}

// DeleteStore 删除店铺
// @Summary 删除店铺
// @Description 删除店铺并级联清理其全部商品、变体、标签、元字段
// @Tags Store (店铺管理)
// @Produce json
// @Security BearerAuth
// @Param id path int true "店铺ID"
// @Success 200 {object} map[string]string "删除成功"
// @Failure 404 {object} map[string]string "店铺不存在或不属于当前用户"
// @Router /api/stores/{id} [delete]
func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	userID := middleware.GetUserID(c)

	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		fail(c, http.StatusBadRequest, "无效的店铺ID")
		return
	}

	if err := ctrl.storeSvc.DeleteStore(c.Request.Context(), userID, storeID); err != nil {
		svcError(c, err)
		return
	}

	ok(c, gin.H{"deleted": storeID})
}

// ImportProducts 导入店铺商品
// @Summary 全量导入店铺商品
// @Description 从远程平台拉取全部商品并写入本地，已存在的按 (store_id, remote_id) 覆盖
// @Tags Store (店铺管理)
// @Produce json
// @Security BearerAuth
// @Param id path int true "店铺ID"
// @Success 200 {object} dto.ImportResp "导入结果"
// @Failure 400 {object} map[string]string "平台不支持导入"
// @Failure 404 {object} map[string]string "店铺不存在或不属于当前用户"
// @Failure 500 {object} map[string]string "远程平台请求失败"
// @Router /api/stores/{id}/import-products [post]
func (ctrl *StoreController) ImportProducts(c *gin.Context) {
	userID := middleware.GetUserID(c)

	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		fail(c, http.StatusBadRequest, "无效的店铺ID")
		return
	}

	count, err := ctrl.productSvc.ImportStoreProducts(c.Request.Context(), userID, storeID)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, dto.ImportResp{
		Success:       true,
		ImportedCount: count,
		Message:       strconv.Itoa(count) + " 件商品导入成功",
	})
}
