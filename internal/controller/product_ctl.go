package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storesync/internal/api/dto"
	"storesync/internal/middleware"
	"storesync/internal/service"
)

type ProductController struct {
	productSvc *service.ProductService
}

func NewProductController(productSvc *service.ProductService) *ProductController {
	return &ProductController{
		productSvc: productSvc,
	}
}

// ListProducts 获取商品列表
// @Summary 获取商品列表
// @Description 返回当前用户全部店铺的商品，storeId 传入时限定单店铺
// @Tags Product (商品管理)
// @Produce json
// @Security BearerAuth
// @Param storeId query int false "店铺ID筛选"
// @Success 200 {array} dto.ProductResp "商品列表"
// @Failure 404 {object} map[string]string "店铺不存在或不属于当前用户"
// @Router /api/products [get]
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var storeID int64
	if raw := c.Query("storeId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fail(c, http.StatusBadRequest, "无效的 storeId")
			return
		}
		storeID = id
	}

	products, err := ctrl.productSvc.ListProducts(c.Request.Context(), userID, storeID)
	if err != nil {
		svcError(c, err)
		return
	}

	resp := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		resp = append(resp, ctrl.productSvc.ToProductResp(&products[i]))
	}

	ok(c, resp)
}

// GetProduct 获取商品详情
// @Summary 获取商品详情
// @Description 含变体、标签、元字段及所属店铺摘要
// @Tags Product (商品管理)
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ProductResp "商品详情"
// @Failure 404 {object} map[string]string "商品不存在"
// @Router /api/products/{id} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	userID := middleware.GetUserID(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		fail(c, http.StatusBadRequest, "无效的商品ID")
		return
	}

	product, err := ctrl.productSvc.GetProduct(c.Request.Context(), userID, productID)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, ctrl.productSvc.ToProductResp(product))
}

// UpdateProduct 编辑商品
// @Summary 编辑商品并回推远程
// @Description 本地先提交，Shopify 店铺的商品随后把改动推送到远程平台
// @Tags Product (商品管理)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Param body body dto.UpdateProductReq true "编辑补丁，全部字段可选"
// @Success 200 {object} dto.ProductResp "编辑后的商品"
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 401 {object} map[string]string "商品不属于当前用户"
// @Failure 404 {object} map[string]string "商品不存在"
// @Failure 500 {object} map[string]string "远程回推失败（本地改动已提交）"
// @Router /api/products/{id} [put]
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	userID := middleware.GetUserID(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		fail(c, http.StatusBadRequest, "无效的商品ID")
		return
	}

	var req dto.UpdateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := ctrl.productSvc.UpdateProduct(c.Request.Context(), userID, productID, &req)
	if err != nil {
		svcError(c, err)
		return
	}

	ok(c, ctrl.productSvc.ToProductResp(product))
}
