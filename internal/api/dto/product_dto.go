package dto

import "time"

// ==================== 请求 DTO ====================

// MetafieldPatch 编辑请求中的元字段条目
// RemoteID 为空表示本地新增，默认不会同步到远程（见 ProductService 配置）
type MetafieldPatch struct {
	RemoteID  string `json:"id"`
	Namespace string `json:"namespace" binding:"required"`
	Key       string `json:"key" binding:"required"`
	Value     string `json:"value" binding:"required"`
	Type      string `json:"type" binding:"required"`
}

// UpdateProductReq 商品编辑请求，全部字段可选
// Price 设置时会无条件传播到该商品的所有本地变体
type UpdateProductReq struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *float64         `json:"price,omitempty" binding:"omitempty,gte=0"`
	Tags        *[]string        `json:"tags,omitempty"`
	Metafields  []MetafieldPatch `json:"metafields,omitempty" binding:"omitempty,dive"`
}

// ==================== 响应 DTO ====================

// VariantResp 变体响应
type VariantResp struct {
	ID                int64    `json:"id"`
	RemoteID          string   `json:"remote_id,omitempty"`
	Title             string   `json:"title"`
	Price             float64  `json:"price"`
	CompareAtPrice    *float64 `json:"compare_at_price,omitempty"`
	SKU               string   `json:"sku,omitempty"`
	InventoryQuantity int      `json:"inventory_quantity"`
	Option1           string   `json:"option1,omitempty"`
	Option2           string   `json:"option2,omitempty"`
	Option3           string   `json:"option3,omitempty"`
}

// MetafieldResp 元字段响应
type MetafieldResp struct {
	ID        int64  `json:"id"`
	RemoteID  string `json:"remote_id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// ProductStoreResp 商品响应里内嵌的店铺摘要
type ProductStoreResp struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// ProductResp 商品详情响应
type ProductResp struct {
	ID             int64             `json:"id"`
	StoreID        int64             `json:"store_id"`
	RemoteID       string            `json:"remote_id,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	CompareAtPrice *float64          `json:"compare_at_price,omitempty"`
	Image          *string           `json:"image,omitempty"`
	Store          *ProductStoreResp `json:"store,omitempty"`
	Variants       []VariantResp     `json:"variants"`
	Tags           []string          `json:"tags"`
	Metafields     []MetafieldResp   `json:"metafields"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
