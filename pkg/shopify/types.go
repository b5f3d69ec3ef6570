package shopify

// Shopify Admin REST API 的商品数据结构
// 对应 GET /admin/api/{ver}/products.json 返回的 product 对象

// Product 远程商品
type Product struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	BodyHTML   string      `json:"body_html"`
	Tags       string      `json:"tags"` // 逗号拼接的标签串，如 "a, b, c"
	Variants   []Variant   `json:"variants"`
	Image      *Image      `json:"image,omitempty"`
	Images     []Image     `json:"images,omitempty"`
	Metafields []Metafield `json:"metafields,omitempty"`
}

// Variant 远程变体，价格为字符串
type Variant struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price,omitempty"`
	SKU               string  `json:"sku,omitempty"`
	InventoryQuantity int     `json:"inventory_quantity,omitempty"`
	Option1           string  `json:"option1,omitempty"`
	Option2           string  `json:"option2,omitempty"`
	Option3           string  `json:"option3,omitempty"`
}

// Image 远程图片
type Image struct {
	Src string `json:"src"`
}

// Metafield 远程元字段
type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// ==================== 更新 Payload ====================

// ProductUpdate 商品部分更新，只序列化已设置的字段
type ProductUpdate struct {
	Title    *string              `json:"title,omitempty"`
	BodyHTML *string              `json:"body_html,omitempty"`
	Tags     *string              `json:"tags,omitempty"`
	Variants []VariantPriceUpdate `json:"variants,omitempty"`
}

// VariantPriceUpdate 变体价格更新条目
type VariantPriceUpdate struct {
	ID             int64   `json:"id"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compare_at_price,omitempty"`
}

// MetafieldUpdate 元字段部分更新
type MetafieldUpdate struct {
	ID        int64   `json:"id,omitempty"`
	Namespace *string `json:"namespace,omitempty"`
	Key       *string `json:"key,omitempty"`
	Value     *string `json:"value,omitempty"`
	Type      *string `json:"type,omitempty"`
}
