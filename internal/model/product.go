package model

// Product 本地商品
// 由导入流程创建/覆盖；(store_id, remote_id) 唯一，作为 Upsert 冲突键
type Product struct {
	BaseModel

	// --- 归属 ---
	StoreID int64  `gorm:"index;not null;uniqueIndex:idx_store_remote"`
	Store   *Store `gorm:"foreignKey:StoreID"`

	// --- 平台身份 ---
	RemoteID string `gorm:"size:64;uniqueIndex:idx_store_remote"` // 平台侧商品 ID，本地创建时为空

	// --- 商品基本信息 ---
	Title       string `gorm:"size:255"`
	Description string `gorm:"type:text"`

	// --- 价格 ---
	// Price 取远程首个变体的价格，缺失时为 0
	Price          float64  `gorm:"default:0"`
	CompareAtPrice *float64 `gorm:""`

	// --- 图片 ---
	// 远程 image.src 缺失时回退到 images[0].src
	Image *string `gorm:"size:512"`

	// --- 关联关系（重导入时整组替换） ---
	Variants   []ProductVariant   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tags       []ProductTag       `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Metafields []ProductMetafield `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariant 商品变体
// 每次重导入或价格编辑传播时整组删除重建，不做 diff
type ProductVariant struct {
	BaseModel

	ProductID int64    `gorm:"index;not null"`
	Product   *Product `gorm:"foreignKey:ProductID"`

	RemoteID          string   `gorm:"size:64;index"`
	Title             string   `gorm:"size:255"`
	Price             float64  `gorm:"default:0"`
	CompareAtPrice    *float64 `gorm:""`
	SKU               string   `gorm:"size:100;index"`
	InventoryQuantity int      `gorm:"default:0"`
	Option1           string   `gorm:"size:100"`
	Option2           string   `gorm:"size:100"`
	Option3           string   `gorm:"size:100"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// ProductTag 商品标签，编辑/导入时整组替换
type ProductTag struct {
	BaseModel

	ProductID int64  `gorm:"index;not null"`
	Tag       string `gorm:"size:100;not null"`
}

func (ProductTag) TableName() string {
	return "product_tags"
}

// ProductMetafield 平台侧附加的 namespace/key/value/type 元字段
// 导入时整组替换；编辑回推时仅按 RemoteID 逐条 PATCH 到远程
type ProductMetafield struct {
	BaseModel

	ProductID int64 `gorm:"index;not null"`

	RemoteID  string `gorm:"size:64;index"` // 平台侧 metafield ID，本地新增时为空
	Namespace string `gorm:"size:100;not null"`
	Key       string `gorm:"size:100;not null"`
	Value     string `gorm:"type:text"`
	Type      string `gorm:"size:50"` // 如 single_line_text_field
}

func (ProductMetafield) TableName() string {
	return "product_metafields"
}
