package model

// Platform 店铺平台类型
type Platform string

const (
	PlatformShopify     Platform = "SHOPIFY"
	PlatformWooCommerce Platform = "WOOCOMMERCE"
	PlatformMagento     Platform = "MAGENTO"
	PlatformCustom      Platform = "CUSTOM"
)

// Store 已接入的外部电商店铺
// 每个店铺归属唯一用户；删除店铺会级联删除其全部商品及子表数据
type Store struct {
	BaseModel

	Name     string   `gorm:"size:100;not null"`
	Platform Platform `gorm:"size:20;not null;index"` // SHOPIFY, WOOCOMMERCE, MAGENTO, CUSTOM

	// 远程接入配置
	StoreURL    string `gorm:"size:255;not null"` // 如 my-shop.myshopify.com
	AccessToken string `gorm:"size:255;not null"` // 平台 Admin API Token

	// 归属用户
	UserID int64 `gorm:"index;not null"`
	User   *User `gorm:"foreignKey:UserID"`

	// 关联关系
	Products []Product `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Store) TableName() string {
	return "stores"
}
