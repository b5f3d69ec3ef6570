package dto

import "time"

// ==================== 请求 DTO ====================

// CreateStoreReq 接入店铺请求
type CreateStoreReq struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Platform    string `json:"platform" binding:"required,oneof=SHOPIFY WOOCOMMERCE MAGENTO CUSTOM"`
	StoreURL    string `json:"storeUrl" binding:"required,min=1,max=255"`
	AccessToken string `json:"accessToken" binding:"required,min=1"`
}

// ==================== 响应 DTO ====================

// StoreResp 店铺响应（不回传 AccessToken）
type StoreResp struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Platform     string    `json:"platform"`
	StoreURL     string    `json:"storeUrl"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"created_at"`
}

// ImportResp 导入结果响应
type ImportResp struct {
	Success       bool   `json:"success"`
	ImportedCount int    `json:"importedCount"`
	Message       string `json:"message"`
}
