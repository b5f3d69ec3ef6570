package shopify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"storesync/pkg/metrics"
)

// APIVersion 当前对接的 Admin REST API 版本
const APIVersion = "2023-10"

var schemeRe = regexp.MustCompile(`^https?://`)

// RemoteError 远程店铺 API 返回非 2xx 或网络失败
type RemoteError struct {
	Op     string // 操作名，如 fetch_products
	Status int    // HTTP 状态码，网络失败时为 0
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("shopify %s: 网络请求失败: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("shopify %s: API 异常 [%d]: %s", e.Op, e.Status, e.Body)
}

// Option 客户端可选配置
type Option func(*Client)

// WithScheme 覆盖请求协议 (测试用 http)
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// WithPageSize 覆盖分页大小
func WithPageSize(size int) Option {
	return func(c *Client) { c.pageSize = size }
}

// Client Shopify Admin REST 客户端
// 每个店铺一个实例，无重试、无熔断，失败直接返回 RemoteError
type Client struct {
	shop     string // 规范化后的域名 (无协议、无尾斜杠)
	scheme   string
	pageSize int
	http     *resty.Client
}

// NewClient 创建店铺客户端
// storeURL 允许带协议与尾斜杠，统一规范化后拼接 endpoint
func NewClient(storeURL, accessToken string, opts ...Option) *Client {
	shop := schemeRe.ReplaceAllString(storeURL, "")
	shop = strings.TrimRight(shop, "/")

	httpClient := resty.New().
		SetTimeout(20*time.Second).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetHeader("Content-Type", "application/json")

	c := &Client{
		shop:     shop,
		scheme:   "https",
		pageSize: 250, // Admin API 单页上限
		http:     httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Shop 返回规范化后的店铺域名
func (c *Client) Shop() string {
	return c.shop
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s://%s/admin/api/%s/%s", c.scheme, c.shop, APIVersion, path)
}

// ==================== 查询 ====================

// FetchProducts 拉取全部商品
// 通过 limit + since_id 翻页，直到返回不足一页为止
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	var sinceID int64

	for {
		var res struct {
			Products []Product `json:"products"`
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("limit", fmt.Sprintf("%d", c.pageSize)).
			SetQueryParam("since_id", fmt.Sprintf("%d", sinceID)).
			SetResult(&res).
			Get(c.url("products.json"))

		if rerr := c.checkResp("fetch_products", resp, err); rerr != nil {
			return nil, rerr
		}

		all = append(all, res.Products...)

		// 返回不足一页，说明已经拉完
		if len(res.Products) < c.pageSize {
			break
		}
		sinceID = res.Products[len(res.Products)-1].ID
	}

	return all, nil
}

// FetchProductMetafields 拉取单个商品的元字段
func (c *Client) FetchProductMetafields(ctx context.Context, productID int64) ([]Metafield, error) {
	var res struct {
		Metafields []Metafield `json:"metafields"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&res).
		Get(c.url(fmt.Sprintf("products/%d/metafields.json", productID)))

	if rerr := c.checkResp("fetch_metafields", resp, err); rerr != nil {
		return nil, rerr
	}
	return res.Metafields, nil
}

// ==================== 更新 ====================

// UpdateProduct 部分更新远程商品，只下发已设置的字段
func (c *Client) UpdateProduct(ctx context.Context, productID int64, upd ProductUpdate) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"product": upd}).
		Put(c.url(fmt.Sprintf("products/%d.json", productID)))

	return c.checkResp("update_product", resp, err)
}

// UpdateMetafield 按远程 ID 更新单条元字段
func (c *Client) UpdateMetafield(ctx context.Context, productID, metafieldID int64, upd MetafieldUpdate) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"metafield": upd}).
		Put(c.url(fmt.Sprintf("products/%d/metafields/%d.json", productID, metafieldID)))

	return c.checkResp("update_metafield", resp, err)
}

// CreateMetafield 在远程商品上新建元字段，返回平台分配的 ID
func (c *Client) CreateMetafield(ctx context.Context, productID int64, mf Metafield) (int64, error) {
	var res struct {
		Metafield Metafield `json:"metafield"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"metafield": mf}).
		SetResult(&res).
		Post(c.url(fmt.Sprintf("products/%d/metafields.json", productID)))

	if rerr := c.checkResp("create_metafield", resp, err); rerr != nil {
		return 0, rerr
	}
	return res.Metafield.ID, nil
}

// ==================== 内部 ====================

// checkResp 统一的失败判定：网络错误或非 2xx 都包装为 RemoteError
func (c *Client) checkResp(op string, resp *resty.Response, err error) error {
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(op, "error").Inc()
		return &RemoteError{Op: op, Body: err.Error()}
	}
	if resp.IsError() {
		metrics.RemoteRequests.WithLabelValues(op, "error").Inc()
		return &RemoteError{Op: op, Status: resp.StatusCode(), Body: resp.String()}
	}
	metrics.RemoteRequests.WithLabelValues(op, "ok").Inc()
	return nil
}
