package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==================== 同步指标 ====================

var (
	// ImportTotal 按结果统计的导入次数
	ImportTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storesync",
		Name:      "import_total",
		Help:      "Number of catalog imports, labelled by result.",
	}, []string{"result"})

	// ImportedProducts 导入处理的商品条数
	ImportedProducts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storesync",
		Name:      "imported_products_total",
		Help:      "Number of products processed by imports.",
	})

	// RemoteRequests 对远程店铺 API 的请求数，按操作与结果统计
	RemoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storesync",
		Name:      "remote_requests_total",
		Help:      "Requests issued to remote store APIs.",
	}, []string{"op", "result"})

	// RemotePushTotal 编辑回推远程的次数
	RemotePushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storesync",
		Name:      "remote_push_total",
		Help:      "Number of local edits pushed back to the origin store.",
	}, []string{"result"})
)
