package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestImportRateLimiter_Check(t *testing.T) {
	limiter := &ImportRateLimiter{}
	key := StoreImportKey(1)

	first := limiter.Check(key, 100*time.Millisecond)
	if !first.Allowed {
		t.Fatal("首次触发应当放行")
	}

	second := limiter.Check(key, 100*time.Millisecond)
	if second.Allowed {
		t.Fatal("冷却期内应当拒绝")
	}
	if second.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, 期望 > 0", second.RetryAfter)
	}

	// 不同店铺互不影响
	if !limiter.Check(StoreImportKey(2), 100*time.Millisecond).Allowed {
		t.Error("不同 key 不应共享冷却")
	}

	time.Sleep(120 * time.Millisecond)
	if !limiter.Check(key, 100*time.Millisecond).Allowed {
		t.Error("冷却结束后应当放行")
	}
}

func TestImportCooldown_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/stores/:id/import", ImportCooldown(time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	do := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// 全局限流器在测试间复用，用不易撞车的店铺 ID
	if code := do("/stores/987001/import"); code != http.StatusOK {
		t.Fatalf("首次触发 status = %d, 期望 200", code)
	}
	if code := do("/stores/987001/import"); code != http.StatusTooManyRequests {
		t.Errorf("冷却期内 status = %d, 期望 429", code)
	}
	if code := do("/stores/987002/import"); code != http.StatusOK {
		t.Errorf("其他店铺 status = %d, 期望 200", code)
	}
}
