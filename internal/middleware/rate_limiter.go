package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== ImportRateLimiter 导入限流器 ====================

// ImportRateLimiter 导入冷却限流器
// 防止用户频繁触发手动导入导致远程平台 API 限流
type ImportRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &ImportRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *ImportRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时更新最后执行时间
func (r *ImportRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的冷却
func (r *ImportRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// StoreImportKey 生成店铺级导入冷却 Key
func StoreImportKey(storeID int64) string {
	return fmt.Sprintf("store:%d:import", storeID)
}

// ==================== Gin 中间件 ====================

// ImportCooldown 导入接口冷却中间件
// 同一店铺在 interval 内重复触发导入会被 429 拒绝
// interval <= 0 时不限流
func ImportCooldown(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || storeID <= 0 {
			// ID 非法时交给后续 handler 统一报 400
			c.Next()
			return
		}

		result := globalLimiter.Check(StoreImportKey(storeID), interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":       429,
				"message":    "导入触发过于频繁，请稍后重试",
				"retryAfter": int(result.RetryAfter.Seconds()) + 1,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
