package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 按键冷却限流器
// 防止验证码被刷与同一刊登的支付意向被频繁创建
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &CooldownLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *CooldownLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时刷新最后执行时间
// key: 限流键，如 "otp:13800000000"
// interval: 冷却间隔
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
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
	return CheckResult{
		Allowed:    true,
		RetryAfter: 0,
	}
}

// Reset 重置指定 key 的限流
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// OTPSendKey 验证码发送限流 Key
func OTPSendKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

// IntentCreateKey 支付意向创建限流 Key
func IntentCreateKey(listingID int64) string {
	return fmt.Sprintf("intent:%d", listingID)
}

// ==================== 默认冷却间隔 ====================

const (
	// OTPSendInterval 同一手机号验证码发送间隔
	OTPSendInterval = 60 * time.Second

	// IntentCreateInterval 同一刊登支付意向创建间隔
	IntentCreateInterval = 3 * time.Second
)
