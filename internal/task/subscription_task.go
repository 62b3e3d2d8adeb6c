package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"listhub_v1_202608/internal/service"
)

// ==================== SubscriptionTask 订阅到期任务 ====================

// SubscriptionTask 定时将到期订阅置为过期，并清理过期验证码
type SubscriptionTask struct {
	subService  *service.SubscriptionService
	authService *service.AuthService
	cron        *cron.Cron
}

// NewSubscriptionTask 创建订阅到期任务
func NewSubscriptionTask(subService *service.SubscriptionService, authService *service.AuthService) *SubscriptionTask {
	return &SubscriptionTask{
		subService:  subService,
		authService: authService,
		cron:        cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *SubscriptionTask) Start() {
	// 定时策略：每十分钟执行
	_, err := t.cron.AddFunc("0 */10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.execute(ctx)
	})

	if err != nil {
		log.Fatalf("[SubscriptionTask] 无法启动定时任务: %v", err)
	}

	t.cron.Start()
	log.Println("[SubscriptionTask] 订阅到期任务已启动 (每十分钟检查)")
}

// Stop 停止任务
func (t *SubscriptionTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[SubscriptionTask] 订阅到期任务已停止")
}

// RunOnce 立即执行一轮，测试用
func (t *SubscriptionTask) RunOnce(ctx context.Context) {
	t.execute(ctx)
}

func (t *SubscriptionTask) execute(ctx context.Context) {
	expired, err := t.subService.ExpireLapsed(ctx)
	if err != nil {
		log.Printf("[SubscriptionTask] 订阅到期处理失败: %v", err)
	} else if expired > 0 {
		log.Printf("[SubscriptionTask] 已过期订阅: %d", expired)
	}

	cleaned, err := t.authService.CleanExpiredOTP(ctx)
	if err != nil {
		log.Printf("[SubscriptionTask] 清理过期验证码失败: %v", err)
	} else if cleaned > 0 {
		log.Printf("[SubscriptionTask] 清理过期验证码: %d", cleaned)
	}
}
