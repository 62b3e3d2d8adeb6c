package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"listhub_v1_202608/internal/repository"
	"listhub_v1_202608/internal/service"
)

// ==================== CleanupTask 清理任务 ====================

// CleanupTask 定时清理孤儿图片与超期未发布的草稿
// 孤儿图片：上传成功但始终未归属任何刊登（草稿创建失败或被放弃）
type CleanupTask struct {
	listingRepo repository.ListingRepository
	imageRepo   repository.ListingImageRepository
	sessionRepo repository.WorkflowSessionRepository
	storage     service.StorageProvider
	cron        *cron.Cron

	// 保留期
	orphanTTL time.Duration
	draftTTL  time.Duration
}

// NewCleanupTask 创建清理任务
func NewCleanupTask(
	listingRepo repository.ListingRepository,
	imageRepo repository.ListingImageRepository,
	sessionRepo repository.WorkflowSessionRepository,
	storage service.StorageProvider,
) *CleanupTask {
	return &CleanupTask{
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		sessionRepo: sessionRepo,
		storage:     storage,
		cron:        cron.New(cron.WithSeconds()),
		orphanTTL:   24 * time.Hour,
		draftTTL:    30 * 24 * time.Hour,
	}
}

// SetTTL 设置保留期
func (t *CleanupTask) SetTTL(orphanTTL, draftTTL time.Duration) {
	t.orphanTTL = orphanTTL
	t.draftTTL = draftTTL
}

// Start 启动定时任务
func (t *CleanupTask) Start() {
	// 定时策略：每小时执行
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.execute(ctx)
	})

	if err != nil {
		log.Fatalf("[CleanupTask] 无法启动定时任务: %v", err)
	}

	t.cron.Start()
	log.Println("[CleanupTask] 清理任务已启动 (每小时检查)")
}

// Stop 停止任务
func (t *CleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[CleanupTask] 清理任务已停止")
}

// RunOnce 立即执行一轮清理，测试与手动触发用
func (t *CleanupTask) RunOnce(ctx context.Context) {
	t.execute(ctx)
}

// execute 执行一轮清理
func (t *CleanupTask) execute(ctx context.Context) {
	t.sweepOrphanImages(ctx)
	t.sweepAbandonedDrafts(ctx)
}

// sweepOrphanImages 回收超期未归属的图片
func (t *CleanupTask) sweepOrphanImages(ctx context.Context) {
	orphans, err := t.imageRepo.FindOrphans(ctx, time.Now().Add(-t.orphanTTL))
	if err != nil {
		log.Printf("[CleanupTask] 查询孤儿图片失败: %v", err)
		return
	}
	if len(orphans) == 0 {
		return
	}

	cleaned := 0
	for _, img := range orphans {
		if err := t.storage.Delete(ctx, img.URL); err != nil {
			log.Printf("[CleanupTask] 删除存储文件失败: %s: %v", img.URL, err)
			continue
		}
		if err := t.imageRepo.Delete(ctx, img.ID); err != nil {
			log.Printf("[CleanupTask] 删除图片记录失败: %d: %v", img.ID, err)
			continue
		}
		cleaned++
	}

	log.Printf("[CleanupTask] 孤儿图片清理完成: %d/%d", cleaned, len(orphans))
}

// sweepAbandonedDrafts 回收超期未发布且未付费的草稿
func (t *CleanupTask) sweepAbandonedDrafts(ctx context.Context) {
	drafts, err := t.listingRepo.FindAbandoned(ctx, time.Now().Add(-t.draftTTL))
	if err != nil {
		log.Printf("[CleanupTask] 查询过期草稿失败: %v", err)
		return
	}
	if len(drafts) == 0 {
		return
	}

	for _, draft := range drafts {
		for _, url := range draft.Photos {
			if err := t.storage.Delete(ctx, url); err != nil {
				log.Printf("[CleanupTask] 删除存储文件失败: %s: %v", url, err)
			}
		}
		if err := t.imageRepo.DeleteByListingID(ctx, draft.ID); err != nil {
			log.Printf("[CleanupTask] 删除草稿图片记录失败: %d: %v", draft.ID, err)
		}
		if err := t.sessionRepo.DeleteByListingID(ctx, draft.ID); err != nil {
			log.Printf("[CleanupTask] 删除工作流会话失败: %d: %v", draft.ID, err)
		}
		if err := t.listingRepo.Delete(ctx, draft.ID); err != nil {
			log.Printf("[CleanupTask] 删除草稿失败: %d: %v", draft.ID, err)
		}
	}

	log.Printf("[CleanupTask] 过期草稿清理完成: %d", len(drafts))
}
