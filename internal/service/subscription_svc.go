package service

import (
	"context"
	"log"
	"time"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 服务实现 ====================

// SubscriptionService 订阅直通判定
// 有效订阅用户发布草稿免支付，直接进入区域选择步骤
type SubscriptionService struct {
	subs     repository.SubscriptionRepository
	payments repository.PaymentRecordRepository
	workflow *WorkflowService
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	payments repository.PaymentRecordRepository,
	workflow *WorkflowService,
) *SubscriptionService {
	return &SubscriptionService{
		subs:     subs,
		payments: payments,
		workflow: workflow,
	}
}

// CheckValidity 查询用户是否持有有效订阅
// 查询失败一律按无订阅处理：宁可多收一次费，不能漏收
func (s *SubscriptionService) CheckValidity(ctx context.Context, userID int64) bool {
	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return false
	}
	return sub.IsValid(time.Now())
}

// Validity 订阅有效性查询（接口视图）
func (s *SubscriptionService) Validity(ctx context.Context, userID int64) *dto.SubscriptionValidityVO {
	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return &dto.SubscriptionValidityVO{Valid: false}
	}

	vo := &dto.SubscriptionValidityVO{
		Valid:  sub.IsValid(time.Now()),
		PlanID: sub.PlanID,
	}
	if sub.ExpiresAt != nil {
		vo.ExpiresAt = sub.ExpiresAt.Format(time.RFC3339)
	}
	return vo
}

// RouteAfterDraft 草稿创建成功后的一次性支付路由判定
// 有效订阅：跳过支付，写入直通支付分段并进入区域选择；
// 否则进入支付步骤。判定结果对本草稿不再重算
func (s *SubscriptionService) RouteAfterDraft(ctx context.Context, userID, listingID int64) (skipPayment bool, err error) {
	if !s.CheckValidity(ctx, userID) {
		return false, s.workflow.EnterPayment(ctx, listingID)
	}

	// 直通也留存一条免支付记录，审计用
	record := &model.PaymentRecord{
		ListingID:   listingID,
		UserID:      userID,
		Status:      model.PaymentStatusConfirmed,
		SkipPayment: true,
	}
	if cerr := s.payments.Create(ctx, record); cerr != nil {
		log.Printf("[Subscription] 留存直通记录失败: %v", cerr)
	}

	paymentData := model.JSONMap{
		"skip_payment": true,
		"payment_id":   record.ID,
		"amount":       float64(0),
	}
	return true, s.workflow.EnterRegion(ctx, listingID, paymentData)
}

// ExpireLapsed 将到期订阅置为过期，由定时任务调用
func (s *SubscriptionService) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.subs.ExpireLapsed(ctx, time.Now())
}
