package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 支付面板 ====================

// SheetOutcome 支付面板结果
type SheetOutcome string

const (
	SheetCompleted SheetOutcome = "completed"
	SheetCancelled SheetOutcome = "cancelled"
	SheetFailed    SheetOutcome = "failed"
)

// SheetResult 支付面板单次展示的三态结果
type SheetResult struct {
	Outcome SheetOutcome
	Reason  string
}

// SheetPresenter 支付提供商客户端面板能力
// Present 阻塞直至用户完成、取消或提供商报错
type SheetPresenter interface {
	Init(ctx context.Context, clientSecret string) error
	Present(ctx context.Context) SheetResult
}

// ==================== 错误定义 ====================

var (
	// ErrSettlementInFlight 同一草稿同时只允许一次结算尝试
	ErrSettlementInFlight = errors.New("该刊登已有进行中的支付，请先完成或取消")

	ErrListingSettled = errors.New("该刊登已完成支付")
	ErrInvalidPromo   = errors.New("优惠码无效或已过期")
)

// ==================== 服务实现 ====================

// PaymentService 支付结算协调器
// 驱动 意向创建 → 面板展示 → 服务端确认 的完整结算流程
type PaymentService struct {
	plans    repository.PaymentPlanRepository
	promos   repository.PromoCodeRepository
	payments repository.PaymentRecordRepository
	subs     repository.SubscriptionRepository
	listings repository.ListingRepository
	workflow *WorkflowService
	gateway  PaymentGateway

	// 进行中的结算尝试，按刊登ID互斥
	inflight   map[int64]struct{}
	inflightMu sync.Mutex
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	plans repository.PaymentPlanRepository,
	promos repository.PromoCodeRepository,
	payments repository.PaymentRecordRepository,
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	workflow *WorkflowService,
	gateway PaymentGateway,
) *PaymentService {
	return &PaymentService{
		plans:    plans,
		promos:   promos,
		payments: payments,
		subs:     subs,
		listings: listings,
		workflow: workflow,
		gateway:  gateway,
		inflight: make(map[int64]struct{}),
	}
}

// ==================== 结算互斥 ====================

// staleAttemptTTL 未决尝试的接管阈值
// 客户端创建意向后失联（崩溃、丢失 intent）会让互斥一直占用，
// 超过阈值的 pending 尝试视为已放弃，新尝试可以接管
const staleAttemptTTL = 15 * time.Minute

func (s *PaymentService) beginAttempt(listingID int64) error {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if _, busy := s.inflight[listingID]; busy {
		return ErrSettlementInFlight
	}
	s.inflight[listingID] = struct{}{}
	return nil
}

func (s *PaymentService) resolveAttempt(listingID int64) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, listingID)
}

// supersedeStale 接管被放弃的结算尝试
// pending 记录超过 staleAttemptTTL 时置为取消并释放互斥，返回是否接管成功
func (s *PaymentService) supersedeStale(ctx context.Context, listingID int64) bool {
	record, err := s.payments.GetPendingByListingID(ctx, listingID)
	if err != nil {
		return false
	}
	if time.Since(record.CreatedAt) < staleAttemptTTL {
		return false
	}

	record.MarkCancelled()
	if err := s.payments.Update(ctx, record); err != nil {
		log.Printf("[Payment] 接管过期尝试失败: %v", err)
		return false
	}
	s.resolveAttempt(listingID)
	return true
}

// ==================== 目录查询 ====================

// ListPlans 获取套餐目录
func (s *PaymentService) ListPlans(ctx context.Context) ([]dto.PaymentPlanVO, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取套餐失败: %v", err)
	}

	result := make([]dto.PaymentPlanVO, len(plans))
	for i, p := range plans {
		result[i] = dto.PaymentPlanVO{
			ID:            p.ID,
			Name:          p.Name,
			Type:          p.Type,
			Price:         float64(p.PriceAmount) / 100,
			ListingFee:    float64(p.ListingFeeAmount) / 100,
			ProcessingFee: float64(p.ProcessingFeeAmount) / 100,
			Currency:      p.CurrencyCode,
			Features:      []string(p.Features),
		}
	}
	return result, nil
}

// CreatePlan 新增套餐，管理员维护目录
func (s *PaymentService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PaymentPlanVO, error) {
	plan := &model.PaymentPlan{
		Name:                req.Name,
		Type:                req.Type,
		PriceAmount:         int64(math.Round(req.Price * 100)),
		ListingFeeAmount:    int64(math.Round(req.ListingFee * 100)),
		ProcessingFeeAmount: int64(math.Round(req.ProcessingFee * 100)),
		CurrencyCode:        req.Currency,
		Features:            model.StringSlice(req.Features),
		Active:              true,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("创建套餐失败: %v", err)
	}

	return &dto.PaymentPlanVO{
		ID:            plan.ID,
		Name:          plan.Name,
		Type:          plan.Type,
		Price:         float64(plan.PriceAmount) / 100,
		ListingFee:    float64(plan.ListingFeeAmount) / 100,
		ProcessingFee: float64(plan.ProcessingFeeAmount) / 100,
		Currency:      plan.CurrencyCode,
		Features:      []string(plan.Features),
	}, nil
}

// ValidatePromo 服务端校验优惠码
func (s *PaymentService) ValidatePromo(ctx context.Context, code string) (*dto.PromoCodeVO, error) {
	promo, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return nil, ErrInvalidPromo
	}
	if !promo.IsUsable(time.Now()) {
		return nil, ErrInvalidPromo
	}

	return &dto.PromoCodeVO{
		ID:            promo.ID,
		Code:          promo.Code,
		DiscountType:  promo.DiscountType,
		DiscountValue: promo.DiscountValue,
	}, nil
}

// DisplayTotal 计算展示总价（元），仅供前端展示，不作为扣款金额
func (s *PaymentService) DisplayTotal(plan *model.PaymentPlan, promo *model.PromoCode) (float64, error) {
	cents, err := model.ComputeDisplayTotal(plan, promo)
	if err != nil {
		return 0, err
	}
	return float64(cents) / 100, nil
}

// ==================== 结算步骤 ====================

// CreateIntent 结算第一步：创建支付意向
// 失败直接报告，不重试；重试总是创建全新 intent
func (s *PaymentService) CreateIntent(ctx context.Context, userID int64, req *dto.CreateIntentRequest) (*dto.IntentSessionVO, error) {
	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, ErrListingNotFound
	}
	if listing.UserID != userID {
		return nil, ErrNotOwner
	}
	if listing.PaymentSettled {
		return nil, ErrListingSettled
	}
	if err := listing.CanEnterPayment(); err != nil {
		return nil, err
	}

	// 工作流必须停在支付步骤：订阅直通或已越过支付的会话不允许再创建意向
	flow, err := s.workflow.GetByListingID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if flow.Stage != model.StageAwaitingPayment {
		return nil, model.ErrStageMismatch
	}

	plan, err := s.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("套餐不存在")
	}

	var promo *model.PromoCode
	if req.PromoCodeID > 0 {
		promo, err = s.promos.GetByID(ctx, req.PromoCodeID)
		if err != nil || !promo.IsUsable(time.Now()) {
			return nil, ErrInvalidPromo
		}
	}

	totalCents, err := model.ComputeDisplayTotal(plan, promo)
	if err != nil {
		return nil, err
	}

	if err := s.beginAttempt(req.ListingID); err != nil {
		if !s.supersedeStale(ctx, req.ListingID) {
			return nil, err
		}
		if err := s.beginAttempt(req.ListingID); err != nil {
			return nil, err
		}
	}

	session, err := s.gateway.CreatePaymentIntent(ctx, &CreateIntentParams{
		ListingID:   req.ListingID,
		PlanID:      req.PlanID,
		PromoCodeID: req.PromoCodeID,
	})
	if err != nil {
		// 意向创建失败即本次尝试已终结
		s.resolveAttempt(req.ListingID)
		return nil, err
	}

	rawPayload, _ := json.Marshal(session)
	record := &model.PaymentRecord{
		ListingID:      req.ListingID,
		UserID:         userID,
		PlanID:         req.PlanID,
		PromoID:        req.PromoCodeID,
		IntentID:       session.PaymentIntentID,
		SubscriptionID: session.SubscriptionID,
		AmountTotal:    totalCents,
		Status:         model.PaymentStatusPending,
		RawPayload:     rawPayload,
	}
	if err := s.payments.Create(ctx, record); err != nil {
		s.resolveAttempt(req.ListingID)
		return nil, fmt.Errorf("创建支付记录失败: %v", err)
	}

	return &dto.IntentSessionVO{
		ClientSecret:    session.ClientSecret,
		PaymentIntentID: session.PaymentIntentID,
		SubscriptionID:  session.SubscriptionID,
		DisplayTotal:    float64(totalCents) / 100,
	}, nil
}

// ConfirmPayment 结算最后一步：服务端确认
// 失败后工作流停留在支付步骤，用户可从第一步重试
func (s *PaymentService) ConfirmPayment(ctx context.Context, userID int64, req *dto.ConfirmPaymentRequest) (*dto.ConfirmedPaymentVO, error) {
	record, err := s.payments.GetByIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("支付记录不存在")
	}
	if record.UserID != userID {
		return nil, ErrNotOwner
	}
	if record.Status != model.PaymentStatusPending {
		return nil, fmt.Errorf("支付状态不允许确认")
	}

	defer s.resolveAttempt(record.ListingID)

	if err := s.gateway.ConfirmPaymentIntent(ctx, record.IntentID, record.SubscriptionID); err != nil {
		record.MarkFailed(err.Error())
		if uerr := s.payments.Update(ctx, record); uerr != nil {
			log.Printf("[Payment] 更新失败记录失败: %v", uerr)
		}
		return nil, err
	}

	record.MarkConfirmed()
	if err := s.payments.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("更新支付记录失败: %v", err)
	}

	// 支付完成后草稿不可再编辑
	if err := s.listings.UpdateFields(ctx, record.ListingID, map[string]interface{}{
		"payment_settled": true,
	}); err != nil {
		log.Printf("[Payment] 锁定刊登失败: %v", err)
	}

	// 月度订阅套餐确认后登记本地订阅
	s.registerSubscription(ctx, record)

	// 携带支付分段进入区域选择步骤
	paymentData := model.JSONMap{
		"skip_payment": false,
		"plan_id":      record.PlanID,
		"payment_id":   record.ID,
		"intent_id":    record.IntentID,
		"amount":       float64(record.AmountTotal) / 100,
	}
	if err := s.workflow.EnterRegion(ctx, record.ListingID, paymentData); err != nil {
		log.Printf("[Payment] 工作流推进失败: %v", err)
	}

	return &dto.ConfirmedPaymentVO{
		PaymentID:       record.ID,
		PaymentIntentID: record.IntentID,
		SubscriptionID:  record.SubscriptionID,
		Amount:          float64(record.AmountTotal) / 100,
		Status:          record.Status,
		SkipPayment:     record.SkipPayment,
	}, nil
}

// CancelPayment 用户关闭支付面板
// 不算错误：静默释放本次尝试，工作流停留在支付步骤，可重新进入
func (s *PaymentService) CancelPayment(ctx context.Context, userID int64, req *dto.CancelPaymentRequest) error {
	record, err := s.payments.GetByIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil // 无记录可取消，静默
	}
	if record.UserID != userID {
		return ErrNotOwner
	}
	if record.Status != model.PaymentStatusPending {
		return nil
	}

	record.MarkCancelled()
	if err := s.payments.Update(ctx, record); err != nil {
		log.Printf("[Payment] 更新取消记录失败: %v", err)
	}
	s.resolveAttempt(record.ListingID)
	return nil
}

// registerSubscription 月度订阅确认后登记本地订阅
func (s *PaymentService) registerSubscription(ctx context.Context, record *model.PaymentRecord) {
	plan, err := s.plans.GetByID(ctx, record.PlanID)
	if err != nil || plan.Type != model.PlanTypeMonthly {
		return
	}

	expires := time.Now().AddDate(0, 1, 0)
	sub := &model.UserSubscription{
		UserID:         record.UserID,
		PlanID:         plan.ID,
		SubscriptionID: record.SubscriptionID,
		Status:         model.SubscriptionStatusActive,
		ExpiresAt:      &expires,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		log.Printf("[Payment] 登记订阅失败: %v", err)
	}
}

// ==================== 完整结算 ====================

// SettleResult 一次结算尝试的终态
type SettleResult struct {
	Outcome SheetOutcome
	Payment *dto.ConfirmedPaymentVO
}

// Settle 驱动一次完整的结算尝试
// 意向创建 → 面板初始化 → 面板展示 → 服务端确认
// 取消静默返回；失败报告错误；三种终态都会释放结算互斥
func (s *PaymentService) Settle(ctx context.Context, userID int64, req *dto.CreateIntentRequest, presenter SheetPresenter) (*SettleResult, error) {
	session, err := s.CreateIntent(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	fail := func(reason string) (*SettleResult, error) {
		if record, rerr := s.payments.GetByIntentID(ctx, session.PaymentIntentID); rerr == nil {
			record.MarkFailed(reason)
			if uerr := s.payments.Update(ctx, record); uerr != nil {
				log.Printf("[Payment] 更新失败记录失败: %v", uerr)
			}
		}
		s.resolveAttempt(req.ListingID)
		return nil, fmt.Errorf("支付失败: %s", reason)
	}

	if err := presenter.Init(ctx, session.ClientSecret); err != nil {
		return fail(fmt.Sprintf("支付面板初始化失败: %v", err))
	}

	result := presenter.Present(ctx)
	switch result.Outcome {
	case SheetCompleted:
		payment, err := s.ConfirmPayment(ctx, userID, &dto.ConfirmPaymentRequest{
			PaymentIntentID: session.PaymentIntentID,
			SubscriptionID:  session.SubscriptionID,
		})
		if err != nil {
			return nil, err
		}
		return &SettleResult{Outcome: SheetCompleted, Payment: payment}, nil

	case SheetCancelled:
		if err := s.CancelPayment(ctx, userID, &dto.CancelPaymentRequest{
			PaymentIntentID: session.PaymentIntentID,
		}); err != nil {
			log.Printf("[Payment] 取消处理失败: %v", err)
		}
		return &SettleResult{Outcome: SheetCancelled}, nil

	default:
		return fail(result.Reason)
	}
}
