package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// PaymentPlanRepository 套餐目录仓储接口（只读目录 + 种子写入）
type PaymentPlanRepository interface {
	GetByID(ctx context.Context, id int64) (*model.PaymentPlan, error)
	ListActive(ctx context.Context) ([]model.PaymentPlan, error)
	Create(ctx context.Context, plan *model.PaymentPlan) error
}

// PromoCodeRepository 优惠码仓储接口
type PromoCodeRepository interface {
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	GetByID(ctx context.Context, id int64) (*model.PromoCode, error)
	Create(ctx context.Context, promo *model.PromoCode) error
}

// SubscriptionRepository 订阅仓储接口
type SubscriptionRepository interface {
	GetActiveByUserID(ctx context.Context, userID int64) (*model.UserSubscription, error)
	Create(ctx context.Context, sub *model.UserSubscription) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// PaymentRecordRepository 支付记录仓储接口
type PaymentRecordRepository interface {
	Create(ctx context.Context, record *model.PaymentRecord) error
	GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error)
	GetByIntentID(ctx context.Context, intentID string) (*model.PaymentRecord, error)
	Update(ctx context.Context, record *model.PaymentRecord) error
	GetPendingByListingID(ctx context.Context, listingID int64) (*model.PaymentRecord, error)
}

// ==================== PaymentPlan 仓储实现 ====================

type paymentPlanRepo struct {
	db *gorm.DB
}

// NewPaymentPlanRepository 创建套餐仓储
func NewPaymentPlanRepository(db *gorm.DB) PaymentPlanRepository {
	return &paymentPlanRepo{db: db}
}

func (r *paymentPlanRepo) GetByID(ctx context.Context, id int64) (*model.PaymentPlan, error) {
	var plan model.PaymentPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *paymentPlanRepo) ListActive(ctx context.Context) ([]model.PaymentPlan, error) {
	var plans []model.PaymentPlan
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("price_amount ASC").Find(&plans).Error
	return plans, err
}

func (r *paymentPlanRepo) Create(ctx context.Context, plan *model.PaymentPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// ==================== PromoCode 仓储实现 ====================

type promoCodeRepo struct {
	db *gorm.DB
}

// NewPromoCodeRepository 创建优惠码仓储
func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &promoCodeRepo{db: db}
}

func (r *promoCodeRepo) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var promo model.PromoCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promoCodeRepo) GetByID(ctx context.Context, id int64) (*model.PromoCode, error) {
	var promo model.PromoCode
	if err := r.db.WithContext(ctx).First(&promo, id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promoCodeRepo) Create(ctx context.Context, promo *model.PromoCode) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

// ==================== Subscription 仓储实现 ====================

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) GetActiveByUserID(ctx context.Context, userID int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.UserSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// ExpireLapsed 将到期订阅置为过期
func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.UserSubscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.SubscriptionStatusActive, now).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

// ==================== PaymentRecord 仓储实现 ====================

type paymentRecordRepo struct {
	db *gorm.DB
}

// NewPaymentRecordRepository 创建支付记录仓储
func NewPaymentRecordRepository(db *gorm.DB) PaymentRecordRepository {
	return &paymentRecordRepo{db: db}
}

func (r *paymentRecordRepo) Create(ctx context.Context, record *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *paymentRecordRepo) GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRecordRepo) GetByIntentID(ctx context.Context, intentID string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRecordRepo) Update(ctx context.Context, record *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *paymentRecordRepo) GetPendingByListingID(ctx context.Context, listingID int64) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, model.PaymentStatusPending).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
