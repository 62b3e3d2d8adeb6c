package model

import (
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 状态常量 ====================

const (
	// 套餐类型
	PlanTypeMonthly = "monthly_subscription"
	PlanTypeOneTime = "one_time"

	// 折扣类型
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"

	// 支付状态
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"

	// 订阅状态
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// ==================== 数据库模型 ====================

// PaymentPlan 付费套餐（目录数据，本服务只读）
type PaymentPlan struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Name string `gorm:"size:64;not null;comment:套餐名称"`
	Type string `gorm:"size:32;not null;comment:类型"`

	PriceAmount         int64 `gorm:"comment:套餐价格(分)"`
	ListingFeeAmount    int64 `gorm:"comment:刊登费(分)"`
	ProcessingFeeAmount int64 `gorm:"comment:手续费(分)"`

	CurrencyCode string      `gorm:"size:3;default:USD"`
	Features     StringSlice `gorm:"type:json;comment:功能列表"`
	Active       bool        `gorm:"default:true;index"`
}

func (*PaymentPlan) TableName() string {
	return "payment_plans"
}

// PromoCode 优惠码，服务端校验后临时用于计算展示总价
type PromoCode struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Code          string  `gorm:"size:64;uniqueIndex;not null;comment:优惠码"`
	DiscountType  string  `gorm:"size:16;not null;comment:折扣类型"`
	DiscountValue float64 `gorm:"comment:折扣值(百分比或金额)"`

	Active    bool       `gorm:"default:true;index"`
	ExpiresAt *time.Time `gorm:"comment:过期时间"`
}

func (*PromoCode) TableName() string {
	return "promo_codes"
}

// IsUsable 优惠码是否可用
func (p *PromoCode) IsUsable(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// PaymentRecord 一次结算尝试的支付记录
// 每个草稿同一时刻至多一条 pending 记录，重试总是创建新 intent
type PaymentRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	ListingID int64 `gorm:"index;not null;comment:刊登ID"`
	UserID    int64 `gorm:"index;comment:用户ID"`
	PlanID    int64 `gorm:"index;comment:套餐ID"`
	PromoID   int64 `gorm:"comment:优惠码ID(0=无)"`

	IntentID       string `gorm:"size:128;index;comment:支付意向ID"`
	SubscriptionID string `gorm:"size:128;comment:订阅ID"`

	AmountTotal  int64  `gorm:"comment:展示总价(分，仅参考)"`
	Status       string `gorm:"size:16;index;default:pending;comment:状态"`
	SkipPayment  bool   `gorm:"default:false;comment:订阅直通免支付"`
	ErrorMessage string `gorm:"size:1024;comment:失败原因"`

	// 网关返回的原始意向数据，排查对账问题用
	RawPayload datatypes.JSON `gorm:"comment:网关原始返回"`
}

func (*PaymentRecord) TableName() string {
	return "payment_records"
}

// MarkConfirmed 标记支付确认成功
func (p *PaymentRecord) MarkConfirmed() {
	p.Status = PaymentStatusConfirmed
	p.ErrorMessage = ""
}

// MarkFailed 标记支付失败
func (p *PaymentRecord) MarkFailed(msg string) {
	p.Status = PaymentStatusFailed
	p.ErrorMessage = msg
}

// MarkCancelled 用户取消，不算错误
func (p *PaymentRecord) MarkCancelled() {
	p.Status = PaymentStatusCancelled
}

// UserSubscription 用户订阅
type UserSubscription struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	UserID         int64      `gorm:"index;not null"`
	PlanID         int64      `gorm:"index"`
	SubscriptionID string     `gorm:"size:128;comment:支付网关订阅ID"`
	Status         string     `gorm:"size:16;index;default:active"`
	ExpiresAt      *time.Time `gorm:"index;comment:到期时间"`
}

func (*UserSubscription) TableName() string {
	return "user_subscriptions"
}

// IsValid 订阅是否有效
func (s *UserSubscription) IsValid(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// ==================== 总价计算 ====================

var ErrInvalidDiscountType = errors.New("不支持的折扣类型")

// ComputeDisplayTotal 计算展示总价（分）
// total = max(0, 套餐价 + 刊登费 + 手续费 - 折扣)
// 仅用于前端展示，实际扣款金额由支付网关侧计算
func ComputeDisplayTotal(plan *PaymentPlan, promo *PromoCode) (int64, error) {
	base := plan.PriceAmount + plan.ListingFeeAmount + plan.ProcessingFeeAmount

	var discount int64
	if promo != nil {
		switch promo.DiscountType {
		case DiscountTypePercentage:
			discount = int64(math.Round(float64(base) * promo.DiscountValue / 100))
		case DiscountTypeFixed:
			discount = int64(math.Round(promo.DiscountValue * 100))
		default:
			return 0, ErrInvalidDiscountType
		}
	}

	total := base - discount
	if total < 0 {
		total = 0
	}
	return total, nil
}
