package dto

// ==================== 请求 ====================

// CreateIntentRequest 创建支付意向请求
type CreateIntentRequest struct {
	ListingID   int64 `json:"listing_id" binding:"required"`
	PlanID      int64 `json:"plan_id" binding:"required"`
	PromoCodeID int64 `json:"promo_code_id"`
}

// ConfirmPaymentRequest 确认支付请求
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	SubscriptionID  string `json:"subscription_id"`
}

// CancelPaymentRequest 取消支付请求（用户关闭支付面板）
type CancelPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// CreatePlanRequest 新增套餐（管理员），金额单位为元
type CreatePlanRequest struct {
	Name          string   `json:"name" binding:"required"`
	Type          string   `json:"type" binding:"required,oneof=monthly_subscription one_time"`
	Price         float64  `json:"price"`
	ListingFee    float64  `json:"listing_fee"`
	ProcessingFee float64  `json:"processing_fee"`
	Currency      string   `json:"currency"`
	Features      []string `json:"features"`
}

// ==================== 响应 ====================

// PaymentPlanVO 套餐视图
type PaymentPlanVO struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Price         float64  `json:"price"`
	ListingFee    float64  `json:"listing_fee"`
	ProcessingFee float64  `json:"processing_fee"`
	Currency      string   `json:"currency"`
	Features      []string `json:"features"`
}

// PromoCodeVO 优惠码校验结果
type PromoCodeVO struct {
	ID            int64   `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

// IntentSessionVO 支付意向会话（瞬态，确认成功或放弃后废弃）
type IntentSessionVO struct {
	ClientSecret    string  `json:"client_secret"`
	PaymentIntentID string  `json:"payment_intent_id"`
	SubscriptionID  string  `json:"subscription_id"`
	DisplayTotal    float64 `json:"display_total"`
}

// ConfirmedPaymentVO 确认完成的支付
type ConfirmedPaymentVO struct {
	PaymentID       int64   `json:"payment_id"`
	PaymentIntentID string  `json:"payment_intent_id"`
	SubscriptionID  string  `json:"subscription_id,omitempty"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	SkipPayment     bool    `json:"skip_payment"`
}

// SubscriptionValidityVO 订阅有效性
type SubscriptionValidityVO struct {
	Valid     bool   `json:"valid"`
	PlanID    int64  `json:"plan_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
