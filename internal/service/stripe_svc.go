package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 接口定义 ====================

// PaymentGateway 支付网关能力
// 每次结算尝试创建全新 intent，intent 不跨重试复用
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req *CreateIntentParams) (*IntentSession, error)
	ConfirmPaymentIntent(ctx context.Context, intentID, subscriptionID string) error
}

// CreateIntentParams 创建支付意向参数
type CreateIntentParams struct {
	ListingID   int64  `json:"listing_id"`
	PlanID      int64  `json:"plan_id"`
	PromoCodeID int64  `json:"promo_code_id,omitempty"`
	Customer    string `json:"customer,omitempty"`
}

// IntentSession 支付意向会话（瞬态）
type IntentSession struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	SubscriptionID  string `json:"subscription_id"`
}

// ==================== 配置 ====================

// StripeGatewayConfig 支付网关配置
type StripeGatewayConfig struct {
	BaseURL   string // 网关服务地址
	SecretKey string
	Timeout   time.Duration
}

// ==================== 客户端实现 ====================

// StripeGateway Stripe 网关客户端
type StripeGateway struct {
	config StripeGatewayConfig
	client *resty.Client
}

// NewStripeGateway 创建网关客户端
func NewStripeGateway(cfg StripeGatewayConfig) *StripeGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.SecretKey).
		SetHeader("Content-Type", "application/json")

	return &StripeGateway{
		config: cfg,
		client: client,
	}
}

// gatewayResponse 网关统一响应包
type gatewayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreatePaymentIntent 创建支付意向
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req *CreateIntentParams) (*IntentSession, error) {
	var result struct {
		gatewayResponse
		Data IntentSession `json:"data"`
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/stripe/create-payment-intent")
	if err != nil {
		return nil, fmt.Errorf("创建支付意向失败: %v", err)
	}
	if resp.IsError() || !result.Success {
		return nil, fmt.Errorf("创建支付意向失败: %s", gatewayErrMsg(resp, result.Message))
	}
	if result.Data.PaymentIntentID == "" || result.Data.ClientSecret == "" {
		return nil, fmt.Errorf("创建支付意向失败: 网关返回不完整")
	}

	return &result.Data, nil
}

// ConfirmPaymentIntent 服务端确认支付
func (g *StripeGateway) ConfirmPaymentIntent(ctx context.Context, intentID, subscriptionID string) error {
	var result gatewayResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"payment_intent_id": intentID,
			"subscription_id":   subscriptionID,
		}).
		SetResult(&result).
		Post("/stripe/confirm-payment")
	if err != nil {
		return fmt.Errorf("确认支付失败: %v", err)
	}
	if resp.IsError() || !result.Success {
		return fmt.Errorf("确认支付失败: %s", gatewayErrMsg(resp, result.Message))
	}

	return nil
}

func gatewayErrMsg(resp *resty.Response, msg string) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode())
}
