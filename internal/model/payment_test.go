package model

import (
	"testing"
	"time"
)

// ==================== ComputeDisplayTotal 测试 ====================

func standardPlan() *PaymentPlan {
	// 100 + 10 + 5 = 115.00
	return &PaymentPlan{
		Name:                "Standard",
		Type:                PlanTypeOneTime,
		PriceAmount:         10000,
		ListingFeeAmount:    1000,
		ProcessingFeeAmount: 500,
	}
}

func TestComputeDisplayTotal_NoPromo(t *testing.T) {
	total, err := ComputeDisplayTotal(standardPlan(), nil)
	if err != nil {
		t.Fatalf("ComputeDisplayTotal() error = %v", err)
	}
	if total != 11500 {
		t.Errorf("total = %d, want 11500", total)
	}
}

func TestComputeDisplayTotal_PercentageDiscount(t *testing.T) {
	promo := &PromoCode{
		Code:          "SAVE10",
		DiscountType:  DiscountTypePercentage,
		DiscountValue: 10,
		Active:        true,
	}

	// 115.00 - 10% = 103.50
	total, err := ComputeDisplayTotal(standardPlan(), promo)
	if err != nil {
		t.Fatalf("ComputeDisplayTotal() error = %v", err)
	}
	if total != 10350 {
		t.Errorf("total = %d, want 10350", total)
	}
}

func TestComputeDisplayTotal_FixedDiscount(t *testing.T) {
	promo := &PromoCode{
		Code:          "MINUS20",
		DiscountType:  DiscountTypeFixed,
		DiscountValue: 20,
		Active:        true,
	}

	// 115.00 - 20.00 = 95.00
	total, err := ComputeDisplayTotal(standardPlan(), promo)
	if err != nil {
		t.Fatalf("ComputeDisplayTotal() error = %v", err)
	}
	if total != 9500 {
		t.Errorf("total = %d, want 9500", total)
	}
}

// 折扣超过总价时展示 0，不出现负数
func TestComputeDisplayTotal_ClampToZero(t *testing.T) {
	plan := &PaymentPlan{PriceAmount: 3000}
	promo := &PromoCode{
		DiscountType:  DiscountTypeFixed,
		DiscountValue: 50,
		Active:        true,
	}

	total, err := ComputeDisplayTotal(plan, promo)
	if err != nil {
		t.Fatalf("ComputeDisplayTotal() error = %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestComputeDisplayTotal_SmallPercentage(t *testing.T) {
	plan := &PaymentPlan{PriceAmount: 3000}
	promo := &PromoCode{
		DiscountType:  DiscountTypePercentage,
		DiscountValue: 10,
		Active:        true,
	}

	// 30.00 - 10% = 27.00
	total, err := ComputeDisplayTotal(plan, promo)
	if err != nil {
		t.Fatalf("ComputeDisplayTotal() error = %v", err)
	}
	if total != 2700 {
		t.Errorf("total = %d, want 2700", total)
	}
}

func TestComputeDisplayTotal_InvalidDiscountType(t *testing.T) {
	promo := &PromoCode{DiscountType: "points", DiscountValue: 5}
	if _, err := ComputeDisplayTotal(standardPlan(), promo); err == nil {
		t.Error("未知折扣类型应报错")
	}
}

// ==================== PromoCode / Subscription 测试 ====================

func TestPromoCode_IsUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name  string
		promo PromoCode
		want  bool
	}{
		{"有效", PromoCode{Active: true, ExpiresAt: &future}, true},
		{"永不过期", PromoCode{Active: true}, true},
		{"已停用", PromoCode{Active: false}, false},
		{"已过期", PromoCode{Active: true, ExpiresAt: &past}, false},
	}

	for _, tc := range cases {
		if got := tc.promo.IsUsable(now); got != tc.want {
			t.Errorf("%s: IsUsable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUserSubscription_IsValid(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	sub := UserSubscription{Status: SubscriptionStatusActive, ExpiresAt: &future}
	if !sub.IsValid(now) {
		t.Error("未到期的活跃订阅应有效")
	}

	sub = UserSubscription{Status: SubscriptionStatusActive, ExpiresAt: &past}
	if sub.IsValid(now) {
		t.Error("到期订阅应无效")
	}

	sub = UserSubscription{Status: SubscriptionStatusExpired, ExpiresAt: &future}
	if sub.IsValid(now) {
		t.Error("已标记过期的订阅应无效")
	}
}
