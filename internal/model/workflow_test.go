package model

import "testing"

// ==================== 阶段流转测试 ====================

func newSessionAt(stage string) *WorkflowSession {
	return &WorkflowSession{
		ListingID:   1,
		UserID:      1,
		Stage:       stage,
		ListingData: JSONMap{"title": "Jazz Night"},
	}
}

func TestWorkflowSession_AdvanceForwardOnly(t *testing.T) {
	s := newSessionAt(StageDraftPending)

	if err := s.AdvanceTo(StageAwaitingPayment); err != nil {
		t.Fatalf("AdvanceTo(payment) error = %v", err)
	}

	// 回退不允许
	if err := s.AdvanceTo(StageDraftPending); err == nil {
		t.Error("回退阶段应报错")
	}

	// 订阅直通允许跳过支付阶段
	s = newSessionAt(StageDraftPending)
	if err := s.AdvanceTo(StageAwaitingRegion); err != nil {
		t.Fatalf("直通跳到区域阶段应允许: %v", err)
	}
}

func TestWorkflowSession_PublishedIsTerminal(t *testing.T) {
	s := newSessionAt(StagePublished)

	if err := s.AdvanceTo(StageAwaitingRegion); err != ErrAlreadyPublished {
		t.Errorf("发布后推进应返回 ErrAlreadyPublished, got %v", err)
	}
	if err := s.ReplaceListingData(JSONMap{"title": "x"}); err != ErrAlreadyPublished {
		t.Errorf("发布后编辑应返回 ErrAlreadyPublished, got %v", err)
	}
}

// ==================== 分段携带测试 ====================

func TestWorkflowSession_AttachRequiresPredecessors(t *testing.T) {
	// 没有刊登分段不允许写支付分段
	s := &WorkflowSession{Stage: StageDraftPending}
	if err := s.AttachPaymentData(JSONMap{"plan_id": 1}); err != ErrCarrierDropped {
		t.Errorf("缺刊登分段应返回 ErrCarrierDropped, got %v", err)
	}

	// 没有支付分段不允许写区域分段
	s = newSessionAt(StageAwaitingRegion)
	if err := s.AttachRegionData(JSONMap{"region_id": 2}); err != ErrCarrierDropped {
		t.Errorf("缺支付分段应返回 ErrCarrierDropped, got %v", err)
	}
}

// 回退编辑只替换自己的分段，兄弟分段原样保留
func TestWorkflowSession_ReplacePreservesSiblings(t *testing.T) {
	s := newSessionAt(StageReadyToPublish)
	s.PaymentData = JSONMap{"plan_id": float64(3), "amount": 103.5}
	s.RegionData = JSONMap{"region_id": float64(7)}

	if err := s.ReplaceListingData(JSONMap{"title": "Updated"}); err != nil {
		t.Fatalf("ReplaceListingData() error = %v", err)
	}
	if s.PaymentData["plan_id"] != float64(3) {
		t.Error("编辑刊登分段不应影响支付分段")
	}
	if s.RegionData["region_id"] != float64(7) {
		t.Error("编辑刊登分段不应影响区域分段")
	}

	if err := s.ReplaceRegionData(JSONMap{"region_id": float64(9)}); err != nil {
		t.Fatalf("ReplaceRegionData() error = %v", err)
	}
	if s.PaymentData["amount"] != 103.5 {
		t.Error("重选区域不应影响支付分段")
	}
	if s.ListingData["title"] != "Updated" {
		t.Error("重选区域不应影响刊登分段")
	}
}

func TestWorkflowSession_ReadyForReview(t *testing.T) {
	s := newSessionAt(StageReadyToPublish)
	if err := s.ReadyForReview(); err == nil {
		t.Error("分段不齐时不应允许进入 Review")
	}

	s.PaymentData = JSONMap{"skip_payment": true}
	s.RegionData = JSONMap{"region_id": float64(1)}
	if err := s.ReadyForReview(); err != nil {
		t.Errorf("三分段齐备应允许进入 Review: %v", err)
	}
}
