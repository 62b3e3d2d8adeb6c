package service

import (
	"context"
	"testing"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// 付费发布全链路：Details → Payment → Region → Review → Publish
// 无订阅用户提交草稿后走完整支付（20 + 5 + 2 = 27，无优惠码）直至发布
func TestPublishFlow_PaidEndToEnd(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()

	storage := &mockStorage{}
	gateway := &mockGateway{}

	uow := repository.NewListingUnitOfWork(db)
	upload := NewUploadService(storage, repository.NewListingImageRepository(db))
	workflow := NewWorkflowService(repository.NewWorkflowSessionRepository(db))
	subSvc := NewSubscriptionService(&mockSubRepo{}, repository.NewPaymentRecordRepository(db), workflow)
	listingSvc := NewListingService(uow, upload, storage, subSvc, workflow)
	paymentSvc := NewPaymentService(
		repository.NewPaymentPlanRepository(db),
		repository.NewPromoCodeRepository(db),
		repository.NewPaymentRecordRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewListingRepository(db),
		workflow,
		gateway,
	)
	regionSvc := NewRegionService(repository.NewRegionRepository(db), repository.NewListingRepository(db), workflow)

	plan := &model.PaymentPlan{
		Name:                "Basic",
		Type:                model.PlanTypeOneTime,
		PriceAmount:         2000,
		ListingFeeAmount:    500,
		ProcessingFeeAmount: 200,
		Active:              true,
	}
	db.Create(plan)
	region := &model.Region{Name: "North District", Code: "N1", Active: true}
	db.Create(region)

	// Details：无订阅，路由到支付步骤
	draft, err := listingSvc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}
	if draft.Stage != model.StageAwaitingPayment {
		t.Fatalf("Stage = %s, want awaiting_payment", draft.Stage)
	}
	listingID := draft.Listing.ID

	// Payment：面板完成，总价 27
	settle, err := paymentSvc.Settle(ctx, 1,
		&dto.CreateIntentRequest{ListingID: listingID, PlanID: plan.ID},
		&mockPresenter{result: SheetResult{Outcome: SheetCompleted}})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if settle.Payment.Amount != 27 {
		t.Errorf("Amount = %v, want 27", settle.Payment.Amount)
	}
	if settle.Payment.SkipPayment {
		t.Error("实付结算不应标记直通")
	}

	// Region：确认发布区域
	if _, err := regionSvc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: listingID, RegionID: region.ID,
	}); err != nil {
		t.Fatalf("ConfirmRegion() error = %v", err)
	}

	// Review：三个分段齐备且前序分段原样携带
	review, err := workflow.GetReview(ctx, listingID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if review.ListingData["title"] != "City Jazz Night" {
		t.Error("Review 应携带刊登分段")
	}
	if review.PaymentData["skip_payment"] != false || review.PaymentData["amount"] != 27.0 {
		t.Errorf("支付分段不正确: %+v", review.PaymentData)
	}
	if review.RegionData["region_code"] != "N1" {
		t.Errorf("区域分段不正确: %+v", review.RegionData)
	}

	// Publish：终态
	published, err := listingSvc.Publish(ctx, 1, listingID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if published.Status != model.ListingStatusPublished {
		t.Errorf("Status = %s, want published", published.Status)
	}

	var session model.WorkflowSession
	db.Where("listing_id = ?", listingID).First(&session)
	if session.Stage != model.StagePublished {
		t.Errorf("stage = %s, want published", session.Stage)
	}
}
