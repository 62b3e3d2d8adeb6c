package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 测试辅助函数 ====================

type listingTestEnv struct {
	svc      *ListingService
	workflow *WorkflowService
	storage  *mockStorage
	db       *gorm.DB
}

func newListingTestEnv(t *testing.T, subs repository.SubscriptionRepository) *listingTestEnv {
	db := setupServiceTestDB(t)
	storage := &mockStorage{}

	uow := repository.NewListingUnitOfWork(db)
	upload := NewUploadService(storage, repository.NewListingImageRepository(db))
	workflow := NewWorkflowService(repository.NewWorkflowSessionRepository(db))
	subSvc := NewSubscriptionService(subs, repository.NewPaymentRecordRepository(db), workflow)
	svc := NewListingService(uow, upload, storage, subSvc, workflow)

	return &listingTestEnv{svc: svc, workflow: workflow, storage: storage, db: db}
}

func eventDraftRequest() *dto.SubmitDraftRequest {
	date := time.Now().Add(72 * time.Hour)
	return &dto.SubmitDraftRequest{
		Category:    model.CategoryEvent,
		Title:       "City Jazz Night",
		Description: "Live jazz evening",
		PriceType:   model.PriceTypePerSeat,
		Price:       25,
		EventDate:   &date,
		EventVenue:  "Downtown Hall",
		EventSeats:  120,
		PhotoURLs:   []string{"https://cdn.example.com/poster.jpg"},
		PendingImages: []dto.PendingImage{
			{Name: "stage.jpg", Data: base64.StdEncoding.EncodeToString([]byte("stage-photo"))},
		},
	}
}

// ==================== SubmitDraft 测试 ====================

func TestListingService_SubmitDraft(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})

	result, err := env.svc.SubmitDraft(context.Background(), 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}

	// 顺序：已有 URL 在前，本次上传在后
	if len(result.Listing.Photos) != 2 {
		t.Fatalf("len(Photos) = %d, want 2", len(result.Listing.Photos))
	}
	if result.Listing.Photos[0] != "https://cdn.example.com/poster.jpg" {
		t.Errorf("首图 = %s, 顺序应保持", result.Listing.Photos[0])
	}

	// 无订阅：路由到支付步骤
	if result.SkipPayment {
		t.Error("无订阅不应直通")
	}
	if result.Stage != model.StageAwaitingPayment {
		t.Errorf("Stage = %s, want awaiting_payment", result.Stage)
	}

	// 会话持有刊登分段快照
	var session model.WorkflowSession
	env.db.Where("listing_id = ?", result.Listing.ID).First(&session)
	if session.ListingData["title"] != "City Jazz Night" {
		t.Error("刊登分段快照缺失")
	}

	// 上传的图片已归属
	var img model.ListingImage
	env.db.Where("original_name = ?", "stage.jpg").First(&img)
	if img.ListingID != result.Listing.ID {
		t.Errorf("图片应归属刊登 %d, got %d", result.Listing.ID, img.ListingID)
	}
}

// 本地校验失败不发起任何上传
func TestListingService_SubmitDraft_ValidationBeforeUpload(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})

	req := eventDraftRequest()
	req.EventVenue = ""
	if _, err := env.svc.SubmitDraft(context.Background(), 1, req); err == nil {
		t.Fatal("缺少活动地点应校验失败")
	}
	if len(env.storage.uploads) != 0 {
		t.Errorf("校验失败不应发起上传, got %d 次", len(env.storage.uploads))
	}
}

func TestListingService_SubmitDraft_PhotoCap(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})

	req := eventDraftRequest()
	req.PhotoURLs = nil
	req.PendingImages = nil
	for i := 0; i < model.MaxPhotosPerListing+1; i++ {
		req.PendingImages = append(req.PendingImages, dto.PendingImage{
			Name: string(rune('a'+i)) + ".jpg",
			Data: base64.StdEncoding.EncodeToString([]byte{byte(i)}),
		})
	}

	_, err := env.svc.SubmitDraft(context.Background(), 1, req)
	if !errors.Is(err, ErrTooManyImages) {
		t.Fatalf("err = %v, want ErrTooManyImages", err)
	}
	if len(env.storage.uploads) != 0 {
		t.Error("超限不应发起上传")
	}
}

func TestListingService_SubmitDraft_NoPhotos(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})

	req := eventDraftRequest()
	req.PhotoURLs = nil
	req.PendingImages = nil

	if _, err := env.svc.SubmitDraft(context.Background(), 1, req); !errors.Is(err, ErrNoPhotos) {
		t.Fatalf("err = %v, want ErrNoPhotos", err)
	}
}

func TestListingService_SubmitDraft_FreePriceZeroed(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})

	req := eventDraftRequest()
	req.PriceType = model.PriceTypeFree
	req.Price = 99

	result, err := env.svc.SubmitDraft(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}
	if result.Listing.Price != 0 {
		t.Errorf("免费刊登价格应归零, got %v", result.Listing.Price)
	}
}

// 有效订阅直通：跳过支付直接进入区域选择
func TestListingService_SubmitDraft_SubscriberSkipsPayment(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	subs := &mockSubRepo{
		getActiveFn: func(ctx context.Context, userID int64) (*model.UserSubscription, error) {
			return &model.UserSubscription{
				UserID: userID, Status: model.SubscriptionStatusActive, ExpiresAt: &future,
			}, nil
		},
	}
	env := newListingTestEnv(t, subs)

	result, err := env.svc.SubmitDraft(context.Background(), 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}
	if !result.SkipPayment {
		t.Error("有效订阅应直通")
	}
	if result.Stage != model.StageAwaitingRegion {
		t.Errorf("Stage = %s, want awaiting_region", result.Stage)
	}
}

// ==================== UpdateDraft 测试 ====================

func TestListingService_UpdateDraft_PreservesSiblingSections(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	subs := &mockSubRepo{
		getActiveFn: func(ctx context.Context, userID int64) (*model.UserSubscription, error) {
			return &model.UserSubscription{
				UserID: userID, Status: model.SubscriptionStatusActive, ExpiresAt: &future,
			}, nil
		},
	}
	env := newListingTestEnv(t, subs)
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}

	// 回退编辑标题
	title := "Jazz Night Deluxe"
	if _, err := env.svc.UpdateDraft(ctx, 1, result.Listing.ID, &dto.UpdateDraftRequest{Title: &title}); err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}

	var session model.WorkflowSession
	env.db.Where("listing_id = ?", result.Listing.ID).First(&session)
	if session.ListingData["title"] != "Jazz Night Deluxe" {
		t.Error("刊登分段应更新")
	}
	if session.PaymentData["skip_payment"] != true {
		t.Error("支付分段应原样保留")
	}
	if session.Stage != model.StageAwaitingRegion {
		t.Errorf("回退编辑不应改变阶段, got %s", session.Stage)
	}
}

func TestListingService_UpdateDraft_RejectedAfterSettle(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}

	env.db.Model(&model.Listing{}).Where("id = ?", result.Listing.ID).
		Update("payment_settled", true)

	title := "New"
	if _, err := env.svc.UpdateDraft(ctx, 1, result.Listing.ID, &dto.UpdateDraftRequest{Title: &title}); err == nil {
		t.Fatal("支付完成后不应可编辑")
	}
}

func TestListingService_UpdateDraft_OwnershipEnforced(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}

	title := "Stolen"
	_, err = env.svc.UpdateDraft(ctx, 2, result.Listing.ID, &dto.UpdateDraftRequest{Title: &title})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

// ==================== Publish 测试 ====================

func TestListingService_Publish(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	subs := &mockSubRepo{
		getActiveFn: func(ctx context.Context, userID int64) (*model.UserSubscription, error) {
			return &model.UserSubscription{
				UserID: userID, Status: model.SubscriptionStatusActive, ExpiresAt: &future,
			}, nil
		},
	}
	env := newListingTestEnv(t, subs)
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}
	listingID := result.Listing.ID

	// 区域未确认时不允许发布
	if _, err := env.svc.Publish(ctx, 1, listingID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}

	// 确认区域后发布
	if err := env.workflow.EnterReview(ctx, listingID, model.JSONMap{"region_id": float64(3)}); err != nil {
		t.Fatalf("EnterReview() error = %v", err)
	}

	published, err := env.svc.Publish(ctx, 1, listingID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if published.Status != model.ListingStatusPublished {
		t.Errorf("Status = %s, want published", published.Status)
	}

	// 发布为终态
	if _, err := env.svc.Publish(ctx, 1, listingID); !errors.Is(err, model.ErrAlreadyPublished) {
		t.Errorf("重复发布应返回 ErrAlreadyPublished, got %v", err)
	}
	title := "Late edit"
	if _, err := env.svc.UpdateDraft(ctx, 1, listingID, &dto.UpdateDraftRequest{Title: &title}); err == nil {
		t.Error("发布后不应可编辑")
	}
}

// ==================== AbandonDraft 测试 ====================

func TestListingService_AbandonDraft(t *testing.T) {
	env := newListingTestEnv(t, &mockSubRepo{})
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}
	listingID := result.Listing.ID

	if err := env.svc.AbandonDraft(ctx, 1, listingID); err != nil {
		t.Fatalf("AbandonDraft() error = %v", err)
	}

	// 存储侧文件已回收
	if len(env.storage.deletes) != 2 {
		t.Errorf("应删除 2 个存储文件, got %d", len(env.storage.deletes))
	}

	// 数据库记录已删除
	var count int64
	env.db.Model(&model.Listing{}).Where("id = ?", listingID).Count(&count)
	if count != 0 {
		t.Error("草稿应已删除")
	}
	env.db.Model(&model.WorkflowSession{}).Where("listing_id = ?", listingID).Count(&count)
	if count != 0 {
		t.Error("工作流会话应已删除")
	}
}

// ==================== GetReview 测试 ====================

func TestWorkflowService_GetReview(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	subs := &mockSubRepo{
		getActiveFn: func(ctx context.Context, userID int64) (*model.UserSubscription, error) {
			return &model.UserSubscription{
				UserID: userID, Status: model.SubscriptionStatusActive, ExpiresAt: &future,
			}, nil
		},
	}
	env := newListingTestEnv(t, subs)
	ctx := context.Background()

	result, err := env.svc.SubmitDraft(ctx, 1, eventDraftRequest())
	if err != nil {
		t.Fatalf("SubmitDraft() error = %v", err)
	}

	// 分段不齐时不允许进入 Review
	if _, err := env.workflow.GetReview(ctx, result.Listing.ID); err == nil {
		t.Fatal("缺区域分段不应进入 Review")
	}

	if err := env.workflow.EnterReview(ctx, result.Listing.ID, model.JSONMap{"region_id": float64(3), "region_name": "North"}); err != nil {
		t.Fatalf("EnterReview() error = %v", err)
	}

	review, err := env.workflow.GetReview(ctx, result.Listing.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if review.ListingData["title"] != "City Jazz Night" {
		t.Error("Review 应携带刊登分段")
	}
	if review.PaymentData["skip_payment"] != true {
		t.Error("Review 应携带支付分段")
	}
	if review.RegionData["region_name"] != "North" {
		t.Error("Review 应携带区域分段")
	}
	if review.Stage != model.StageReadyToPublish {
		t.Errorf("Stage = %s, want ready_to_publish", review.Stage)
	}
}
