package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 测试辅助函数 ====================

type regionTestEnv struct {
	svc       *RegionService
	db        *gorm.DB
	listingID int64
	north     *model.Region
	south     *model.Region
}

func newRegionTestEnv(t *testing.T) *regionTestEnv {
	db := setupServiceTestDB(t)

	north := &model.Region{Name: "North District", Code: "N1", Active: true}
	south := &model.Region{Name: "South District", Code: "S1", Active: true}
	db.Create(north)
	db.Create(south)

	listing := &model.Listing{
		UserID:      1,
		Category:    model.CategoryProduct,
		Title:       "Chair",
		Description: "Wooden chair",
		PriceType:   model.PriceTypePaid,
		PriceAmount: 4500,
		Photos:      model.StringSlice{"https://cdn.example.com/chair.jpg"},
		Status:      model.ListingStatusDraft,
	}
	db.Create(listing)

	// 已完成支付步骤
	db.Create(&model.WorkflowSession{
		ListingID:   listing.ID,
		UserID:      1,
		Stage:       model.StageAwaitingRegion,
		ListingData: model.JSONMap{"title": "Chair"},
		PaymentData: model.JSONMap{"skip_payment": false, "amount": 103.5},
	})

	workflow := NewWorkflowService(repository.NewWorkflowSessionRepository(db))
	svc := NewRegionService(repository.NewRegionRepository(db), repository.NewListingRepository(db), workflow)

	return &regionTestEnv{svc: svc, db: db, listingID: listing.ID, north: north, south: south}
}

func (e *regionTestEnv) session(t *testing.T) *model.WorkflowSession {
	var session model.WorkflowSession
	if err := e.db.Where("listing_id = ?", e.listingID).First(&session).Error; err != nil {
		t.Fatalf("查询会话失败: %v", err)
	}
	return &session
}

// ==================== ConfirmRegion 测试 ====================

func TestRegionService_ConfirmRegion(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	region, err := env.svc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: env.listingID,
		RegionID:  env.north.ID,
	})
	if err != nil {
		t.Fatalf("ConfirmRegion() error = %v", err)
	}
	if region.Name != "North District" {
		t.Errorf("region.Name = %s", region.Name)
	}

	session := env.session(t)
	if session.Stage != model.StageReadyToPublish {
		t.Errorf("stage = %s, want ready_to_publish", session.Stage)
	}
	if session.RegionData["region_code"] != "N1" {
		t.Error("区域分段应写入")
	}
	// 前序分段原样携带
	if session.PaymentData["amount"] != 103.5 {
		t.Error("支付分段应原样保留")
	}

	// 刊登记录了发布区域
	var listing model.Listing
	env.db.First(&listing, env.listingID)
	if listing.RegionID != env.north.ID {
		t.Errorf("listing.RegionID = %d, want %d", listing.RegionID, env.north.ID)
	}

	// 记入最近使用
	recent, err := env.svc.ListRecent(ctx, 1, 5)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].ID != env.north.ID {
		t.Errorf("最近区域应包含 North, got %+v", recent)
	}
}

// 回退重选区域只替换区域分段
func TestRegionService_ReselectPreservesPayment(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: env.listingID, RegionID: env.north.ID,
	}); err != nil {
		t.Fatalf("首次确认失败: %v", err)
	}

	if _, err := env.svc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: env.listingID, RegionID: env.south.ID,
	}); err != nil {
		t.Fatalf("重选失败: %v", err)
	}

	session := env.session(t)
	if session.RegionData["region_code"] != "S1" {
		t.Error("区域分段应替换为 South")
	}
	if session.PaymentData["amount"] != 103.5 {
		t.Error("重选不应影响支付分段")
	}
	if session.Stage != model.StageReadyToPublish {
		t.Errorf("重选后 stage = %s, 应保持 ready_to_publish", session.Stage)
	}
}

// 区域确认只允许刊登归属人发起
func TestRegionService_ConfirmRegion_OwnershipEnforced(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.ConfirmRegion(ctx, 2, &dto.ConfirmRegionRequest{
		ListingID: env.listingID, RegionID: env.north.ID,
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}

	// 他人操作不推进工作流
	if stage := env.session(t).Stage; stage != model.StageAwaitingRegion {
		t.Errorf("stage = %s, 应保持 awaiting_region", stage)
	}
}

// 支付未完成时不允许确认区域
func TestRegionService_ConfirmRegion_StageMismatch(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	env.db.Model(&model.WorkflowSession{}).
		Where("listing_id = ?", env.listingID).
		Updates(map[string]interface{}{"stage": model.StageAwaitingPayment})

	_, err := env.svc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: env.listingID, RegionID: env.north.ID,
	})
	if !errors.Is(err, model.ErrStageMismatch) {
		t.Fatalf("err = %v, want ErrStageMismatch", err)
	}
}

func TestRegionService_ConfirmRegion_InactiveRegion(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	env.db.Model(env.north).Update("active", false)

	_, err := env.svc.ConfirmRegion(ctx, 1, &dto.ConfirmRegionRequest{
		ListingID: env.listingID, RegionID: env.north.ID,
	})
	if !errors.Is(err, ErrRegionNotFound) {
		t.Fatalf("err = %v, want ErrRegionNotFound", err)
	}
}

// ==================== 最近使用测试 ====================

func TestRegionService_RecentOrdering(t *testing.T) {
	env := newRegionTestEnv(t)
	ctx := context.Background()

	if err := env.svc.RecordRecent(ctx, 1, env.north.ID); err != nil {
		t.Fatalf("RecordRecent() error = %v", err)
	}
	if err := env.svc.RecordRecent(ctx, 1, env.south.ID); err != nil {
		t.Fatalf("RecordRecent() error = %v", err)
	}

	recent, err := env.svc.ListRecent(ctx, 1, 5)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].ID != env.south.ID {
		t.Errorf("最近使用应排在最前, got %+v", recent[0])
	}
}
