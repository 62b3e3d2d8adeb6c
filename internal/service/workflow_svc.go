package service

import (
	"context"
	"fmt"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 服务实现 ====================

// WorkflowService 发布工作流状态载体
// 状态显式建模为带阶段标签的会话，各步骤读写自己的分段，
// 不依赖页面导航参数传递
type WorkflowService struct {
	sessions repository.WorkflowSessionRepository
}

// NewWorkflowService 创建工作流服务
func NewWorkflowService(sessions repository.WorkflowSessionRepository) *WorkflowService {
	return &WorkflowService{sessions: sessions}
}

// GetByListingID 获取刊登对应的工作流会话
func (s *WorkflowService) GetByListingID(ctx context.Context, listingID int64) (*model.WorkflowSession, error) {
	session, err := s.sessions.GetByListingID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("工作流会话不存在")
	}
	return session, nil
}

// EnterPayment 路由判定需要付费：进入支付步骤
func (s *WorkflowService) EnterPayment(ctx context.Context, listingID int64) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.AdvanceTo(model.StageAwaitingPayment); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}

// EnterRegion 支付完成（或免付费短路）：写入支付分段并进入区域选择步骤
func (s *WorkflowService) EnterRegion(ctx context.Context, listingID int64, paymentData model.JSONMap) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.AttachPaymentData(paymentData); err != nil {
		return err
	}
	if err := session.AdvanceTo(model.StageAwaitingRegion); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}

// EnterReview 区域确认：写入区域分段并进入待发布
func (s *WorkflowService) EnterReview(ctx context.Context, listingID int64, regionData model.JSONMap) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.AttachRegionData(regionData); err != nil {
		return err
	}
	if err := session.AdvanceTo(model.StageReadyToPublish); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}

// ReplaceListingSection 回退编辑 Details：只替换刊登分段，兄弟分段原样保留
func (s *WorkflowService) ReplaceListingSection(ctx context.Context, listingID int64, data model.JSONMap) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.ReplaceListingData(data); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}

// ReplaceRegionSection 回退重选区域：只替换区域分段
func (s *WorkflowService) ReplaceRegionSection(ctx context.Context, listingID int64, data model.JSONMap) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.ReplaceRegionData(data); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}

// GetReview Review 页聚合：三个分段齐备才可进入
func (s *WorkflowService) GetReview(ctx context.Context, listingID int64) (*dto.ReviewVO, error) {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := session.ReadyForReview(); err != nil {
		return nil, err
	}

	return &dto.ReviewVO{
		SessionID:   session.ID,
		ListingID:   session.ListingID,
		Stage:       session.Stage,
		ListingData: map[string]interface{}(session.ListingData),
		PaymentData: map[string]interface{}(session.PaymentData),
		RegionData:  map[string]interface{}(session.RegionData),
	}, nil
}

// MarkPublished 发布完成：工作流进入终态
func (s *WorkflowService) MarkPublished(ctx context.Context, listingID int64) error {
	session, err := s.GetByListingID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := session.AdvanceTo(model.StagePublished); err != nil {
		return err
	}
	return s.sessions.Update(ctx, session)
}
