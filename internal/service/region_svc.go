package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

var ErrRegionNotFound = errors.New("区域不存在或已停用")

// RegionService 发布区域服务
// Select Region 步骤：选定区域写入工作流区域分段并推进到待发布
type RegionService struct {
	regions  repository.RegionRepository
	listings repository.ListingRepository
	workflow *WorkflowService
}

// NewRegionService 创建区域服务
func NewRegionService(
	regions repository.RegionRepository,
	listings repository.ListingRepository,
	workflow *WorkflowService,
) *RegionService {
	return &RegionService{
		regions:  regions,
		listings: listings,
		workflow: workflow,
	}
}

// ListRegions 可选区域目录
func (s *RegionService) ListRegions(ctx context.Context) ([]dto.RegionVO, error) {
	regions, err := s.regions.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取区域列表失败: %v", err)
	}
	return toRegionVOs(regions), nil
}

// ListRecent 用户最近使用的区域，按最近使用排序
func (s *RegionService) ListRecent(ctx context.Context, userID int64, limit int) ([]dto.RegionVO, error) {
	regions, err := s.regions.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("获取最近区域失败: %v", err)
	}
	return toRegionVOs(regions), nil
}

// ConfirmRegion 确认发布区域
// 首次确认推进到待发布；回退重选只替换区域分段，支付分段原样保留
func (s *RegionService) ConfirmRegion(ctx context.Context, userID int64, req *dto.ConfirmRegionRequest) (*dto.RegionVO, error) {
	region, err := s.regions.GetByID(ctx, req.RegionID)
	if err != nil || !region.Active {
		return nil, ErrRegionNotFound
	}

	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, ErrListingNotFound
	}
	if listing.UserID != userID {
		return nil, ErrNotOwner
	}

	session, err := s.workflow.GetByListingID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	regionData := model.JSONMap{
		"region_id":   region.ID,
		"region_name": region.Name,
		"region_code": region.Code,
	}

	switch session.Stage {
	case model.StageAwaitingRegion:
		if err := s.workflow.EnterReview(ctx, req.ListingID, regionData); err != nil {
			return nil, err
		}
	case model.StageReadyToPublish:
		if err := s.workflow.ReplaceRegionSection(ctx, req.ListingID, regionData); err != nil {
			return nil, err
		}
	default:
		return nil, model.ErrStageMismatch
	}

	if err := s.listings.UpdateFields(ctx, req.ListingID, map[string]interface{}{
		"region_id": region.ID,
	}); err != nil {
		log.Printf("[Region] 更新刊登区域失败: %v", err)
	}

	if err := s.regions.RecordRecent(ctx, userID, region.ID); err != nil {
		log.Printf("[Region] 记录最近区域失败: %v", err)
	}

	vo := toRegionVO(region)
	return &vo, nil
}

// CreateRegion 新增区域，管理员维护目录
func (s *RegionService) CreateRegion(ctx context.Context, req *dto.CreateRegionRequest) (*dto.RegionVO, error) {
	region := &model.Region{
		Name:     req.Name,
		Code:     req.Code,
		ParentID: req.ParentID,
		Active:   true,
	}
	if err := s.regions.Create(ctx, region); err != nil {
		return nil, fmt.Errorf("创建区域失败: %v", err)
	}

	vo := toRegionVO(region)
	return &vo, nil
}

// RecordRecent 单独记录最近使用区域
func (s *RegionService) RecordRecent(ctx context.Context, userID, regionID int64) error {
	if _, err := s.regions.GetByID(ctx, regionID); err != nil {
		return ErrRegionNotFound
	}
	return s.regions.RecordRecent(ctx, userID, regionID)
}

func toRegionVO(r *model.Region) dto.RegionVO {
	return dto.RegionVO{
		ID:       r.ID,
		Name:     r.Name,
		Code:     r.Code,
		ParentID: r.ParentID,
	}
}

func toRegionVOs(regions []model.Region) []dto.RegionVO {
	result := make([]dto.RegionVO, len(regions))
	for i := range regions {
		result[i] = toRegionVO(&regions[i])
	}
	return result
}
