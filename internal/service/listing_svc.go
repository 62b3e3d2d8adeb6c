package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 错误定义 ====================

var (
	ErrListingNotFound = errors.New("刊登不存在")
	ErrNotOwner        = errors.New("无权操作该刊登")
	ErrNoPhotos        = errors.New("至少需要一张图片")
	ErrNotReady        = errors.New("尚未完成发布前的所有步骤")
)

// ==================== 服务实现 ====================

// ListingService 刊登草稿服务
// 驱动 Details 步骤：本地校验 → 图片上传 → 草稿落库 → 支付路由判定
type ListingService struct {
	uow      *repository.ListingUnitOfWork
	upload   *UploadService
	storage  StorageProvider
	subs     *SubscriptionService
	workflow *WorkflowService
}

// NewListingService 创建刊登服务
func NewListingService(
	uow *repository.ListingUnitOfWork,
	upload *UploadService,
	storage StorageProvider,
	subs *SubscriptionService,
	workflow *WorkflowService,
) *ListingService {
	return &ListingService{
		uow:      uow,
		upload:   upload,
		storage:  storage,
		subs:     subs,
		workflow: workflow,
	}
}

// SubmitDraft 提交 Details 步骤
// 本地校验先于任何上传；上传整批成功后草稿与工作流会话在同一事务内落库；
// 落库成功后立即完成一次支付路由判定
func (s *ListingService) SubmitDraft(ctx context.Context, userID int64, req *dto.SubmitDraftRequest) (*dto.SubmitDraftResult, error) {
	listing := buildListing(userID, req)
	listing.NormalizePrice()
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	totalPhotos := len(req.PhotoURLs) + len(req.PendingImages)
	if totalPhotos == 0 {
		return nil, ErrNoPhotos
	}
	if totalPhotos > model.MaxPhotosPerListing {
		return nil, ErrTooManyImages
	}

	// 校验通过后才发起上传
	files, err := decodePendingImages(req.PendingImages)
	if err != nil {
		return nil, err
	}
	uploaded, err := s.upload.UploadImages(ctx, userID, files, "listings", len(req.PhotoURLs))
	if err != nil {
		return nil, err
	}

	// 选择顺序：先已有 URL，后本次上传，首图为主图
	photos := make([]string, 0, totalPhotos)
	photos = append(photos, req.PhotoURLs...)
	for _, img := range uploaded {
		photos = append(photos, img.URL)
	}
	listing.Photos = photos
	listing.Status = model.ListingStatusDraft

	var session *model.WorkflowSession
	err = s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if err := tx.Listings.Create(ctx, listing); err != nil {
			return fmt.Errorf("创建草稿失败: %v", err)
		}
		if err := tx.Images.AttachToListing(ctx, photos, listing.ID); err != nil {
			return fmt.Errorf("归属图片失败: %v", err)
		}

		session = &model.WorkflowSession{
			ListingID:   listing.ID,
			UserID:      userID,
			Stage:       model.StageDraftPending,
			ListingData: listingSnapshot(listing),
		}
		return tx.Sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	// 路由判定失败不回滚草稿：草稿已存在，用户可从支付步骤继续
	skip, rerr := s.subs.RouteAfterDraft(ctx, userID, listing.ID)
	if rerr != nil {
		log.Printf("[Listing] 支付路由判定失败: %v", rerr)
	}

	fresh, err := s.workflow.GetByListingID(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	return &dto.SubmitDraftResult{
		Listing:     toListingVO(listing),
		SessionID:   fresh.ID,
		Stage:       fresh.Stage,
		SkipPayment: skip,
	}, nil
}

// UpdateDraft 回退编辑 Details
// 仅草稿且未完成支付时可编辑；保存后只替换工作流的刊登分段，
// 已有的支付/区域分段原样保留
func (s *ListingService) UpdateDraft(ctx context.Context, userID, listingID int64, req *dto.UpdateDraftRequest) (*dto.ListingVO, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if err := listing.CanEdit(); err != nil {
		return nil, err
	}

	applyDraftUpdate(listing, req)
	listing.NormalizePrice()
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	if len(listing.Photos) == 0 {
		return nil, ErrNoPhotos
	}
	if len(listing.Photos) > model.MaxPhotosPerListing {
		return nil, ErrTooManyImages
	}

	if err := s.uow.Listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("保存草稿失败: %v", err)
	}

	if err := s.workflow.ReplaceListingSection(ctx, listingID, listingSnapshot(listing)); err != nil {
		log.Printf("[Listing] 更新刊登分段失败: %v", err)
	}

	return toListingVO(listing), nil
}

// Publish 终点操作：三个分段齐备且阶段为待发布时才允许
// 发布为终态，不可回退
func (s *ListingService) Publish(ctx context.Context, userID, listingID int64) (*dto.ListingVO, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == model.ListingStatusPublished {
		return nil, model.ErrAlreadyPublished
	}

	session, err := s.workflow.GetByListingID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if session.Stage != model.StageReadyToPublish {
		return nil, ErrNotReady
	}
	if err := session.ReadyForReview(); err != nil {
		return nil, err
	}

	listing.MarkPublished()
	if err := s.uow.Listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("发布失败: %v", err)
	}
	if err := s.workflow.MarkPublished(ctx, listingID); err != nil {
		log.Printf("[Listing] 工作流终态更新失败: %v", err)
	}

	return toListingVO(listing), nil
}

// AbandonDraft 放弃草稿：删除草稿、图片与工作流会话
func (s *ListingService) AbandonDraft(ctx context.Context, userID, listingID int64) error {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if listing.Status != model.ListingStatusDraft {
		return errors.New("只能删除草稿状态的刊登")
	}

	// 存储侧尽力删除，失败由清理任务兜底
	for _, url := range listing.Photos {
		if derr := s.storage.Delete(ctx, url); derr != nil {
			log.Printf("[Listing] 删除存储文件失败: %s: %v", url, derr)
		}
	}

	return s.uow.Transaction(ctx, func(tx *repository.ListingUnitOfWork) error {
		if err := tx.Images.DeleteByListingID(ctx, listingID); err != nil {
			return err
		}
		if err := tx.Sessions.DeleteByListingID(ctx, listingID); err != nil {
			return err
		}
		return tx.Listings.Delete(ctx, listingID)
	})
}

// GetDetail 获取刊登详情
func (s *ListingService) GetDetail(ctx context.Context, listingID int64) (*dto.ListingVO, error) {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, ErrListingNotFound
	}
	return toListingVO(listing), nil
}

// List 刊登列表
func (s *ListingService) List(ctx context.Context, req *dto.ListListingsRequest) ([]dto.ListingVO, int64, error) {
	listings, total, err := s.uow.Listings.List(ctx, repository.ListingFilter{
		UserID:   req.UserID,
		Category: req.Category,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("查询刊登列表失败: %v", err)
	}

	result := make([]dto.ListingVO, len(listings))
	for i := range listings {
		result[i] = *toListingVO(&listings[i])
	}
	return result, total, nil
}

// getOwned 获取刊登并校验归属
func (s *ListingService) getOwned(ctx context.Context, userID, listingID int64) (*model.Listing, error) {
	listing, err := s.uow.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, ErrListingNotFound
	}
	if listing.UserID != userID {
		return nil, ErrNotOwner
	}
	return listing, nil
}

// ==================== 构造与转换 ====================

func buildListing(userID int64, req *dto.SubmitDraftRequest) *model.Listing {
	listing := &model.Listing{
		UserID:       userID,
		Category:     req.Category,
		Title:        req.Title,
		Description:  req.Description,
		PriceType:    req.PriceType,
		CurrencyCode: req.Currency,
		PropertyType: req.PropertyType,
		AreaSqm:      req.AreaSqm,
		Rooms:        req.Rooms,
		Address:      req.Address,
		EventDate:    req.EventDate,
		EventVenue:   req.EventVenue,
		EventSeats:   req.EventSeats,
		ServiceType:  req.ServiceType,
		ServiceArea:  req.ServiceArea,
	}
	if listing.PriceType == "" {
		listing.PriceType = model.PriceTypePaid
	}
	if listing.CurrencyCode == "" {
		listing.CurrencyCode = "USD"
	}
	listing.SetPrice(req.Price)
	return listing
}

func applyDraftUpdate(listing *model.Listing, req *dto.UpdateDraftRequest) {
	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.PriceType != nil {
		listing.PriceType = *req.PriceType
	}
	if req.Price != nil {
		listing.SetPrice(*req.Price)
	}
	if req.PropertyType != nil {
		listing.PropertyType = *req.PropertyType
	}
	if req.AreaSqm != nil {
		listing.AreaSqm = *req.AreaSqm
	}
	if req.Rooms != nil {
		listing.Rooms = *req.Rooms
	}
	if req.Address != nil {
		listing.Address = *req.Address
	}
	if req.EventDate != nil {
		listing.EventDate = req.EventDate
	}
	if req.EventVenue != nil {
		listing.EventVenue = *req.EventVenue
	}
	if req.EventSeats != nil {
		listing.EventSeats = *req.EventSeats
	}
	if req.ServiceType != nil {
		listing.ServiceType = *req.ServiceType
	}
	if req.ServiceArea != nil {
		listing.ServiceArea = *req.ServiceArea
	}
	if req.PhotoURLs != nil {
		listing.Photos = req.PhotoURLs
	}
}

// listingSnapshot 刊登分段快照，Review 页直接展示
func listingSnapshot(l *model.Listing) model.JSONMap {
	snap := model.JSONMap{
		"listing_id":  l.ID,
		"category":    l.Category,
		"title":       l.Title,
		"description": l.Description,
		"price_type":  l.PriceType,
		"price":       l.GetPrice(),
		"currency":    l.CurrencyCode,
		"photos":      []string(l.Photos),
	}

	switch l.Category {
	case model.CategoryProperty:
		snap["property_type"] = l.PropertyType
		snap["area_sqm"] = l.AreaSqm
		snap["rooms"] = l.Rooms
		snap["address"] = l.Address
	case model.CategoryEvent:
		if l.EventDate != nil {
			snap["event_date"] = l.EventDate.Format(time.RFC3339)
		}
		snap["event_venue"] = l.EventVenue
		snap["event_seats"] = l.EventSeats
	case model.CategoryService:
		snap["service_type"] = l.ServiceType
		snap["service_area"] = l.ServiceArea
	}
	return snap
}

func toListingVO(l *model.Listing) *dto.ListingVO {
	return &dto.ListingVO{
		ID:           l.ID,
		Category:     l.Category,
		Title:        l.Title,
		Description:  l.Description,
		PriceType:    l.PriceType,
		Price:        l.GetPrice(),
		Currency:     l.CurrencyCode,
		Photos:       []string(l.Photos),
		PropertyType: l.PropertyType,
		AreaSqm:      l.AreaSqm,
		Rooms:        l.Rooms,
		Address:      l.Address,
		EventDate:    l.EventDate,
		EventVenue:   l.EventVenue,
		EventSeats:   l.EventSeats,
		ServiceType:  l.ServiceType,
		ServiceArea:  l.ServiceArea,
		Status:       l.Status,
		RegionID:     l.RegionID,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
	}
}

// decodePendingImages 解码随请求提交的 Base64 图片，支持 data URI 前缀
func decodePendingImages(pending []dto.PendingImage) ([]ImageFile, error) {
	files := make([]ImageFile, 0, len(pending))
	for i, p := range pending {
		raw := p.Data
		contentType := ""
		if strings.HasPrefix(raw, "data:") {
			idx := strings.Index(raw, ";base64,")
			if idx < 0 {
				return nil, fmt.Errorf("图片 %d 编码格式无效", i)
			}
			contentType = strings.TrimPrefix(raw[:idx], "data:")
			raw = raw[idx+len(";base64,"):]
		}

		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("图片 %d 解码失败: %v", i, err)
		}

		files = append(files, ImageFile{
			Name:        p.Name,
			Data:        data,
			ContentType: contentType,
		})
	}
	return files, nil
}
