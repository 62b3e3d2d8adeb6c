package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/model"
)

// RegionRepository 区域仓储接口
type RegionRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Region, error)
	ListActive(ctx context.Context) ([]model.Region, error)
	Create(ctx context.Context, region *model.Region) error

	// 最近使用
	RecordRecent(ctx context.Context, userID, regionID int64) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]model.Region, error)
}

type regionRepo struct {
	db *gorm.DB
}

// NewRegionRepository 创建区域仓储
func NewRegionRepository(db *gorm.DB) RegionRepository {
	return &regionRepo{db: db}
}

func (r *regionRepo) GetByID(ctx context.Context, id int64) (*model.Region, error) {
	var region model.Region
	if err := r.db.WithContext(ctx).First(&region, id).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *regionRepo) ListActive(ctx context.Context) ([]model.Region, error) {
	var regions []model.Region
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&regions).Error
	return regions, err
}

func (r *regionRepo) Create(ctx context.Context, region *model.Region) error {
	return r.db.WithContext(ctx).Create(region).Error
}

// RecordRecent 记录最近使用的区域（同一区域只保留最新一条）
func (r *regionRepo) RecordRecent(ctx context.Context, userID, regionID int64) error {
	var existing model.RecentRegion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND region_id = ?", userID, regionID).
		First(&existing).Error

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&model.RecentRegion{
			UserID:   userID,
			RegionID: regionID,
			UsedAt:   now,
		}).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&existing).Update("used_at", now).Error
}

func (r *regionRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]model.Region, error) {
	if limit <= 0 {
		limit = 5
	}

	var recents []model.RecentRegion
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("used_at DESC").
		Limit(limit).
		Find(&recents).Error
	if err != nil {
		return nil, err
	}
	if len(recents) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(recents))
	for i, rec := range recents {
		ids[i] = rec.RegionID
	}

	var regions []model.Region
	err = r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&regions).Error
	if err != nil {
		return nil, err
	}

	// 按最近使用顺序返回
	byID := make(map[int64]model.Region, len(regions))
	for _, region := range regions {
		byID[region.ID] = region
	}
	ordered := make([]model.Region, 0, len(recents))
	for _, rec := range recents {
		if region, ok := byID[rec.RegionID]; ok {
			ordered = append(ordered, region)
		}
	}
	return ordered, nil
}
