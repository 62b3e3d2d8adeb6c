package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// ListingRepository 刊登仓储接口
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)

	// 过期清理相关
	FindAbandoned(ctx context.Context, before time.Time) ([]*model.Listing, error)
}

// ListingImageRepository 刊登图片仓储接口
type ListingImageRepository interface {
	CreateBatch(ctx context.Context, images []model.ListingImage) error
	GetByListingID(ctx context.Context, listingID int64) ([]model.ListingImage, error)
	CountByListingID(ctx context.Context, listingID int64) (int64, error)
	AttachToListing(ctx context.Context, urls []string, listingID int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByListingID(ctx context.Context, listingID int64) error

	// 孤儿图片：上传成功但始终未归属任何刊登
	FindOrphans(ctx context.Context, before time.Time) ([]*model.ListingImage, error)
}

// ==================== 过滤条件 ====================

// ListingFilter 刊登查询过滤条件
type ListingFilter struct {
	UserID   int64
	Category string
	Status   string
	Page     int
	PageSize int
}

// ==================== Listing 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建刊登仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) Update(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *listingRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(fields).Error
}

func (r *listingRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Listing{}, id).Error
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// FindAbandoned 查找超期未发布的草稿
func (r *listingRepo) FindAbandoned(ctx context.Context, before time.Time) ([]*model.Listing, error) {
	var listings []*model.Listing
	err := r.db.WithContext(ctx).
		Where("updated_at < ? AND status = ? AND payment_settled = ?", before, model.ListingStatusDraft, false).
		Find(&listings).Error
	return listings, err
}

// ==================== ListingImage 仓储实现 ====================

type listingImageRepo struct {
	db *gorm.DB
}

// NewListingImageRepository 创建刊登图片仓储
func NewListingImageRepository(db *gorm.DB) ListingImageRepository {
	return &listingImageRepo{db: db}
}

func (r *listingImageRepo) CreateBatch(ctx context.Context, images []model.ListingImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *listingImageRepo) GetByListingID(ctx context.Context, listingID int64) ([]model.ListingImage, error) {
	var images []model.ListingImage
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("image_index ASC").
		Find(&images).Error
	return images, err
}

func (r *listingImageRepo) CountByListingID(ctx context.Context, listingID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ListingImage{}).
		Where("listing_id = ?", listingID).Count(&count).Error
	return count, err
}

// AttachToListing 将未归属的图片记录归属到刊登
func (r *listingImageRepo) AttachToListing(ctx context.Context, urls []string, listingID int64) error {
	if len(urls) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.ListingImage{}).
		Where("listing_id = ? AND url IN ?", 0, urls).
		Update("listing_id", listingID).Error
}

func (r *listingImageRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ListingImage{}, id).Error
}

func (r *listingImageRepo) DeleteByListingID(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).Where("listing_id = ?", listingID).Delete(&model.ListingImage{}).Error
}

// FindOrphans 查找超期未归属的图片
func (r *listingImageRepo) FindOrphans(ctx context.Context, before time.Time) ([]*model.ListingImage, error) {
	var images []*model.ListingImage
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND created_at < ?", 0, before).
		Find(&images).Error
	return images, err
}

// ==================== 事务支持 ====================

// ListingUnitOfWork 刊登工作单元（事务）
type ListingUnitOfWork struct {
	db       *gorm.DB
	Listings ListingRepository
	Images   ListingImageRepository
	Sessions WorkflowSessionRepository
}

// NewListingUnitOfWork 创建工作单元
func NewListingUnitOfWork(db *gorm.DB) *ListingUnitOfWork {
	return &ListingUnitOfWork{
		db:       db,
		Listings: NewListingRepository(db),
		Images:   NewListingImageRepository(db),
		Sessions: NewWorkflowSessionRepository(db),
	}
}

// Transaction 执行事务
func (u *ListingUnitOfWork) Transaction(ctx context.Context, fn func(uow *ListingUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUow := &ListingUnitOfWork{
			db:       tx,
			Listings: NewListingRepository(tx),
			Images:   NewListingImageRepository(tx),
			Sessions: NewWorkflowSessionRepository(tx),
		}
		return fn(txUow)
	})
}
