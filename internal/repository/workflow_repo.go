package repository

import (
	"context"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/model"
)

// WorkflowSessionRepository 工作流会话仓储接口
type WorkflowSessionRepository interface {
	Create(ctx context.Context, session *model.WorkflowSession) error
	GetByID(ctx context.Context, id int64) (*model.WorkflowSession, error)
	GetByListingID(ctx context.Context, listingID int64) (*model.WorkflowSession, error)
	Update(ctx context.Context, session *model.WorkflowSession) error
	DeleteByListingID(ctx context.Context, listingID int64) error
}

type workflowSessionRepo struct {
	db *gorm.DB
}

// NewWorkflowSessionRepository 创建工作流会话仓储
func NewWorkflowSessionRepository(db *gorm.DB) WorkflowSessionRepository {
	return &workflowSessionRepo{db: db}
}

func (r *workflowSessionRepo) Create(ctx context.Context, session *model.WorkflowSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *workflowSessionRepo) GetByID(ctx context.Context, id int64) (*model.WorkflowSession, error) {
	var session model.WorkflowSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *workflowSessionRepo) GetByListingID(ctx context.Context, listingID int64) (*model.WorkflowSession, error) {
	var session model.WorkflowSession
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *workflowSessionRepo) Update(ctx context.Context, session *model.WorkflowSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *workflowSessionRepo) DeleteByListingID(ctx context.Context, listingID int64) error {
	return r.db.WithContext(ctx).Where("listing_id = ?", listingID).Delete(&model.WorkflowSession{}).Error
}
