package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== 阶段常量 ====================

// 发布工作流阶段：Details → Payment → Region → Review → Publish
// 阶段只会前进；回退编辑不改变阶段，只重新合并对应分段
const (
	StageDraftPending    = "draft_pending"
	StageAwaitingPayment = "awaiting_payment"
	StageAwaitingRegion  = "awaiting_region"
	StageReadyToPublish  = "ready_to_publish"
	StagePublished       = "published"
)

// ==================== 数据库模型 ====================

// WorkflowSession 跨步骤状态载体
// 每个分段只由对应步骤写入，后续步骤只读前序分段并原样携带
type WorkflowSession struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	ListingID int64  `gorm:"uniqueIndex;not null;comment:刊登ID"`
	UserID    int64  `gorm:"index;comment:用户ID"`
	Stage     string `gorm:"size:32;index;default:draft_pending;comment:当前阶段"`

	ListingData JSONMap `gorm:"type:json;comment:Details步骤产出"`
	PaymentData JSONMap `gorm:"type:json;comment:Payment步骤产出"`
	RegionData  JSONMap `gorm:"type:json;comment:Region步骤产出"`
}

func (*WorkflowSession) TableName() string {
	return "workflow_sessions"
}

// ==================== 阶段流转 ====================

var (
	ErrStageMismatch    = errors.New("当前阶段不允许该操作")
	ErrCarrierDropped   = errors.New("不允许丢弃前序步骤数据")
	ErrAlreadyPublished = errors.New("刊登已发布")
)

// stageOrder 阶段顺序，用于前进校验
var stageOrder = map[string]int{
	StageDraftPending:    0,
	StageAwaitingPayment: 1,
	StageAwaitingRegion:  2,
	StageReadyToPublish:  3,
	StagePublished:       4,
}

// AdvanceTo 前进到目标阶段
func (w *WorkflowSession) AdvanceTo(stage string) error {
	if w.Stage == StagePublished {
		return ErrAlreadyPublished
	}
	cur, ok1 := stageOrder[w.Stage]
	next, ok2 := stageOrder[stage]
	if !ok1 || !ok2 || next <= cur {
		return ErrStageMismatch
	}
	w.Stage = stage
	return nil
}

// AttachPaymentData 写入支付分段，前序分段必须保持完整
func (w *WorkflowSession) AttachPaymentData(data JSONMap) error {
	if len(w.ListingData) == 0 {
		return ErrCarrierDropped
	}
	w.PaymentData = data
	return nil
}

// AttachRegionData 写入区域分段，前序分段必须保持完整
func (w *WorkflowSession) AttachRegionData(data JSONMap) error {
	if len(w.ListingData) == 0 || len(w.PaymentData) == 0 {
		return ErrCarrierDropped
	}
	w.RegionData = data
	return nil
}

// ReplaceListingData 回退编辑 Details 后重新合并自己的分段
// 兄弟分段（Payment/Region）不受影响
func (w *WorkflowSession) ReplaceListingData(data JSONMap) error {
	if w.Stage == StagePublished {
		return ErrAlreadyPublished
	}
	w.ListingData = data
	return nil
}

// ReplaceRegionData 回退编辑 Region 后重新合并自己的分段
func (w *WorkflowSession) ReplaceRegionData(data JSONMap) error {
	if w.Stage == StagePublished {
		return ErrAlreadyPublished
	}
	if len(w.ListingData) == 0 || len(w.PaymentData) == 0 {
		return ErrCarrierDropped
	}
	w.RegionData = data
	return nil
}

// ReadyForReview Review 页要求三个分段齐备
func (w *WorkflowSession) ReadyForReview() error {
	if len(w.ListingData) == 0 {
		return errors.New("缺少刊登信息")
	}
	if len(w.PaymentData) == 0 {
		return errors.New("缺少支付信息")
	}
	if len(w.RegionData) == 0 {
		return errors.New("缺少区域信息")
	}
	return nil
}
