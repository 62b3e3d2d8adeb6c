package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"listhub_v1_202608/internal/model"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *model.SysUser) error
	GetByID(ctx context.Context, id int64) (*model.SysUser, error)
	GetByPhone(ctx context.Context, phone string) (*model.SysUser, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// OTP
	CreateOTP(ctx context.Context, otp *model.OTPCode) error
	GetLatestOTP(ctx context.Context, phone string) (*model.OTPCode, error)
	MarkOTPUsed(ctx context.Context, id int64) error
	DeleteExpiredOTP(ctx context.Context, before time.Time) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.SysUser, error) {
	var user model.SysUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*model.SysUser, error) {
	var user model.SysUser
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.SysUser{}).Where("id = ?", id).Updates(fields).Error
}

// ==================== OTP ====================

func (r *userRepo) CreateOTP(ctx context.Context, otp *model.OTPCode) error {
	return r.db.WithContext(ctx).Create(otp).Error
}

func (r *userRepo) GetLatestOTP(ctx context.Context, phone string) (*model.OTPCode, error) {
	var otp model.OTPCode
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *userRepo) MarkOTPUsed(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.OTPCode{}).Where("id = ?", id).Update("used", true).Error
}

func (r *userRepo) DeleteExpiredOTP(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.OTPCode{})
	return result.RowsAffected, result.Error
}
