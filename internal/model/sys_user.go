package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== 状态常量 ====================

const (
	UserStatusActive   = 1
	UserStatusDisabled = 0

	RoleUser  = "user"
	RoleAdmin = "admin"

	// OTP 有效期
	OTPCodeTTL = 5 * time.Minute
)

// ==================== 数据库模型 ====================

// SysUser 系统用户
type SysUser struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Phone        string `gorm:"size:32;uniqueIndex;not null;comment:手机号"`
	Username     string `gorm:"size:64;comment:用户名"`
	PasswordHash string `gorm:"size:128;comment:密码哈希(可为空，仅OTP用户)"`
	Role         string `gorm:"size:16;default:user;comment:角色"`
	Status       int    `gorm:"default:1;comment:状态"`

	LastLoginAt *time.Time `gorm:"comment:最近登录时间"`
}

func (*SysUser) TableName() string {
	return "sys_users"
}

// OTPCode 一次性验证码
type OTPCode struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`

	Phone     string    `gorm:"size:32;index;not null"`
	Code      string    `gorm:"size:8;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Used      bool      `gorm:"default:false"`
}

func (*OTPCode) TableName() string {
	return "otp_codes"
}

// IsUsable 验证码是否可用
func (o *OTPCode) IsUsable(now time.Time) bool {
	return !o.Used && o.ExpiresAt.After(now)
}
