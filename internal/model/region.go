package model

import (
	"time"
)

// Region 发布区域（目录数据）
type Region struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Name     string `gorm:"size:128;not null;comment:区域名称"`
	Code     string `gorm:"size:32;uniqueIndex;comment:区域代码"`
	ParentID int64  `gorm:"index;default:0;comment:上级区域ID(0=顶级)"`
	Active   bool   `gorm:"default:true;index"`
}

func (*Region) TableName() string {
	return "regions"
}

// RecentRegion 用户最近使用的区域
type RecentRegion struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	UserID   int64     `gorm:"index;not null"`
	RegionID int64     `gorm:"index;not null"`
	UsedAt   time.Time `gorm:"index;comment:最近使用时间"`
}

func (*RecentRegion) TableName() string {
	return "recent_regions"
}
