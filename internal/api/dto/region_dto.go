package dto

// ==================== 请求 ====================

// ConfirmRegionRequest 区域确认请求
type ConfirmRegionRequest struct {
	ListingID int64 `json:"listing_id" binding:"required"`
	RegionID  int64 `json:"region_id" binding:"required"`
}

// RecentRegionRequest 记录最近使用区域
type RecentRegionRequest struct {
	RegionID int64 `json:"region_id" binding:"required"`
}

// CreateRegionRequest 新增区域（管理员）
type CreateRegionRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	ParentID int64  `json:"parent_id"`
}

// ==================== 响应 ====================

// RegionVO 区域视图
type RegionVO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	ParentID int64  `json:"parent_id,omitempty"`
}
