package dto

import "time"

// ==================== 请求 ====================

// PendingImage 随草稿提交的待上传图片（Base64）
type PendingImage struct {
	Name string `json:"name"`
	Data string `json:"data" binding:"required"`
}

// SubmitDraftRequest 创建草稿请求
type SubmitDraftRequest struct {
	Category    string `json:"category" binding:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`

	PriceType string  `json:"price_type"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`

	// Property
	PropertyType string  `json:"property_type"`
	AreaSqm      float64 `json:"area_sqm"`
	Rooms        int     `json:"rooms"`
	Address      string  `json:"address"`

	// Event
	EventDate  *time.Time `json:"event_date"`
	EventVenue string     `json:"event_venue"`
	EventSeats int        `json:"event_seats"`

	// Service
	ServiceType string `json:"service_type"`
	ServiceArea string `json:"service_area"`

	// 已上传图片 URL（顺序即展示顺序）与待上传图片，合计不超过 6 张
	PhotoURLs     []string       `json:"photo_urls"`
	PendingImages []PendingImage `json:"pending_images"`
}

// UpdateDraftRequest 编辑草稿请求（回退 Details 重新提交）
type UpdateDraftRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	PriceType   *string  `json:"price_type"`
	Price       *float64 `json:"price"`

	PropertyType *string    `json:"property_type"`
	AreaSqm      *float64   `json:"area_sqm"`
	Rooms        *int       `json:"rooms"`
	Address      *string    `json:"address"`
	EventDate    *time.Time `json:"event_date"`
	EventVenue   *string    `json:"event_venue"`
	EventSeats   *int       `json:"event_seats"`
	ServiceType  *string    `json:"service_type"`
	ServiceArea  *string    `json:"service_area"`

	PhotoURLs []string `json:"photo_urls"`
}

// ListListingsRequest 刊登列表请求
type ListListingsRequest struct {
	UserID   int64
	Category string
	Status   string
	Page     int
	PageSize int
}

// ==================== 响应 ====================

// ListingVO 刊登视图
type ListingVO struct {
	ID           int64      `json:"id"`
	Category     string     `json:"category"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PriceType    string     `json:"price_type"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	Photos       []string   `json:"photos"`
	PropertyType string     `json:"property_type,omitempty"`
	AreaSqm      float64    `json:"area_sqm,omitempty"`
	Rooms        int        `json:"rooms,omitempty"`
	Address      string     `json:"address,omitempty"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	EventVenue   string     `json:"event_venue,omitempty"`
	EventSeats   int        `json:"event_seats,omitempty"`
	ServiceType  string     `json:"service_type,omitempty"`
	ServiceArea  string     `json:"service_area,omitempty"`
	Status       string     `json:"status"`
	RegionID     int64      `json:"region_id,omitempty"`
	CreatedAt    string     `json:"created_at"`
}

// SubmitDraftResult 创建草稿结果
// 草稿创建成功后立即完成一次支付路由判定
type SubmitDraftResult struct {
	Listing     *ListingVO `json:"listing"`
	SessionID   int64      `json:"session_id"`
	Stage       string     `json:"stage"`
	SkipPayment bool       `json:"skip_payment"`
}

// UploadedImageVO 上传结果
type UploadedImageVO struct {
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	Index        int    `json:"index"`
}

// ReviewVO Review 页聚合视图：三个分段 + 当前阶段
type ReviewVO struct {
	SessionID   int64                  `json:"session_id"`
	ListingID   int64                  `json:"listing_id"`
	Stage       string                 `json:"stage"`
	ListingData map[string]interface{} `json:"listing_data"`
	PaymentData map[string]interface{} `json:"payment_data"`
	RegionData  map[string]interface{} `json:"region_data"`
}
