package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== 状态常量 ====================

const (
	// 刊登状态
	ListingStatusDraft     = "draft"
	ListingStatusPublished = "published"

	// 分类
	CategoryProperty = "property"
	CategoryEvent    = "event"
	CategoryProduct  = "product"
	CategoryService  = "service"

	// 价格类型
	PriceTypeFree    = "free"
	PriceTypePaid    = "paid"
	PriceTypePerSeat = "per_seat"
	PriceTypePerHour = "per_hour"

	// 每个草稿最多允许的图片数量
	MaxPhotosPerListing = 6
)

// ==================== JSON 类型 ====================

// StringSlice 字符串切片（JSON 存储）
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// JSONMap JSON对象（map 存储）
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, m)
}

// ==================== 数据库模型 ====================

// Listing 刊登（发布前为草稿）
type Listing struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	UserID    int64          `gorm:"index;not null;comment:用户ID"`
	Category  string         `gorm:"size:32;index;not null;comment:分类"`

	Title       string `gorm:"size:140;comment:标题"`
	Description string `gorm:"type:text;comment:描述"`

	PriceType    string `gorm:"size:16;default:paid;comment:价格类型"`
	PriceAmount  int64  `gorm:"comment:价格(分)"`
	PriceDivisor int64  `gorm:"default:100;comment:价格除数"`
	CurrencyCode string `gorm:"size:3;default:USD;comment:货币代码"`

	// 图片 URL，按选择顺序存储，首图为主图
	Photos StringSlice `gorm:"type:json;comment:图片URL列表"`

	// Property 专有字段
	PropertyType string  `gorm:"size:32;comment:房产类型"`
	AreaSqm      float64 `gorm:"comment:面积(平米)"`
	Rooms        int     `gorm:"comment:房间数"`
	Address      string  `gorm:"size:255;comment:地址"`

	// Event 专有字段
	EventDate  *time.Time `gorm:"comment:活动时间"`
	EventVenue string     `gorm:"size:255;comment:活动地点"`
	EventSeats int        `gorm:"comment:座位数"`

	// Service 专有字段
	ServiceType string `gorm:"size:64;comment:服务类型"`
	ServiceArea string `gorm:"size:255;comment:服务范围"`

	Status         string `gorm:"size:32;index;default:draft;comment:状态"`
	PaymentSettled bool   `gorm:"default:false;comment:支付是否已完成"`
	RegionID       int64  `gorm:"index;comment:发布区域ID"`
}

func (*Listing) TableName() string {
	return "listings"
}

// ListingImage 已上传图片
// 上传成功后先以 listing_id=0 挂起，草稿创建成功时再归属；
// 长期未归属的记录由清理任务回收（孤儿图片补偿）
type ListingImage struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	ListingID int64          `gorm:"index;comment:所属刊登ID(0=未归属)"`
	UserID    int64          `gorm:"index;comment:上传用户ID"`

	URL          string `gorm:"size:2048;not null;comment:存储URL"`
	OriginalName string `gorm:"size:255;comment:原始文件名"`
	Size         int64  `gorm:"comment:文件大小(字节)"`
	Mimetype     string `gorm:"size:64;comment:MIME类型"`
	ImageIndex   int    `gorm:"comment:顺序索引"`
}

func (*ListingImage) TableName() string {
	return "listing_images"
}

// ==================== 校验 ====================

// Validate 按分类校验必填字段
// 纯本地校验，任何网络调用之前执行
func (l *Listing) Validate() error {
	if l.Title == "" {
		return errors.New("标题不能为空")
	}
	if l.Description == "" {
		return errors.New("描述不能为空")
	}

	switch l.Category {
	case CategoryProperty:
		if l.PropertyType == "" {
			return errors.New("请选择房产类型")
		}
		if l.AreaSqm <= 0 {
			return errors.New("请填写面积")
		}
		if l.Address == "" {
			return errors.New("请填写地址")
		}
	case CategoryEvent:
		if l.EventDate == nil {
			return errors.New("请选择活动时间")
		}
		if l.EventVenue == "" {
			return errors.New("请填写活动地点")
		}
	case CategoryService:
		if l.ServiceType == "" {
			return errors.New("请选择服务类型")
		}
		if l.ServiceArea == "" {
			return errors.New("请填写服务范围")
		}
	case CategoryProduct:
		// Product 无额外必填字段
	default:
		return errors.New("不支持的分类")
	}

	// 免费刊登跳过价格校验
	if l.PriceType != PriceTypeFree && l.PriceAmount <= 0 {
		return errors.New("请填写价格")
	}

	return nil
}

// CanEnterPayment 进入支付步骤前的完整性检查
func (l *Listing) CanEnterPayment() error {
	if l.Status != ListingStatusDraft {
		return errors.New("当前状态不允许支付")
	}
	if len(l.Photos) == 0 {
		return errors.New("至少需要一张已上传的图片")
	}
	return l.Validate()
}

// CanEdit 仅草稿且未完成支付时可编辑
func (l *Listing) CanEdit() error {
	if l.Status != ListingStatusDraft {
		return errors.New("只能修改草稿状态的刊登")
	}
	if l.PaymentSettled {
		return errors.New("支付完成后不可修改")
	}
	return nil
}

// ==================== 辅助方法 ====================

// GetPrice 获取价格（浮点数）
func (l *Listing) GetPrice() float64 {
	if l.PriceDivisor == 0 {
		l.PriceDivisor = 100
	}
	return float64(l.PriceAmount) / float64(l.PriceDivisor)
}

// SetPrice 设置价格（浮点数）
func (l *Listing) SetPrice(price float64) {
	l.PriceDivisor = 100
	l.PriceAmount = int64(price * 100)
}

// NormalizePrice 免费类型强制价格归零
func (l *Listing) NormalizePrice() {
	if l.PriceType == PriceTypeFree {
		l.PriceAmount = 0
	}
	if l.PriceDivisor == 0 {
		l.PriceDivisor = 100
	}
}

// MarkPublished 标记为已发布（终态，不可逆）
func (l *Listing) MarkPublished() {
	l.Status = ListingStatusPublished
}

// MarkSettled 支付完成后草稿不可再编辑
func (l *Listing) MarkSettled() {
	l.PaymentSettled = true
}
