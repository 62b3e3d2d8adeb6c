package dto

// ==================== 请求 ====================

// PasswordLoginRequest 密码登录
type PasswordLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RequestOTPRequest 请求验证码
type RequestOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// VerifyOTPRequest 验证码登录
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RefreshTokenRequest 刷新令牌
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ==================== 响应 ====================

// TokenPairVO 令牌对
type TokenPairVO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       int64  `json:"user_id"`
}

// ProfileVO 当前登录用户
type ProfileVO struct {
	UserID int64  `json:"user_id"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
}
