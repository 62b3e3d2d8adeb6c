package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 错误定义 ====================

var (
	ErrInvalidCredentials = errors.New("手机号或密码错误")
	ErrInvalidOTP         = errors.New("验证码错误或已过期")
	ErrUserDisabled       = errors.New("账号已停用")
)

// ==================== 服务实现 ====================

// AuthService 认证服务：密码登录 + 短信验证码登录
type AuthService struct {
	users repository.UserRepository
}

// NewAuthService 创建认证服务
func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// PasswordLogin 密码登录
func (s *AuthService) PasswordLogin(ctx context.Context, req *dto.PasswordLoginRequest) (*dto.TokenPairVO, error) {
	user, err := s.users.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RequestOTP 请求验证码
// 短信下发由网关侧完成，这里负责生成与落库
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	code, err := generateOTPCode(6)
	if err != nil {
		return fmt.Errorf("生成验证码失败: %v", err)
	}

	otp := &model.OTPCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(model.OTPCodeTTL),
	}
	if err := s.users.CreateOTP(ctx, otp); err != nil {
		return fmt.Errorf("保存验证码失败: %v", err)
	}

	// TODO: 接入短信网关后移除该日志
	log.Printf("[Auth] 验证码已生成: %s", phone)
	return nil
}

// VerifyOTP 验证码登录，首次登录自动注册
func (s *AuthService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenPairVO, error) {
	otp, err := s.users.GetLatestOTP(ctx, req.Phone)
	if err != nil {
		return nil, ErrInvalidOTP
	}
	if !otp.IsUsable(time.Now()) || otp.Code != req.Code {
		return nil, ErrInvalidOTP
	}
	if err := s.users.MarkOTPUsed(ctx, otp.ID); err != nil {
		return nil, fmt.Errorf("更新验证码状态失败: %v", err)
	}

	user, err := s.users.GetByPhone(ctx, req.Phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.SysUser{
			Phone:  req.Phone,
			Role:   model.RoleUser,
			Status: model.UserStatusActive,
		}
		if cerr := s.users.Create(ctx, user); cerr != nil {
			return nil, fmt.Errorf("创建用户失败: %v", cerr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("查询用户失败: %v", err)
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken 使用 Refresh Token 换取新的 Token 对
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairVO, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil || claims.Subject != "refresh" {
		return nil, errors.New("Refresh Token 无效或已过期")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.New("用户不存在")
	}

	return s.issueTokens(ctx, user)
}

// issueTokens 签发 Token 对并记录登录时间
func (s *AuthService) issueTokens(ctx context.Context, user *model.SysUser) (*dto.TokenPairVO, error) {
	if user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Phone, user.Role)
	if err != nil {
		return nil, fmt.Errorf("签发令牌失败: %v", err)
	}

	now := time.Now()
	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"last_login_at": &now,
	}); err != nil {
		log.Printf("[Auth] 更新登录时间失败: %v", err)
	}

	return &dto.TokenPairVO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(middleware.GetJWTConfig().AccessTokenTTL.Seconds()),
		UserID:       user.ID,
	}, nil
}

// CleanExpiredOTP 清理过期验证码，由定时任务调用
func (s *AuthService) CleanExpiredOTP(ctx context.Context) (int64, error) {
	return s.users.DeleteExpiredOTP(ctx, time.Now())
}

// generateOTPCode 生成数字验证码
func generateOTPCode(length int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}
