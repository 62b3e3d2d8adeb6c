package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 测试辅助函数 ====================

func newAuthTestEnv(t *testing.T) (*AuthService, repository.UserRepository) {
	db := setupServiceTestDB(t)
	users := repository.NewUserRepository(db)
	return NewAuthService(users), users
}

// ==================== 密码登录测试 ====================

func TestAuthService_PasswordLogin(t *testing.T) {
	svc, users := newAuthTestEnv(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	users.Create(ctx, &model.SysUser{
		Phone:        "13800000001",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
	})

	tokens, err := svc.PasswordLogin(ctx, &dto.PasswordLoginRequest{
		Phone:    "13800000001",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("PasswordLogin() error = %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("应签发完整令牌对")
	}

	// 密码错误
	_, err = svc.PasswordLogin(ctx, &dto.PasswordLoginRequest{
		Phone:    "13800000001",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}

	// 用户不存在
	_, err = svc.PasswordLogin(ctx, &dto.PasswordLoginRequest{
		Phone:    "13800000002",
		Password: "secret123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_DisabledUserRejected(t *testing.T) {
	svc, users := newAuthTestEnv(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	users.Create(ctx, &model.SysUser{
		Phone:        "13800000001",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Status:       model.UserStatusDisabled,
	})

	_, err := svc.PasswordLogin(ctx, &dto.PasswordLoginRequest{
		Phone:    "13800000001",
		Password: "secret123",
	})
	if !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("err = %v, want ErrUserDisabled", err)
	}
}

// ==================== OTP 登录测试 ====================

func TestAuthService_OTPFlow(t *testing.T) {
	svc, users := newAuthTestEnv(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "13900000001"); err != nil {
		t.Fatalf("RequestOTP() error = %v", err)
	}

	otp, err := users.GetLatestOTP(ctx, "13900000001")
	if err != nil {
		t.Fatalf("验证码未落库: %v", err)
	}
	if len(otp.Code) != 6 {
		t.Errorf("验证码长度 = %d, want 6", len(otp.Code))
	}

	// 首次验证码登录自动注册
	tokens, err := svc.VerifyOTP(ctx, &dto.VerifyOTPRequest{
		Phone: "13900000001",
		Code:  otp.Code,
	})
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if tokens.UserID == 0 {
		t.Error("应返回新注册用户ID")
	}

	// 验证码只能使用一次
	_, err = svc.VerifyOTP(ctx, &dto.VerifyOTPRequest{
		Phone: "13900000001",
		Code:  otp.Code,
	})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("重复使用验证码应失败, got %v", err)
	}
}

func TestAuthService_ExpiredOTPRejected(t *testing.T) {
	svc, users := newAuthTestEnv(t)
	ctx := context.Background()

	users.CreateOTP(ctx, &model.OTPCode{
		Phone:     "13900000002",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	_, err := svc.VerifyOTP(ctx, &dto.VerifyOTPRequest{
		Phone: "13900000002",
		Code:  "123456",
	})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("err = %v, want ErrInvalidOTP", err)
	}
}

// ==================== 令牌刷新测试 ====================

func TestAuthService_RefreshToken(t *testing.T) {
	svc, users := newAuthTestEnv(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	users.Create(ctx, &model.SysUser{
		Phone:        "13800000001",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
	})

	tokens, err := svc.PasswordLogin(ctx, &dto.PasswordLoginRequest{
		Phone:    "13800000001",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("PasswordLogin() error = %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("刷新应签发新 Access Token")
	}

	// Access Token 不能用于刷新
	if _, err := svc.RefreshToken(ctx, tokens.AccessToken); err == nil {
		t.Error("Access Token 不应能用于刷新")
	}
}
