package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/service"
)

// ==================== 控制器 ====================

// AuthController 认证控制器
type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// ==================== API 方法 ====================

// PasswordLogin 密码登录
func (ctrl *AuthController) PasswordLogin(c *gin.Context) {
	var req dto.PasswordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	tokens, err := ctrl.authService.PasswordLogin(c.Request.Context(), &req)
	if err != nil {
		respErr(c, http.StatusUnauthorized, err.Error())
		return
	}

	respOK(c, tokens)
}

// RequestOTP 请求验证码，同一手机号限流
func (ctrl *AuthController) RequestOTP(c *gin.Context) {
	var req dto.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	check := middleware.GetLimiter().Check(middleware.OTPSendKey(req.Phone), middleware.OTPSendInterval)
	if !check.Allowed {
		respErr(c, http.StatusTooManyRequests,
			fmt.Sprintf("请求过于频繁，请 %d 秒后重试", int(check.RetryAfter.Seconds())+1))
		return
	}

	if err := ctrl.authService.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}

	respMsg(c, "验证码已发送")
}

// VerifyOTP 验证码登录
func (ctrl *AuthController) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	tokens, err := ctrl.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		respErr(c, http.StatusUnauthorized, err.Error())
		return
	}

	// 验证通过即清除发送冷却，用户可立即再次请求
	middleware.GetLimiter().Reset(middleware.OTPSendKey(req.Phone))

	respOK(c, tokens)
}

// Profile 当前登录用户信息
func (ctrl *AuthController) Profile(c *gin.Context) {
	claims := middleware.GetUserClaims(c)
	if claims == nil {
		respErr(c, http.StatusUnauthorized, "未登录")
		return
	}

	respOK(c, dto.ProfileVO{
		UserID: claims.UserID,
		Phone:  claims.Phone,
		Role:   claims.Role,
	})
}

// RefreshToken 刷新令牌
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	tokens, err := ctrl.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respErr(c, http.StatusUnauthorized, err.Error())
		return
	}

	respOK(c, tokens)
}
