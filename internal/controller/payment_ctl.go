package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/service"
)

// ==================== 控制器 ====================

// PaymentController 支付控制器
type PaymentController struct {
	paymentService *service.PaymentService
	subService     *service.SubscriptionService
}

func NewPaymentController(paymentService *service.PaymentService, subService *service.SubscriptionService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		subService:     subService,
	}
}

// ==================== API 方法 ====================

// ListPlans 套餐目录
func (ctrl *PaymentController) ListPlans(c *gin.Context) {
	plans, err := ctrl.paymentService.ListPlans(c.Request.Context())
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}
	respOK(c, plans)
}

// ValidatePromo 优惠码校验
func (ctrl *PaymentController) ValidatePromo(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respErr(c, http.StatusBadRequest, "缺少优惠码")
		return
	}

	promo, err := ctrl.paymentService.ValidatePromo(c.Request.Context(), code)
	if err != nil {
		respErr(c, http.StatusNotFound, err.Error())
		return
	}
	respOK(c, promo)
}

// CreateIntent 创建支付意向
func (ctrl *PaymentController) CreateIntent(c *gin.Context) {
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	check := middleware.GetLimiter().Check(middleware.IntentCreateKey(req.ListingID), middleware.IntentCreateInterval)
	if !check.Allowed {
		respErr(c, http.StatusTooManyRequests, "操作过于频繁，请稍后重试")
		return
	}

	userID := middleware.GetUserID(c)
	session, err := ctrl.paymentService.CreateIntent(c.Request.Context(), userID, &req)
	if err != nil {
		respErr(c, paymentErrStatus(err), err.Error())
		return
	}

	respCreated(c, session)
}

// ConfirmPayment 服务端确认支付
func (ctrl *PaymentController) ConfirmPayment(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	payment, err := ctrl.paymentService.ConfirmPayment(c.Request.Context(), userID, &req)
	if err != nil {
		respErr(c, paymentErrStatus(err), err.Error())
		return
	}

	respOK(c, payment)
}

// CancelPayment 用户关闭支付面板
func (ctrl *PaymentController) CancelPayment(c *gin.Context) {
	var req dto.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := ctrl.paymentService.CancelPayment(c.Request.Context(), userID, &req); err != nil {
		respErr(c, paymentErrStatus(err), err.Error())
		return
	}

	respMsg(c, "已取消")
}

// CreatePlan 新增套餐，管理员目录维护
func (ctrl *PaymentController) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	plan, err := ctrl.paymentService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}

	respCreated(c, plan)
}

// SubscriptionValidity 订阅有效性查询
func (ctrl *PaymentController) SubscriptionValidity(c *gin.Context) {
	userID := middleware.GetUserID(c)
	respOK(c, ctrl.subService.Validity(c.Request.Context(), userID))
}

// ==================== 辅助函数 ====================

func paymentErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrSettlementInFlight):
		return http.StatusConflict
	case errors.Is(err, service.ErrListingSettled):
		return http.StatusConflict
	case errors.Is(err, model.ErrStageMismatch):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidPromo):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
