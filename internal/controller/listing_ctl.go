package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/service"
)

// ==================== 控制器 ====================

// ListingController 刊登控制器
type ListingController struct {
	listingService  *service.ListingService
	workflowService *service.WorkflowService
}

func NewListingController(listingService *service.ListingService, workflowService *service.WorkflowService) *ListingController {
	return &ListingController{
		listingService:  listingService,
		workflowService: workflowService,
	}
}

// ==================== API 方法 ====================

// SubmitDraft 提交 Details 步骤，创建草稿
func (ctrl *ListingController) SubmitDraft(c *gin.Context) {
	var req dto.SubmitDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	result, err := ctrl.listingService.SubmitDraft(c.Request.Context(), userID, &req)
	if err != nil {
		respErr(c, draftErrStatus(err), err.Error())
		return
	}

	respCreated(c, result)
}

// UpdateDraft 回退编辑草稿
func (ctrl *ListingController) UpdateDraft(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	listing, err := ctrl.listingService.UpdateDraft(c.Request.Context(), userID, listingID, &req)
	if err != nil {
		respErr(c, draftErrStatus(err), err.Error())
		return
	}

	respOK(c, listing)
}

// GetDetail 刊登详情
func (ctrl *ListingController) GetDetail(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	listing, err := ctrl.listingService.GetDetail(c.Request.Context(), listingID)
	if err != nil {
		respErr(c, http.StatusNotFound, err.Error())
		return
	}

	respOK(c, listing)
}

// List 当前用户的刊登列表
func (ctrl *ListingController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	req := &dto.ListListingsRequest{
		UserID:   middleware.GetUserID(c),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	listings, total, err := ctrl.listingService.List(c.Request.Context(), req)
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}

	respOK(c, gin.H{
		"items":     listings,
		"total":     total,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

// Publish 终点操作：发布刊登
func (ctrl *ListingController) Publish(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	listing, err := ctrl.listingService.Publish(c.Request.Context(), userID, listingID)
	if err != nil {
		respErr(c, draftErrStatus(err), err.Error())
		return
	}

	respOK(c, listing)
}

// AbandonDraft 放弃草稿
func (ctrl *ListingController) AbandonDraft(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	if err := ctrl.listingService.AbandonDraft(c.Request.Context(), userID, listingID); err != nil {
		respErr(c, draftErrStatus(err), err.Error())
		return
	}

	respMsg(c, "草稿已删除")
}

// GetReview Review 页聚合视图
func (ctrl *ListingController) GetReview(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	review, err := ctrl.workflowService.GetReview(c.Request.Context(), listingID)
	if err != nil {
		respErr(c, http.StatusConflict, err.Error())
		return
	}

	respOK(c, review)
}

// ==================== 辅助函数 ====================

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respErr(c, http.StatusBadRequest, "无效的ID")
		return 0, false
	}
	return id, true
}

func draftErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, model.ErrAlreadyPublished),
		errors.Is(err, model.ErrStageMismatch),
		errors.Is(err, service.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyImages),
		errors.Is(err, service.ErrNoPhotos):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
