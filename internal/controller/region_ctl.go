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

// RegionController 区域控制器
type RegionController struct {
	regionService *service.RegionService
}

func NewRegionController(regionService *service.RegionService) *RegionController {
	return &RegionController{regionService: regionService}
}

// ==================== API 方法 ====================

// ListRegions 可选区域目录
func (ctrl *RegionController) ListRegions(c *gin.Context) {
	regions, err := ctrl.regionService.ListRegions(c.Request.Context())
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}
	respOK(c, regions)
}

// ListRecent 最近使用的区域
func (ctrl *RegionController) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	userID := middleware.GetUserID(c)

	regions, err := ctrl.regionService.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}
	respOK(c, regions)
}

// ConfirmRegion 确认发布区域
func (ctrl *RegionController) ConfirmRegion(c *gin.Context) {
	var req dto.ConfirmRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	region, err := ctrl.regionService.ConfirmRegion(c.Request.Context(), userID, &req)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrRegionNotFound), errors.Is(err, service.ErrListingNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrNotOwner):
			status = http.StatusForbidden
		case errors.Is(err, model.ErrStageMismatch), errors.Is(err, model.ErrAlreadyPublished):
			status = http.StatusConflict
		}
		respErr(c, status, err.Error())
		return
	}

	respOK(c, region)
}

// CreateRegion 新增区域，管理员目录维护
func (ctrl *RegionController) CreateRegion(c *gin.Context) {
	var req dto.CreateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	region, err := ctrl.regionService.CreateRegion(c.Request.Context(), &req)
	if err != nil {
		respErr(c, http.StatusInternalServerError, err.Error())
		return
	}

	respCreated(c, region)
}

// RecordRecent 记录最近使用区域
func (ctrl *RegionController) RecordRecent(c *gin.Context) {
	var req dto.RecentRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respErr(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := ctrl.regionService.RecordRecent(c.Request.Context(), userID, req.RegionID); err != nil {
		respErr(c, http.StatusNotFound, err.Error())
		return
	}

	respMsg(c, "已记录")
}
