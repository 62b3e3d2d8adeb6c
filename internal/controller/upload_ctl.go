package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listhub_v1_202608/internal/api/dto"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/service"
)

// ==================== 控制器 ====================

// UploadController 图片上传控制器
type UploadController struct {
	uploadService *service.UploadService
}

func NewUploadController(uploadService *service.UploadService) *UploadController {
	return &UploadController{uploadService: uploadService}
}

// ==================== API 方法 ====================

// UploadImages 批量上传图片 (multipart/form-data, 字段名 images)
// existing 为该草稿已持有的图片数，用于上限校验
func (ctrl *UploadController) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respErr(c, http.StatusBadRequest, "解析上传表单失败: "+err.Error())
		return
	}

	fileHeaders := form.File["images"]
	if len(fileHeaders) == 0 {
		respErr(c, http.StatusBadRequest, "未选择图片")
		return
	}

	existing, _ := strconv.Atoi(c.DefaultPostForm("existing", "0"))

	files := make([]service.ImageFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respErr(c, http.StatusBadRequest, "读取图片失败: "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respErr(c, http.StatusBadRequest, "读取图片失败: "+err.Error())
			return
		}

		files = append(files, service.ImageFile{
			Name:        fh.Filename,
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	userID := middleware.GetUserID(c)
	uploaded, err := ctrl.uploadService.UploadImages(c.Request.Context(), userID, files, "listings", existing)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrTooManyImages) || errors.Is(err, service.ErrEmptyImage) {
			status = http.StatusBadRequest
		}
		respErr(c, status, err.Error())
		return
	}

	result := make([]dto.UploadedImageVO, len(uploaded))
	for i, img := range uploaded {
		result[i] = dto.UploadedImageVO{
			URL:          img.URL,
			OriginalName: img.OriginalName,
			Size:         img.Size,
			Mimetype:     img.Mimetype,
			Index:        img.ImageIndex,
		}
	}

	respCreated(c, result)
}
