package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
)

// ==================== 错误定义 ====================

var (
	// ErrTooManyImages 超出单个草稿的图片上限，本地拒绝，不发起任何上传
	ErrTooManyImages = fmt.Errorf("每个草稿最多 %d 张图片", model.MaxPhotosPerListing)

	// ErrEmptyImage 空文件
	ErrEmptyImage = errors.New("图片内容为空")
)

// UploadError 批次上传失败
// 批次内任一张失败则整批作废；之前批次已上传的图片不受影响
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("图片上传失败 (%s): %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ==================== 服务实现 ====================

// ImageFile 待上传的图片内容
type ImageFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// UploadService 图片上传管道
// 负责把本地图片内容批量上传为持久 URL，保持选择顺序，首图为主图
type UploadService struct {
	storage StorageProvider
	images  repository.ListingImageRepository
}

// NewUploadService 创建上传服务
func NewUploadService(storage StorageProvider, images repository.ListingImageRepository) *UploadService {
	return &UploadService{
		storage: storage,
		images:  images,
	}
}

// UploadImages 批量上传图片，顺序保持，整批成功或整批失败
// existingCount 为该草稿已有图片数，用于上限校验；上限校验在任何网络调用之前完成
func (s *UploadService) UploadImages(ctx context.Context, userID int64, files []ImageFile, folder string, existingCount int) ([]model.ListingImage, error) {
	if len(files) == 0 {
		return nil, nil
	}

	files = dedupFiles(files)

	if existingCount+len(files) > model.MaxPhotosPerListing {
		return nil, ErrTooManyImages
	}

	for _, f := range files {
		if len(f.Data) == 0 {
			return nil, ErrEmptyImage
		}
	}

	uploaded := make([]model.ListingImage, 0, len(files))
	for i, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(f.Data)
		}

		name := f.Name
		if name == "" {
			name = fmt.Sprintf("image_%d.jpg", i)
		}

		url, err := s.storage.Upload(ctx, f.Data, fmt.Sprintf("%s/%s", folder, name), contentType)
		if err != nil {
			// 整批作废：回收本批已上传的文件
			s.rollbackBatch(ctx, uploaded)
			return nil, &UploadError{Filename: name, Err: err}
		}

		uploaded = append(uploaded, model.ListingImage{
			UserID:       userID,
			URL:          url,
			OriginalName: name,
			Size:         int64(len(f.Data)),
			Mimetype:     contentType,
			ImageIndex:   existingCount + i,
		})
	}

	// 先以未归属状态落库，草稿创建成功后归属；
	// 落库失败不影响已上传文件，由孤儿清理任务兜底
	if err := s.images.CreateBatch(ctx, uploaded); err != nil {
		log.Printf("[Upload] 图片记录落库失败: %v", err)
	}

	return uploaded, nil
}

// rollbackBatch 尽力删除本批已上传的文件
func (s *UploadService) rollbackBatch(ctx context.Context, uploaded []model.ListingImage) {
	for _, img := range uploaded {
		if err := s.storage.Delete(ctx, img.URL); err != nil {
			log.Printf("[Upload] 回收失败批次文件失败: %s: %v", img.URL, err)
		}
	}
}

// dedupFiles 按文件名+大小去重，保持首次出现的顺序
func dedupFiles(files []ImageFile) []ImageFile {
	seen := make(map[string]bool, len(files))
	result := make([]ImageFile, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("%s:%d", f.Name, len(f.Data))
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, f)
	}
	return result
}
