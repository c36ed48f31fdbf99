package handler

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/service"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var uploadFolders = map[string]bool{
	"listings": true,
	"profiles": true,
}

type UploadHandler struct {
	blobs       service.BlobStore
	maxFileSize int64
}

func NewUploadHandler(blobs service.BlobStore) *UploadHandler {
	return &UploadHandler{
		blobs:       blobs,
		maxFileSize: 5 * 1024 * 1024,
	}
}

// UploadImage stores a listing image or profile photo and returns its URL.
// Objects land under <folder>/<uid>/<uuid><ext>.
func (h *UploadHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get("Content-Type")
	ext, ok := imageExtensions[contentType]
	if !ok {
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	folder := c.FormValue("folder")
	if folder == "" {
		folder = "listings"
	}
	if !uploadFolders[folder] {
		return response.Error(c, errors.Validation("folder must be one of: listings profiles"))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	if int64(len(data)) > h.maxFileSize {
		return response.Error(c, errors.BadRequest("File size exceeds maximum allowed", nil))
	}

	uid := middleware.ActorFrom(c).ID
	path := fmt.Sprintf("%s/%s/%s%s", folder, uid, uuid.New().String(), ext)

	url, err := h.blobs.Store(c.Request().Context(), data, path, contentType)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}
	logger.Debug("Stored %d bytes for %s at %s", len(data), uid, path)

	return response.Created(c, map[string]interface{}{
		"url":      url,
		"path":     path,
		"size":     len(data),
		"filename": file.Filename,
	})
}
