// Package media stores article cover images on a media host and returns their public URLs.
package media

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"inkwell/internal/models"
)

// DefaultMaxUploadMB applies when no limit is configured.
const DefaultMaxUploadMB = 10

// File is an uploaded image held in memory.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Host uploads images and deletes them by URL.
type Host interface {
	Upload(ctx context.Context, file File) (string, error)
	Delete(ctx context.Context, url string) error
}

// validate rejects empty, oversized and non-image uploads.
func validate(file File, maxBytes int64) error {
	if len(file.Content) == 0 {
		return models.NewValidationError("No file uploaded", models.FieldError{Field: "imageFile", Message: "required"})
	}
	if maxBytes > 0 && int64(len(file.Content)) > maxBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(file.Content)) {
		return models.NewValidationError("Invalid image type")
	}
	return nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func maxBytes(mb int) int64 {
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) * 1024 * 1024
}
