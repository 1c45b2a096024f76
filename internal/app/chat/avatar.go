package chat

import (
	"path/filepath"
	"strings"
	"time"

	"minichat/internal/pkg/errs"
)

const (
	// MaxAvatarSizeMB is the maximum allowed avatar file size in megabytes.
	MaxAvatarSizeMB = 2

	// MaxAvatarSize is the maximum allowed avatar file size in bytes.
	MaxAvatarSize = MaxAvatarSizeMB * 1024 * 1024

	// PresignedURLDuration is the fixed duration for which an upload URL is valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedAvatarMIMETypes defines the set of permitted MIME types for avatar images.
var AllowedAvatarMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// avatarExtToMIME maps file extensions to their corresponding MIME types.
var avatarExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ValidateAvatarSize checks if the provided file size is within acceptable limits.
func ValidateAvatarSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAvatarSize {
		return errs.NewError(errs.ErrAvatarSizeInvalid)
	}

	return nil
}

// ValidateAvatarType checks if the provided file name and MIME type are allowed
// and consistent with each other.
func ValidateAvatarType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedAvatarMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrAvatarTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrAvatarTypeInvalid)
	}

	expectedMIME, ok := avatarExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrAvatarTypeInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrAvatarTypeInvalid)
	}

	return nil
}
