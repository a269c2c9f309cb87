package store

import (
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"portfolio-backend/internal/models"
)

const DefaultMaxUploadSize int64 = 10 << 20

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadPolicy bounds what can be stored as a project image.
type UploadPolicy struct {
	MaxSize int64
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{MaxSize: DefaultMaxUploadSize}
}

// Validate rejects an empty batch and any file that is too large or not an
// allowed image type. The filename must carry an image extension and the
// sniffed content must be an image. On success each upload's Filename is
// reduced to its base name and ContentType is set to the sniffed type.
func (p UploadPolicy) Validate(op string, uploads []models.Upload) error {
	if len(uploads) == 0 {
		return ValidationError(op, "no images uploaded")
	}

	for i := range uploads {
		u := &uploads[i]
		u.Filename = filepath.Base(filepath.Clean("/" + u.Filename))
		if u.Filename == "/" || u.Filename == "." {
			return ValidationError(op, "image %d has no filename", i+1)
		}
		if p.MaxSize > 0 && int64(len(u.Data)) > p.MaxSize {
			return ValidationError(op, "%s exceeds the %d byte limit", u.Filename, p.MaxSize)
		}
		if !IsImageFile(u.Filename) {
			return ValidationError(op, "%s: only image files are allowed", u.Filename)
		}
		contentType, ok := SniffImage(u.Data)
		if !ok {
			return ValidationError(op, "%s: only image files are allowed", u.Filename)
		}
		u.ContentType = contentType
	}
	return nil
}

// SniffImage detects the content type of data and reports whether it is one
// of the allowed image types.
func SniffImage(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if allowedContentTypes[m.String()] {
			return m.String(), true
		}
	}
	return detected.String(), false
}
