package store

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"portfolio-backend/internal/models"
)

// ImageRoute is the URL prefix under which database-held images are served.
const ImageRoute = "/api/images/"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// IsImageFile reports whether name has one of the recognized image extensions.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ContentTypeFor guesses the content type of an image from its extension.
func ContentTypeFor(name string) string {
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// FileLocator is the relative path of an image under the images root.
func FileLocator(folder, filename string) string {
	return path.Join("img", folder, filename)
}

// BlobLocator is the retrieval endpoint of an image held by a database backend.
func BlobLocator(id string) string {
	return ImageRoute + id
}

// SortImages orders images main first, then by filename, then by ID.
func SortImages(images []models.Image) {
	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if a.IsMain != b.IsMain {
			return a.IsMain
		}
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.ID < b.ID
	})
}

// MatchImage finds the image addressed by identifier: an exact ID match wins,
// otherwise the first image whose filename equals identifier.
func MatchImage(images []models.Image, identifier string) (models.Image, bool) {
	for _, img := range images {
		if img.ID == identifier {
			return img, true
		}
	}
	for _, img := range images {
		if img.Filename == identifier {
			return img, true
		}
	}
	return models.Image{}, false
}

// MainOf returns the flagged main image, or the first image when none is
// flagged. The second result is false for an empty list.
func MainOf(images []models.Image) (models.Image, bool) {
	for _, img := range images {
		if img.IsMain {
			return img, true
		}
	}
	if len(images) > 0 {
		return images[0], true
	}
	return models.Image{}, false
}

// ValidFolder reports whether folder can be used as a project folder: a single
// non-empty path segment.
func ValidFolder(folder string) bool {
	if folder == "" || folder == "." || folder == ".." {
		return false
	}
	return !strings.ContainsAny(folder, `/\`) && !strings.ContainsRune(folder, 0)
}
