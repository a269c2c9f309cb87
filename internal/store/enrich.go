package store

import "portfolio-backend/internal/models"

// Enrich fills the derived images and mainImage fields of p from the images
// actually stored for it. Whatever p carried before is discarded.
func Enrich(p models.Project, images []models.Image) models.Project {
	p.Images = make([]string, 0, len(images))
	for _, img := range images {
		p.Images = append(p.Images, img.Path)
	}

	p.MainImage = ""
	if main, ok := MainOf(images); ok {
		p.MainImage = main.Path
	}
	return p
}
