package models

import "time"

// Image is one picture belonging to a project. In file mode ID is the file
// name on disk; database backends assign their own identifiers.
type Image struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId,omitempty"`
	Folder      string    `json:"folder"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	IsMain      bool      `json:"isMain"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ImageData is the raw payload of a stored image.
type ImageData struct {
	ContentType string
	Data        []byte
}

// Upload is an incoming image file. IsMain asks the store to make it the
// project's main image.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	IsMain      bool
}
