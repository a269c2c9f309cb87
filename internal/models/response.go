package models

type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

type ProjectResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Project *Project `json:"project"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ScanResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Added   []string `json:"added"`
}

type ImageResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	IsMain   bool   `json:"isMain"`
}

type ImagesResponse struct {
	Images []ImageResponse `json:"images"`
}

type UploadImagesResponse struct {
	Success bool            `json:"success"`
	Images  []ImageResponse `json:"images"`
}

type SetMainResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MainImage string `json:"mainImage"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Database     string `json:"database"`
	Driver       string `json:"driver,omitempty"`
	ImageStorage string `json:"imageStorage,omitempty"`
	ImageCount   *int   `json:"imageCount,omitempty"`
}

// NewImageResponse converts a stored image into its API shape.
func NewImageResponse(img Image) ImageResponse {
	return ImageResponse{
		ID:       img.ID,
		Filename: img.Filename,
		Path:     img.Path,
		IsMain:   img.IsMain,
	}
}

// NewImageResponses converts a list of images, never returning nil.
func NewImageResponses(images []Image) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, NewImageResponse(img))
	}
	return out
}
