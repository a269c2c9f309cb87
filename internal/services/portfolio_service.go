package services

import (
	"context"
	"log"
	"strings"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

const (
	// MaxCreateFiles bounds the images accepted together with a new project.
	MaxCreateFiles = 10
	// MaxUploadFiles bounds the images accepted by one upload request.
	MaxUploadFiles = 20
)

// PortfolioService implements the project and image operations once, against
// whichever backend was selected at startup.
type PortfolioService struct {
	backend *store.Backend
	policy  store.UploadPolicy
}

func NewPortfolioService(backend *store.Backend, policy store.UploadPolicy) *PortfolioService {
	return &PortfolioService{
		backend: backend,
		policy:  policy,
	}
}

func (s *PortfolioService) Backend() *store.Backend {
	return s.backend
}

// ListProjects returns every project in creation order, each enriched with
// its current images.
func (s *PortfolioService) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.backend.Projects.List(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		e, err := s.enrich(ctx, p)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

// CreateProject validates fields and files, stores the record and then the
// images, the first one flagged main. If the images cannot be stored the
// record is removed again.
func (s *PortfolioService) CreateProject(ctx context.Context, fields models.ProjectFields, uploads []models.Upload) (*models.Project, error) {
	const op = "create project"

	p := fields.Project()
	switch {
	case p.Name == "" || p.Category == "" || p.Folder == "":
		return nil, store.ValidationError(op, "name, category and folder are required")
	case !models.ValidCategory(p.Category):
		return nil, store.ValidationError(op, "category must be %q or %q", models.CategoryComplete, models.CategoryRunning)
	case !store.ValidFolder(p.Folder):
		return nil, store.ValidationError(op, "folder %q must be a single path segment", p.Folder)
	case len(uploads) > MaxCreateFiles:
		return nil, store.ValidationError(op, "at most %d images can be uploaded with a new project", MaxCreateFiles)
	}
	if err := s.policy.Validate(op, uploads); err != nil {
		return nil, err
	}

	created, err := s.backend.Projects.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	for i := range uploads {
		uploads[i].IsMain = i == 0
	}
	if _, err := s.backend.Images.Add(ctx, created.Folder, uploads); err != nil {
		s.rollback(ctx, created)
		return nil, store.StorageError(op, err)
	}

	e, err := s.enrich(ctx, *created)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PortfolioService) rollback(ctx context.Context, p *models.Project) {
	if err := s.backend.Images.DeleteAll(ctx, p.Folder); err != nil {
		log.Printf("Warning: failed to remove images of %s after failed create: %v", p.Folder, err)
	}
	if err := s.backend.Projects.Delete(ctx, p.ID); err != nil {
		log.Printf("Warning: failed to remove project %s after failed create: %v", p.ID, err)
	}
}

func (s *PortfolioService) UpdateProject(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	if upd.Category != nil {
		c := strings.TrimSpace(*upd.Category)
		if c != "" && !models.ValidCategory(c) {
			return nil, store.ValidationError("update project", "category must be %q or %q", models.CategoryComplete, models.CategoryRunning)
		}
		upd.Category = &c
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}

	p, err := s.backend.Projects.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	e, err := s.enrich(ctx, *p)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteProject removes the images of the project, then the record.
func (s *PortfolioService) DeleteProject(ctx context.Context, id string) error {
	p, err := s.backend.Projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.Images.DeleteAll(ctx, p.Folder); err != nil {
		return err
	}
	return s.backend.Projects.Delete(ctx, id)
}

// DeleteProjectByFolder removes every project using folder together with the
// folder's images. A folder nobody uses is not an error.
func (s *PortfolioService) DeleteProjectByFolder(ctx context.Context, folder string) (int, error) {
	if err := s.backend.Images.DeleteAll(ctx, folder); err != nil {
		return 0, err
	}
	return s.backend.Projects.DeleteByFolder(ctx, folder)
}

func (s *PortfolioService) ListImages(ctx context.Context, folder string) ([]models.Image, error) {
	return s.backend.Images.List(ctx, folder)
}

// UploadImages adds images to folder. None of them becomes the main image.
func (s *PortfolioService) UploadImages(ctx context.Context, folder string, uploads []models.Upload) ([]models.Image, error) {
	const op = "upload images"

	if !store.ValidFolder(folder) {
		return nil, store.ValidationError(op, "invalid folder name %q", folder)
	}
	if len(uploads) > MaxUploadFiles {
		return nil, store.ValidationError(op, "at most %d images can be uploaded at once", MaxUploadFiles)
	}
	if err := s.policy.Validate(op, uploads); err != nil {
		return nil, err
	}
	for i := range uploads {
		uploads[i].IsMain = false
	}
	return s.backend.Images.Add(ctx, folder, uploads)
}

func (s *PortfolioService) DeleteImage(ctx context.Context, folder, identifier string) error {
	return s.backend.Images.Delete(ctx, folder, identifier)
}

// SetMainImage makes the addressed image the main one and returns its locator.
func (s *PortfolioService) SetMainImage(ctx context.Context, folder, identifier string) (string, error) {
	img, err := s.backend.Images.SetMain(ctx, folder, identifier)
	if err != nil {
		return "", err
	}
	return img.Path, nil
}

func (s *PortfolioService) ImageData(ctx context.Context, id string) (*models.ImageData, error) {
	return s.backend.Images.Data(ctx, id)
}

func (s *PortfolioService) CountImages(ctx context.Context) (int, error) {
	return s.backend.Images.Count(ctx)
}

func (s *PortfolioService) enrich(ctx context.Context, p models.Project) (models.Project, error) {
	images, err := s.backend.Images.List(ctx, p.Folder)
	if err != nil {
		return models.Project{}, err
	}
	return store.Enrich(p, images), nil
}
