// Package store defines the persistence contract shared by every backend:
// project records, per-project image collections, and the rules that keep
// them consistent (main image selection, ordering, enrichment).
package store

import (
	"context"
	"errors"

	"portfolio-backend/internal/models"
)

// ProjectStore persists project records. Implementations never store the
// derived images/mainImage fields.
type ProjectStore interface {
	// List returns every project in creation order.
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	GetByFolder(ctx context.Context, folder string) (*models.Project, error)
	// Create stores p, assigning an ID and timestamps when they are empty.
	// A folder that is already taken yields a validation error.
	Create(ctx context.Context, p models.Project) (*models.Project, error)
	Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	// DeleteByFolder removes every record using folder and reports how many
	// were removed. Zero matches is not an error.
	DeleteByFolder(ctx context.Context, folder string) (int, error)
	Count(ctx context.Context) (int, error)
}

// ImageStore persists the images of each project, keyed by project folder.
type ImageStore interface {
	// List returns the images of folder, main image first. Unknown folders
	// yield an empty list.
	List(ctx context.Context, folder string) ([]models.Image, error)
	// Add stores uploads. If one of them is flagged IsMain the existing main
	// flag is cleared first.
	Add(ctx context.Context, folder string, uploads []models.Upload) ([]models.Image, error)
	// Delete removes the image matching identifier (ID first, then filename).
	Delete(ctx context.Context, folder, identifier string) error
	// DeleteAll removes every image of folder, plus the folder itself where
	// the backend keeps one.
	DeleteAll(ctx context.Context, folder string) error
	SetMain(ctx context.Context, folder, identifier string) (*models.Image, error)
	// Data returns the payload of an image addressed by its global ID.
	Data(ctx context.Context, id string) (*models.ImageData, error)
	Count(ctx context.Context) (int, error)
}

// BlobStore keeps image payloads outside the database.
type BlobStore interface {
	Name() string
	Upload(path, contentType string, data []byte) error
	Download(path string) ([]byte, error)
	Remove(paths ...string) error
}

type Mode string

const (
	ModeFile     Mode = "file"
	ModeDatabase Mode = "database"
)

// Backend is the storage pair selected at startup. It does not change for the
// lifetime of the process.
type Backend struct {
	Mode         Mode
	Driver       string
	ImageStorage string
	Projects     ProjectStore
	Images       ImageStore

	closers []func() error
}

// OnClose registers fn to run when the backend is closed, in reverse order.
func (b *Backend) OnClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// Connected reports whether a database connection backs this process.
func (b *Backend) Connected() bool {
	return b.Mode == ModeDatabase
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
