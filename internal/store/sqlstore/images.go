package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

// Images keeps image rows in project_images. Payloads live in the data column
// unless a blob store is configured, in which case only the blob path is
// recorded.
type Images struct {
	db    *sql.DB
	blobs store.BlobStore
	now   func() time.Time
}

// NewImages returns an image store over db. blobs may be nil.
func NewImages(db *sql.DB, blobs store.BlobStore) *Images {
	return &Images{db: db, blobs: blobs, now: time.Now}
}

func (s *Images) List(ctx context.Context, folder string) ([]models.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.project_id, i.filename, i.content_type, i.size, i.is_main, i.created_at
		FROM project_images i
		JOIN projects p ON p.id = i.project_id
		WHERE p.folder = $1
	`, folder)
	if err != nil {
		return nil, store.StorageError("list images", err)
	}
	defer rows.Close()

	images := make([]models.Image, 0)
	for rows.Next() {
		img := models.Image{Folder: folder}
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.Filename, &img.ContentType,
			&img.Size, &img.IsMain, &img.CreatedAt); err != nil {
			return nil, store.StorageError("list images", err)
		}
		img.Path = store.BlobLocator(img.ID)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, store.StorageError("list images", err)
	}

	store.SortImages(images)
	return images, nil
}

func (s *Images) Add(ctx context.Context, folder string, uploads []models.Upload) ([]models.Image, error) {
	const op = "add images"

	projectID, err := s.projectID(ctx, op, folder)
	if err != nil {
		return nil, err
	}

	for _, u := range uploads {
		if u.IsMain {
			if err := s.clearMain(ctx, projectID); err != nil {
				return nil, store.StorageError(op, err)
			}
			break
		}
	}

	added := make([]models.Image, 0, len(uploads))
	mainTaken := false
	for _, u := range uploads {
		img := models.Image{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			Folder:      folder,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Size:        int64(len(u.Data)),
			IsMain:      u.IsMain && !mainTaken,
			CreatedAt:   s.now().UTC(),
		}
		mainTaken = mainTaken || img.IsMain
		img.Path = store.BlobLocator(img.ID)

		var data any = u.Data
		storagePath := ""
		if s.blobs != nil {
			storagePath = path.Join("projects", folder, img.ID+"-"+u.Filename)
			if err := s.blobs.Upload(storagePath, u.ContentType, u.Data); err != nil {
				return nil, store.StorageError(op, err)
			}
			data = nil
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO project_images (id, project_id, filename, content_type, size, is_main, data, storage_path, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, img.ID, img.ProjectID, img.Filename, img.ContentType, img.Size, img.IsMain,
			data, storagePath, img.CreatedAt)
		if err != nil {
			s.removeBlobs(storagePath)
			return nil, store.StorageError(op, err)
		}
		added = append(added, img)
	}
	return added, nil
}

func (s *Images) Delete(ctx context.Context, folder, identifier string) error {
	const op = "delete image"

	img, err := s.match(ctx, op, folder, identifier)
	if err != nil {
		return err
	}

	var storagePath string
	err = s.db.QueryRowContext(ctx, `SELECT storage_path FROM project_images WHERE id = $1`, img.ID).Scan(&storagePath)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return store.StorageError(op, err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_images WHERE id = $1`, img.ID); err != nil {
		return store.StorageError(op, err)
	}
	s.removeBlobs(storagePath)
	return nil
}

func (s *Images) DeleteAll(ctx context.Context, folder string) error {
	const op = "delete images"

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.storage_path
		FROM project_images i
		JOIN projects p ON p.id = i.project_id
		WHERE p.folder = $1 AND i.storage_path <> ''
	`, folder)
	if err != nil {
		return store.StorageError(op, err)
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return store.StorageError(op, err)
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return store.StorageError(op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM project_images
		WHERE project_id IN (SELECT id FROM projects WHERE folder = $1)
	`, folder)
	if err != nil {
		return store.StorageError(op, err)
	}
	s.removeBlobs(paths...)
	return nil
}

// SetMain clears every main flag of the project and then sets the target's.
// The two statements are not transactional; a failure in between leaves no
// main image, which readers treat as "first image is main".
func (s *Images) SetMain(ctx context.Context, folder, identifier string) (*models.Image, error) {
	const op = "set main image"

	img, err := s.match(ctx, op, folder, identifier)
	if err != nil {
		return nil, err
	}

	if err := s.clearMain(ctx, img.ProjectID); err != nil {
		return nil, store.StorageError(op, err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE project_images SET is_main = $1 WHERE id = $2`, true, img.ID); err != nil {
		return nil, store.StorageError(op, err)
	}

	img.IsMain = true
	return &img, nil
}

func (s *Images) Data(ctx context.Context, id string) (*models.ImageData, error) {
	const op = "get image data"

	var (
		contentType string
		data        []byte
		storagePath string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT content_type, data, storage_path FROM project_images WHERE id = $1
	`, id).Scan(&contentType, &data, &storagePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFoundError(op, "image %s not found", id)
	}
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	if storagePath != "" {
		if s.blobs == nil {
			return nil, store.StorageError(op, fmt.Errorf("image %s is in blob storage but none is configured", id))
		}
		data, err = s.blobs.Download(storagePath)
		if err != nil {
			return nil, store.StorageError(op, err)
		}
	}
	return &models.ImageData{ContentType: contentType, Data: data}, nil
}

func (s *Images) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_images`).Scan(&count); err != nil {
		return 0, store.StorageError("count images", err)
	}
	return count, nil
}

func (s *Images) projectID(ctx context.Context, op, folder string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE folder = $1`, folder).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.NotFoundError(op, "no project uses folder %s", folder)
	}
	if err != nil {
		return "", store.StorageError(op, err)
	}
	return id, nil
}

func (s *Images) clearMain(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE project_images SET is_main = $1 WHERE project_id = $2 AND is_main = $3
	`, false, projectID, true)
	return err
}

func (s *Images) match(ctx context.Context, op, folder, identifier string) (models.Image, error) {
	images, err := s.List(ctx, folder)
	if err != nil {
		return models.Image{}, err
	}
	img, ok := store.MatchImage(images, identifier)
	if !ok {
		return models.Image{}, store.NotFoundError(op, "image %s not found in %s", identifier, folder)
	}
	return img, nil
}

// removeBlobs deletes blob objects best-effort; failures are only logged.
func (s *Images) removeBlobs(paths ...string) {
	if s.blobs == nil {
		return
	}
	var keep []string
	for _, p := range paths {
		if p != "" {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := s.blobs.Remove(keep...); err != nil {
		log.Printf("Warning: failed to remove %d blob(s) from %s: %v", len(keep), s.blobs.Name(), err)
	}
}
