package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

// mainPrefix marks the main image of a folder on disk: the main image of
// "front.jpg" is stored as "main.front.jpg". Older folders hold a bare
// "main.jpg", which is recognized as well.
const mainPrefix = "main."

// Images keeps the images of each project under <root>/<folder>/<file>.
type Images struct {
	root   string
	mu     sync.Mutex
	remove func(name string) error
}

func NewImages(root string) (*Images, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &Images{root: root, remove: os.Remove}, nil
}

func (s *Images) List(ctx context.Context, folder string) ([]models.Image, error) {
	images, err := s.list(folder)
	if err != nil {
		return nil, store.StorageError("list images", err)
	}
	return images, nil
}

func (s *Images) list(folder string) ([]models.Image, error) {
	if !store.ValidFolder(folder) {
		return []models.Image{}, nil
	}

	entries, err := os.ReadDir(filepath.Join(s.root, folder))
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Image{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	images := make([]models.Image, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !store.IsImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		images = append(images, newImage(folder, entry.Name(), info))
	}

	store.SortImages(images)
	return images, nil
}

// Folders lists the subdirectories of the images root.
func (s *Images) Folders() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.StorageError("list folders", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	return folders, nil
}

func (s *Images) Add(ctx context.Context, folder string, uploads []models.Upload) ([]models.Image, error) {
	const op = "add images"
	if !store.ValidFolder(folder) {
		return nil, store.ValidationError(op, "invalid folder name %q", folder)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, store.StorageError(op, err)
	}

	for _, u := range uploads {
		if u.IsMain {
			if err := demote(dir, ""); err != nil {
				return nil, store.StorageError(op, err)
			}
			break
		}
	}

	added := make([]models.Image, 0, len(uploads))
	mainTaken := false
	for _, u := range uploads {
		isMain := u.IsMain && !mainTaken
		mainTaken = mainTaken || isMain

		name := uniqueName(dir, u.Filename, isMain, "")
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, u.Data, 0644); err != nil {
			return nil, store.StorageError(op, fmt.Errorf("failed to write %s: %w", name, err))
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, store.StorageError(op, err)
		}
		added = append(added, newImage(folder, name, info))
	}
	return added, nil
}

func (s *Images) Delete(ctx context.Context, folder, identifier string) error {
	const op = "delete image"

	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.match(op, folder, identifier)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, folder, img.ID)); err != nil {
		return store.StorageError(op, err)
	}
	return nil
}

// DeleteAll removes the image files of folder and then the folder itself.
// Removal failures are logged and otherwise ignored.
func (s *Images) DeleteAll(ctx context.Context, folder string) error {
	const op = "delete images"
	if !store.ValidFolder(folder) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := s.list(folder)
	if err != nil {
		return store.StorageError(op, err)
	}

	dir := filepath.Join(s.root, folder)
	for _, img := range images {
		if err := s.remove(filepath.Join(dir, img.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: failed to remove image %s: %v", filepath.Join(dir, img.ID), err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		log.Printf("Warning: failed to remove folder %s: %v", dir, err)
	}
	return nil
}

func (s *Images) SetMain(ctx context.Context, folder, identifier string) (*models.Image, error) {
	const op = "set main image"

	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.match(op, folder, identifier)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, folder)
	if err := demote(dir, img.ID); err != nil {
		return nil, store.StorageError(op, err)
	}

	name := img.ID
	if !isMainName(name) {
		name = uniqueName(dir, img.Filename, true, name)
		if err := os.Rename(filepath.Join(dir, img.ID), filepath.Join(dir, name)); err != nil {
			return nil, store.StorageError(op, err)
		}
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	main := newImage(folder, name, info)
	return &main, nil
}

// Data is not served by the disk store: images are exposed as static files.
func (s *Images) Data(ctx context.Context, id string) (*models.ImageData, error) {
	return nil, store.NotFoundError("get image data", "image %s is not held by the database", id)
}

// Read returns the payload of one image in folder.
func (s *Images) Read(ctx context.Context, folder, identifier string) (*models.ImageData, error) {
	const op = "read image"

	img, err := s.match(op, folder, identifier)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, folder, img.ID))
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	return &models.ImageData{ContentType: img.ContentType, Data: data}, nil
}

func (s *Images) Count(ctx context.Context) (int, error) {
	folders, err := s.Folders()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, folder := range folders {
		images, err := s.list(folder)
		if err != nil {
			return 0, store.StorageError("count images", err)
		}
		total += len(images)
	}
	return total, nil
}

func (s *Images) match(op, folder, identifier string) (models.Image, error) {
	images, err := s.list(folder)
	if err != nil {
		return models.Image{}, store.StorageError(op, err)
	}
	img, ok := store.MatchImage(images, identifier)
	if !ok {
		return models.Image{}, store.NotFoundError(op, "image %s not found in %s", identifier, folder)
	}
	return img, nil
}

// demote renames every main image in dir except keep back to its plain name.
func demote(dir, keep string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == keep || !entry.Type().IsRegular() || !isMainName(name) || !store.IsImageFile(name) {
			continue
		}

		target := uniqueName(dir, logicalName(name), false, name)
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, target)); err != nil {
			return fmt.Errorf("failed to demote %s: %w", name, err)
		}
	}
	return nil
}

// uniqueName picks the on-disk name for an image called logical, suffixing
// "-1", "-2", ... until neither the plain nor the main variant is taken by a
// file other than self. A non-main image never gets a name carrying the main
// marker: "main.jpg" becomes "former-main.jpg".
func uniqueName(dir, logical string, main bool, self string) string {
	if !main && isMainName(logical) {
		logical = "former-" + logical
	}

	taken := func(name string) bool {
		if name == self {
			return false
		}
		_, err := os.Lstat(filepath.Join(dir, name))
		return err == nil
	}

	ext := filepath.Ext(logical)
	base := strings.TrimSuffix(logical, ext)
	candidate := logical
	for i := 1; taken(candidate) || taken(mainPrefix+candidate); i++ {
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	if main {
		return mainPrefix + candidate
	}
	return candidate
}

func isMainName(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), mainPrefix)
}

// logicalName strips the main marker from name. A bare "main.jpg" has no
// other name and is returned unchanged.
func logicalName(name string) string {
	if !isMainName(name) {
		return name
	}
	rest := name[len(mainPrefix):]
	if store.IsImageFile(rest) {
		return rest
	}
	return name
}

func newImage(folder, name string, info fs.FileInfo) models.Image {
	return models.Image{
		ID:          name,
		Folder:      folder,
		Filename:    logicalName(name),
		ContentType: store.ContentTypeFor(name),
		Size:        info.Size(),
		IsMain:      isMainName(name),
		Path:        store.FileLocator(folder, name),
		CreatedAt:   info.ModTime(),
	}
}
