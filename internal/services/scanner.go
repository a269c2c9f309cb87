package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
)

// DefaultScanExclude names image folders that never become projects.
var DefaultScanExclude = []string{"myPics", "Sai Manikanta Construction"}

// Scanner registers image folders that exist on disk but have no project.
type Scanner struct {
	backend *store.Backend
	disk    *filestore.Images
	exclude map[string]bool
	now     func() time.Time
}

func NewScanner(backend *store.Backend, disk *filestore.Images, exclude []string) *Scanner {
	set := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		set[name] = true
	}
	return &Scanner{
		backend: backend,
		disk:    disk,
		exclude: set,
		now:     time.Now,
	}
}

// Scan creates a minimal project for every unregistered folder holding at
// least one image and returns the folders it added. When the active image
// store has nothing for a new folder, the files found on disk are copied in.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	folders, err := s.disk.Folders()
	if err != nil {
		return nil, err
	}

	projects, err := s.backend.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	registered := make(map[string]bool, len(projects))
	for _, p := range projects {
		registered[p.Folder] = true
	}

	added := []string{}
	for _, folder := range folders {
		if s.exclude[folder] || registered[folder] || !store.ValidFolder(folder) {
			continue
		}

		images, err := s.disk.List(ctx, folder)
		if err != nil {
			return added, err
		}
		if len(images) == 0 {
			continue
		}

		now := s.now().UTC()
		_, err = s.backend.Projects.Create(ctx, models.Project{
			ID:        fmt.Sprintf("scan-%d-%s", now.UnixMilli(), folder),
			Name:      FolderTitle(folder),
			Category:  models.CategoryComplete,
			Folder:    folder,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return added, err
		}

		if err := s.copyImages(ctx, folder, images); err != nil {
			log.Printf("Warning: scanned folder %s registered without images: %v", folder, err)
		}
		added = append(added, folder)
	}
	return added, nil
}

func (s *Scanner) copyImages(ctx context.Context, folder string, images []models.Image) error {
	stored, err := s.backend.Images.List(ctx, folder)
	if err != nil {
		return err
	}
	if len(stored) > 0 {
		return nil
	}
	_, err = copyFromDisk(ctx, s.disk, s.backend.Images, folder, images)
	return err
}

// FolderTitle turns a folder name into a display name: "-" and "_" become
// spaces and every word starts with a capital letter.
func FolderTitle(folder string) string {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(folder)
	return cases.Title(language.Und, cases.NoLower).String(name)
}

// copyFromDisk reads images from disk and adds them to dst, keeping the main
// image of the folder as the main one. images must be ordered main first.
func copyFromDisk(ctx context.Context, disk *filestore.Images, dst store.ImageStore, folder string, images []models.Image) (int, error) {
	uploads := make([]models.Upload, 0, len(images))
	for i, img := range images {
		data, err := disk.Read(ctx, folder, img.ID)
		if err != nil {
			return 0, err
		}
		uploads = append(uploads, models.Upload{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Data:        data.Data,
			IsMain:      i == 0,
		})
	}
	added, err := dst.Add(ctx, folder, uploads)
	if err != nil {
		return 0, err
	}
	return len(added), nil
}
