package services

import (
	"context"
	"log"

	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
)

// SeedSummary reports what a seeding run copied.
type SeedSummary struct {
	Projects int
	Images   int
	Failed   []string
	Skipped  bool
}

// Seeder copies the legacy project file and image folders into an empty
// database.
type Seeder struct {
	backend  *store.Backend
	projects *filestore.Projects
	disk     *filestore.Images
}

func NewSeeder(backend *store.Backend, projects *filestore.Projects, disk *filestore.Images) *Seeder {
	return &Seeder{
		backend:  backend,
		projects: projects,
		disk:     disk,
	}
}

// Seed runs only in database mode and only while the database holds no
// project. A project that cannot be copied is logged and skipped.
func (s *Seeder) Seed(ctx context.Context) (*SeedSummary, error) {
	summary := &SeedSummary{}
	if !s.backend.Connected() {
		summary.Skipped = true
		return summary, nil
	}

	count, err := s.backend.Projects.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		summary.Skipped = true
		return summary, nil
	}

	legacy, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range legacy {
		p.ID = ""
		p.Images, p.MainImage = nil, ""
		if _, err := s.backend.Projects.Create(ctx, p); err != nil {
			log.Printf("Warning: failed to seed project %s: %v", p.Folder, err)
			summary.Failed = append(summary.Failed, p.Folder)
			continue
		}
		summary.Projects++

		images, err := s.disk.List(ctx, p.Folder)
		if err != nil {
			log.Printf("Warning: failed to read images of %s: %v", p.Folder, err)
			summary.Failed = append(summary.Failed, p.Folder)
			continue
		}
		if len(images) == 0 {
			continue
		}
		n, err := copyFromDisk(ctx, s.disk, s.backend.Images, p.Folder, images)
		if err != nil {
			log.Printf("Warning: failed to seed images of %s: %v", p.Folder, err)
			summary.Failed = append(summary.Failed, p.Folder)
			continue
		}
		summary.Images += n
	}

	log.Printf("Seeded %d project(s) and %d image(s) into the database (%d failed)",
		summary.Projects, summary.Images, len(summary.Failed))
	return summary, nil
}
