// Package filestore keeps projects in a single JSON document and their images
// in one directory per project folder.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

// Timestamps are written the way browsers print Date.toISOString.
const isoTime = "2006-01-02T15:04:05.000Z07:00"

type document struct {
	Projects []record `json:"projects"`
}

type record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Folder      string `json:"folder"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	Client      string `json:"client"`
	Duration    string `json:"duration"`
	Area        string `json:"area"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Projects stores project records in a JSON file of the form
// {"projects": [...]}. Writes from this process are serialized; writers in
// other processes still race (last write wins).
type Projects struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewProjects opens the project file at path, creating an empty one if it does
// not exist yet.
func NewProjects(path string) (*Projects, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}

	s := &Projects{path: path, now: time.Now}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.save(&document{}); err != nil {
			return nil, fmt.Errorf("failed to initialize projects file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat projects file: %w", err)
	}
	return s, nil
}

func (s *Projects) List(ctx context.Context) ([]models.Project, error) {
	doc, err := s.load()
	if err != nil {
		return nil, store.StorageError("list projects", err)
	}

	projects := make([]models.Project, 0, len(doc.Projects))
	for _, r := range doc.Projects {
		projects = append(projects, r.project())
	}
	return projects, nil
}

func (s *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.find("get project", func(r record) bool { return r.ID == id }, "project %s not found", id)
}

func (s *Projects) GetByFolder(ctx context.Context, folder string) (*models.Project, error) {
	return s.find("get project", func(r record) bool { return r.Folder == folder }, "no project uses folder %s", folder)
}

func (s *Projects) find(op string, match func(record) bool, format string, arg string) (*models.Project, error) {
	doc, err := s.load()
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	for _, r := range doc.Projects {
		if match(r) {
			p := r.project()
			return &p, nil
		}
	}
	return nil, store.NotFoundError(op, format, arg)
}

func (s *Projects) Create(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "create project"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	for _, r := range doc.Projects {
		if r.Folder == p.Folder {
			return nil, store.ValidationError(op, "folder %s is already used by project %s", p.Folder, r.ID)
		}
	}

	now := s.now().UTC()
	if p.ID == "" {
		p.ID = nextID(doc, now)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	doc.Projects = append(doc.Projects, newRecord(p))
	if err := s.save(doc); err != nil {
		return nil, store.StorageError(op, err)
	}

	p.Images, p.MainImage = nil, ""
	return &p, nil
}

func (s *Projects) Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	const op = "update project"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	for i, r := range doc.Projects {
		if r.ID != id {
			continue
		}
		p := r.project()
		upd.Apply(&p)
		p.UpdatedAt = s.now().UTC()
		doc.Projects[i] = newRecord(p)

		if err := s.save(doc); err != nil {
			return nil, store.StorageError(op, err)
		}
		return &p, nil
	}
	return nil, store.NotFoundError(op, "project %s not found", id)
}

func (s *Projects) Delete(ctx context.Context, id string) error {
	const op = "delete project"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return store.StorageError(op, err)
	}

	for i, r := range doc.Projects {
		if r.ID == id {
			doc.Projects = append(doc.Projects[:i], doc.Projects[i+1:]...)
			return store.StorageError(op, s.save(doc))
		}
	}
	return store.NotFoundError(op, "project %s not found", id)
}

func (s *Projects) DeleteByFolder(ctx context.Context, folder string) (int, error) {
	const op = "delete project by folder"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, store.StorageError(op, err)
	}

	kept := doc.Projects[:0]
	for _, r := range doc.Projects {
		if r.Folder != folder {
			kept = append(kept, r)
		}
	}
	removed := len(doc.Projects) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	doc.Projects = kept
	if err := s.save(doc); err != nil {
		return 0, store.StorageError(op, err)
	}
	return removed, nil
}

func (s *Projects) Count(ctx context.Context) (int, error) {
	doc, err := s.load()
	if err != nil {
		return 0, store.StorageError("count projects", err)
	}
	return len(doc.Projects), nil
}

func (s *Projects) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read projects file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse projects file: %w", err)
	}
	return &doc, nil
}

// save replaces the project file atomically.
func (s *Projects) save(doc *document) error {
	if doc.Projects == nil {
		doc.Projects = []record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".projects-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write projects: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write projects: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace projects file: %w", err)
	}
	return nil
}

// nextID derives an ID from the creation time in milliseconds, bumped until it
// is unique within the document.
func nextID(doc *document, now time.Time) string {
	taken := make(map[string]bool, len(doc.Projects))
	for _, r := range doc.Projects {
		taken[r.ID] = true
	}
	ms := now.UnixMilli()
	for taken[strconv.FormatInt(ms, 10)] {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}

func newRecord(p models.Project) record {
	return record{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Folder:      p.Folder,
		Location:    p.Location,
		Status:      p.Status,
		Client:      p.Client,
		Duration:    p.Duration,
		Area:        p.Area,
		Type:        p.Type,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func (r record) project() models.Project {
	return models.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Folder:      r.Folder,
		Location:    r.Location,
		Status:      r.Status,
		Client:      r.Client,
		Duration:    r.Duration,
		Area:        r.Area,
		Type:        r.Type,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoTime)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
