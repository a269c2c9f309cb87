// Package sqlstore keeps projects and images in a SQL database. Queries use
// $n placeholders and portable types so the same code runs on Postgres
// (lib/pq) and SQLite (go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"
)

const projectColumns = `id, name, description, category, folder, location, status, client, duration, area, type, created_at, updated_at`

type Projects struct {
	db  *sql.DB
	now func() time.Time
}

func NewProjects(db *sql.DB) *Projects {
	return &Projects{db: db, now: time.Now}
}

func (s *Projects) List(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, store.StorageError("list projects", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, store.StorageError("list projects", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.StorageError("list projects", err)
	}
	return projects, nil
}

func (s *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFoundError("get project", "project %s not found", id)
	}
	if err != nil {
		return nil, store.StorageError("get project", err)
	}
	return p, nil
}

func (s *Projects) GetByFolder(ctx context.Context, folder string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE folder = $1`, folder)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFoundError("get project", "no project uses folder %s", folder)
	}
	if err != nil {
		return nil, store.StorageError("get project", err)
	}
	return p, nil
}

func (s *Projects) Create(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "create project"

	if _, err := s.GetByFolder(ctx, p.Folder); err == nil {
		return nil, store.ValidationError(op, "folder %s is already used by another project", p.Folder)
	} else if !store.IsNotFound(err) {
		return nil, err
	}

	now := s.now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.Name, p.Description, p.Category, p.Folder, p.Location, p.Status,
		p.Client, p.Duration, p.Area, p.Type, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return nil, store.ValidationError(op, "folder %s is already used by another project", p.Folder)
	}
	if err != nil {
		return nil, store.StorageError(op, err)
	}

	p.Images, p.MainImage = nil, ""
	return &p, nil
}

func (s *Projects) Update(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	const op = "update project"

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(p)
	p.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, description = $2, category = $3, location = $4, status = $5,
			client = $6, duration = $7, area = $8, type = $9, updated_at = $10
		WHERE id = $11
	`, p.Name, p.Description, p.Category, p.Location, p.Status,
		p.Client, p.Duration, p.Area, p.Type, p.UpdatedAt, id)
	if err != nil {
		return nil, store.StorageError(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, store.NotFoundError(op, "project %s not found", id)
	}
	return p, nil
}

func (s *Projects) Delete(ctx context.Context, id string) error {
	const op = "delete project"

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return store.StorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.StorageError(op, err)
	}
	if n == 0 {
		return store.NotFoundError(op, "project %s not found", id)
	}
	return nil
}

func (s *Projects) DeleteByFolder(ctx context.Context, folder string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE folder = $1`, folder)
	if err != nil {
		return 0, store.StorageError("delete project by folder", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, store.StorageError("delete project by folder", err)
	}
	return int(n), nil
}

func (s *Projects) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, store.StorageError("count projects", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Folder, &p.Location,
		&p.Status, &p.Client, &p.Duration, &p.Area, &p.Type, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
