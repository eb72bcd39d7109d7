package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"renovation-quote/internal/domain"
)

// ErrProjectNotFound is returned by GetProject for an unknown ID.
var ErrProjectNotFound = errors.New("repository: project not found")

// OpenPostgres opens a pooled connection to the project database.
func OpenPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("repository: database URL must not be empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// ProjectStore persists renovation projects and their images.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) (*ProjectStore, error) {
	if db == nil {
		return nil, errors.New("repository: db must not be nil")
	}
	return &ProjectStore{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS renovation_projects (
	id                 UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
	renovation_type    TEXT        NOT NULL,
	initial_prompt     TEXT        NOT NULL,
	min_price          INTEGER,
	max_price          INTEGER,
	interest_level     TEXT        NOT NULL,
	estimated_timeline TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS project_images (
	id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID        NOT NULL REFERENCES renovation_projects(id),
	image_url  TEXT        NOT NULL,
	image_type TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_project_images_project ON project_images(project_id);
`

// Migrate creates the project tables if they do not exist.
func (s *ProjectStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("repository: migrate: %w", err)
	}
	return nil
}

// InsertProject stores p and returns it with the generated ID and creation time.
func (s *ProjectStore) InsertProject(ctx context.Context, p domain.RenovationProject) (domain.RenovationProject, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO renovation_projects
			(renovation_type, initial_prompt, min_price, max_price, interest_level, estimated_timeline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		string(p.RenovationType), p.InitialPrompt, nullInt(p.MinPrice), nullInt(p.MaxPrice),
		string(p.InterestLevel), nullString(p.EstimatedTimeline),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return domain.RenovationProject{}, fmt.Errorf("repository: insert project: %w", err)
	}
	return p, nil
}

// InsertImage stores an image reference for an existing project.
func (s *ProjectStore) InsertImage(ctx context.Context, img domain.ProjectImage) (domain.ProjectImage, error) {
	if img.ProjectID == "" {
		return domain.ProjectImage{}, errors.New("repository: image project ID is required")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO project_images (project_id, image_url, image_type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		img.ProjectID, img.ImageURL, string(img.ImageType),
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return domain.ProjectImage{}, fmt.Errorf("repository: insert project image: %w", err)
	}
	return img, nil
}

// GetProject loads a project and its images, oldest image first.
func (s *ProjectStore) GetProject(ctx context.Context, id string) (domain.RenovationProject, []domain.ProjectImage, error) {
	var (
		p        domain.RenovationProject
		rt, il   string
		minPrice sql.NullInt64
		maxPrice sql.NullInt64
		timeline sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, renovation_type, initial_prompt, min_price, max_price, interest_level, estimated_timeline, created_at
		FROM renovation_projects
		WHERE id = $1`, id,
	).Scan(&p.ID, &rt, &p.InitialPrompt, &minPrice, &maxPrice, &il, &timeline, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RenovationProject{}, nil, ErrProjectNotFound
	}
	if err != nil {
		return domain.RenovationProject{}, nil, fmt.Errorf("repository: get project: %w", err)
	}
	p.RenovationType = domain.RenovationType(rt)
	p.InterestLevel = domain.InterestLevel(il)
	if minPrice.Valid {
		v := int(minPrice.Int64)
		p.MinPrice = &v
	}
	if maxPrice.Valid {
		v := int(maxPrice.Int64)
		p.MaxPrice = &v
	}
	if timeline.Valid {
		p.EstimatedTimeline = &timeline.String
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, image_url, image_type, created_at
		FROM project_images
		WHERE project_id = $1
		ORDER BY created_at, id`, id)
	if err != nil {
		return domain.RenovationProject{}, nil, fmt.Errorf("repository: list project images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProjectImage{}
	for rows.Next() {
		var (
			img domain.ProjectImage
			typ string
		)
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.ImageURL, &typ, &img.CreatedAt); err != nil {
			return domain.RenovationProject{}, nil, fmt.Errorf("repository: scan project image: %w", err)
		}
		img.ImageType = domain.ImageType(typ)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return domain.RenovationProject{}, nil, fmt.Errorf("repository: list project images: %w", err)
	}
	return p, images, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
