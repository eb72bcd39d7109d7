package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/metrics"
	"renovation-quote/internal/repository"
)

// ProjectRepository persists projects and their image records.
type ProjectRepository interface {
	InsertProject(ctx context.Context, p domain.RenovationProject) (domain.RenovationProject, error)
	InsertImage(ctx context.Context, img domain.ProjectImage) (domain.ProjectImage, error)
	GetProject(ctx context.Context, id string) (domain.RenovationProject, []domain.ProjectImage, error)
}

// ObjectStore stores bytes under path and returns a public URL for them.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// SaveProjectInput is a project as submitted by the chat UI.
type SaveProjectInput struct {
	RenovationType    string
	InitialPrompt     string
	MinPrice          *int
	MaxPrice          *int
	InterestLevel     string
	EstimatedTimeline *string
	CurrentImages     []domain.Upload
	DesiredImages     []domain.Upload
}

// SavedProject is a project with the public URLs of its stored images.
type SavedProject struct {
	domain.RenovationProject
	CurrentImageURLs []string `json:"currentImageUrls"`
	DesiredImageURLs []string `json:"desiredImageUrls"`
}

// ProjectService saves projects together with their images.
type ProjectService struct {
	repo    ProjectRepository
	objects ObjectStore
	log     *zap.Logger
	now     func() time.Time
}

func NewProjectService(repo ProjectRepository, objects ObjectStore, log *zap.Logger) (*ProjectService, error) {
	if repo == nil {
		return nil, errors.New("usecase: project repository must not be nil")
	}
	if objects == nil {
		return nil, errors.New("usecase: object store must not be nil")
	}
	return &ProjectService{repo: repo, objects: objects, log: logger.OrNop(log), now: time.Now}, nil
}

// Save inserts the project, then stores each image concurrently. An image
// that fails to upload or insert is dropped; the project itself still counts
// as saved.
func (s *ProjectService) Save(ctx context.Context, in SaveProjectInput) (SavedProject, error) {
	rt, ok := domain.ParseRenovationType(in.RenovationType)
	if !ok {
		return SavedProject{}, newError(ErrorInvalidInput, "invalid_renovation_type", nil)
	}
	prompt := strings.TrimSpace(in.InitialPrompt)
	if prompt == "" {
		return SavedProject{}, newError(ErrorInvalidInput, "empty_initial_prompt", nil)
	}
	level, ok := domain.ParseProjectInterest(in.InterestLevel)
	if !ok {
		return SavedProject{}, newError(ErrorInvalidInput, "invalid_interest_level", nil)
	}
	if (in.MinPrice != nil && *in.MinPrice < 0) || (in.MaxPrice != nil && *in.MaxPrice < 0) {
		return SavedProject{}, newError(ErrorInvalidInput, "negative_price", nil)
	}

	project, err := s.repo.InsertProject(ctx, domain.RenovationProject{
		RenovationType:    rt,
		InitialPrompt:     prompt,
		MinPrice:          in.MinPrice,
		MaxPrice:          in.MaxPrice,
		InterestLevel:     level,
		EstimatedTimeline: in.EstimatedTimeline,
	})
	if err != nil {
		return SavedProject{}, newError(ErrorInternal, "project_insert_error", err)
	}

	current := make([]string, len(in.CurrentImages))
	desired := make([]string, len(in.DesiredImages))
	var g errgroup.Group
	for i, up := range in.CurrentImages {
		g.Go(func() error {
			current[i] = s.storeImage(ctx, project.ID, domain.ImageCurrent, i, up)
			return nil
		})
	}
	for i, up := range in.DesiredImages {
		g.Go(func() error {
			desired[i] = s.storeImage(ctx, project.ID, domain.ImageDesired, i, up)
			return nil
		})
	}
	_ = g.Wait()

	out := SavedProject{
		RenovationProject: project,
		CurrentImageURLs:  compact(current),
		DesiredImageURLs:  compact(desired),
	}
	s.log.Info("project saved",
		zap.String("project_id", project.ID),
		zap.String("renovation_type", string(rt)),
		zap.Int("current_images", len(out.CurrentImageURLs)),
		zap.Int("desired_images", len(out.DesiredImageURLs)),
	)
	return out, nil
}

// storeImage returns the image's public URL, or "" when it was dropped.
func (s *ProjectService) storeImage(ctx context.Context, projectID string, typ domain.ImageType, n int, up domain.Upload) string {
	path := fmt.Sprintf("%s/%s_%d_%d.%s", projectID, typ, s.now().UnixNano(), n, fileExt(up.Filename, up.ContentType))
	log := s.log.With(zap.String("project_id", projectID), zap.String("image_type", string(typ)), zap.String("path", path))

	url, err := s.objects.Upload(ctx, path, contentTypeOf(up.Filename, up.ContentType), up.Data)
	if err != nil {
		log.Warn("project image upload failed", zap.Error(err))
		metrics.ProjectImagesDropped.WithLabelValues(string(typ)).Inc()
		return ""
	}
	if _, err := s.repo.InsertImage(ctx, domain.ProjectImage{
		ProjectID: projectID,
		ImageURL:  url,
		ImageType: typ,
	}); err != nil {
		log.Warn("project image insert failed", zap.Error(err))
		metrics.ProjectImagesDropped.WithLabelValues(string(typ)).Inc()
		return ""
	}
	return url
}

func compact(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ProjectDetails is a stored project with its image records.
type ProjectDetails struct {
	Project domain.RenovationProject `json:"project"`
	Images  []domain.ProjectImage    `json:"images"`
}

// Get loads a project and its images. Ids that are not UUIDs cannot match
// any project and are reported as not found.
func (s *ProjectService) Get(ctx context.Context, id string) (ProjectDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ProjectDetails{}, newError(ErrorInvalidInput, "missing_project_id", nil)
	}
	if _, err := uuid.Parse(id); err != nil {
		return ProjectDetails{}, newError(ErrorNotFound, "project_not_found", err)
	}
	p, images, err := s.repo.GetProject(ctx, id)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return ProjectDetails{}, newError(ErrorNotFound, "project_not_found", err)
	}
	if err != nil {
		return ProjectDetails{}, newError(ErrorInternal, "project_read_error", err)
	}
	return ProjectDetails{Project: p, Images: images}, nil
}
