package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	redisclient "github.com/duda4418/dishwise-backend/internal/clients/redis"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

const (
	catalogueCacheKey = "catalogue:snapshot:v1"
	catalogueCacheTTL = 60 * time.Second
)

var (
	ErrCategoryNotFound = fmt.Errorf("problem category not found")
	ErrCauseNotFound    = fmt.Errorf("problem cause not found")
	ErrSolutionNotFound = fmt.Errorf("problem solution not found")
	ErrDuplicateSlug    = fmt.Errorf("slug already in use")
	ErrCategoryInUse    = fmt.Errorf("category still has causes")
	ErrCauseInUse       = fmt.Errorf("cause still has solutions")
)

// CatalogueSolution and friends form the denormalized troubleshooting tree
// the classifier prompts are rendered from. The snapshot is cacheable as a
// single JSON document.
type CatalogueSolution struct {
	ID                 uuid.UUID `json:"id"`
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	Summary            string    `json:"summary,omitempty"`
	Instructions       string    `json:"instructions"`
	StepOrder          int       `json:"step_order"`
	RequiresEscalation bool      `json:"requires_escalation"`
}

type CatalogueCause struct {
	ID              uuid.UUID            `json:"id"`
	Slug            string               `json:"slug"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	DefaultPriority int                  `json:"default_priority"`
	Solutions       []*CatalogueSolution `json:"solutions"`
}

type CatalogueCategory struct {
	ID          uuid.UUID         `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Causes      []*CatalogueCause `json:"causes"`
}

type CatalogueSnapshot struct {
	Categories []*CatalogueCategory `json:"categories"`
}

func (s *CatalogueSnapshot) Category(slug string) *CatalogueCategory {
	for _, c := range s.Categories {
		if c.Slug == slug {
			return c
		}
	}
	return nil
}

func (c *CatalogueCategory) Cause(slug string) *CatalogueCause {
	for _, cause := range c.Causes {
		if cause.Slug == slug {
			return cause
		}
	}
	return nil
}

// SolutionBySlug searches the whole snapshot; solution slugs are globally
// unique.
func (s *CatalogueSnapshot) SolutionBySlug(slug string) (*CatalogueCategory, *CatalogueCause, *CatalogueSolution) {
	for _, cat := range s.Categories {
		for _, cause := range cat.Causes {
			for _, sol := range cause.Solutions {
				if sol.Slug == slug {
					return cat, cause, sol
				}
			}
		}
	}
	return nil, nil, nil
}

type CategoryInput struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CauseInput struct {
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	DetectionHints  []string `json:"detection_hints"`
	DefaultPriority int      `json:"default_priority"`
}

type SolutionInput struct {
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Summary            *string `json:"summary"`
	Instructions       string  `json:"instructions"`
	StepOrder          int     `json:"step_order"`
	RequiresEscalation bool    `json:"requires_escalation"`
}

type CatalogueService interface {
	Snapshot(ctx context.Context) (*CatalogueSnapshot, error)
	InvalidateSnapshot(ctx context.Context)

	ListCategories(ctx context.Context) ([]*types.ProblemCategory, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*types.ProblemCategory, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, in CategoryInput) (*types.ProblemCategory, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error

	ListCauses(ctx context.Context, categoryID uuid.UUID) ([]*types.ProblemCause, error)
	CreateCause(ctx context.Context, categoryID uuid.UUID, in CauseInput) (*types.ProblemCause, error)
	UpdateCause(ctx context.Context, causeID uuid.UUID, in CauseInput) (*types.ProblemCause, error)
	DeleteCause(ctx context.Context, causeID uuid.UUID) error

	ListSolutions(ctx context.Context, causeID uuid.UUID) ([]*types.ProblemSolution, error)
	CreateSolution(ctx context.Context, causeID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error)
	UpdateSolution(ctx context.Context, solutionID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error)
	DeleteSolution(ctx context.Context, solutionID uuid.UUID) error
}

type catalogueService struct {
	categories repos.CategoryRepo
	causes     repos.CauseRepo
	solutions  repos.SolutionRepo
	cache      redisclient.Cache
	log        *logger.Logger
}

func NewCatalogueService(
	categories repos.CategoryRepo,
	causes repos.CauseRepo,
	solutions repos.SolutionRepo,
	cache redisclient.Cache,
	baseLog *logger.Logger,
) CatalogueService {
	return &catalogueService{
		categories: categories,
		causes:     causes,
		solutions:  solutions,
		cache:      cache,
		log:        baseLog.With("service", "CatalogueService"),
	}
}

func (s *catalogueService) Snapshot(ctx context.Context) (*CatalogueSnapshot, error) {
	if s.cache != nil {
		var cached CatalogueSnapshot
		hit, err := s.cache.GetJSON(ctx, catalogueCacheKey, &cached)
		if err != nil {
			s.log.Warn("catalogue cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, catalogueCacheKey, snapshot, catalogueCacheTTL); err != nil {
			s.log.Warn("catalogue cache write failed", "error", err)
		}
	}
	return snapshot, nil
}

func (s *catalogueService) loadSnapshot(ctx context.Context) (*CatalogueSnapshot, error) {
	categories, err := s.categories.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	snapshot := &CatalogueSnapshot{Categories: make([]*CatalogueCategory, 0, len(categories))}
	for _, cat := range categories {
		entry := &CatalogueCategory{
			ID:          cat.ID,
			Slug:        cat.Slug,
			Name:        cat.Name,
			Description: derefString(cat.Description),
		}
		causes, err := s.causes.ListByCategory(ctx, nil, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("list causes for %s: %w", cat.Slug, err)
		}
		for _, cause := range causes {
			causeEntry := &CatalogueCause{
				ID:              cause.ID,
				Slug:            cause.Slug,
				Name:            cause.Name,
				Description:     derefString(cause.Description),
				DefaultPriority: cause.DefaultPriority,
			}
			solutions, err := s.solutions.ListByCause(ctx, nil, cause.ID)
			if err != nil {
				return nil, fmt.Errorf("list solutions for %s: %w", cause.Slug, err)
			}
			for _, sol := range solutions {
				causeEntry.Solutions = append(causeEntry.Solutions, &CatalogueSolution{
					ID:                 sol.ID,
					Slug:               sol.Slug,
					Title:              sol.Title,
					Summary:            derefString(sol.Summary),
					Instructions:       sol.Instructions,
					StepOrder:          sol.StepOrder,
					RequiresEscalation: sol.RequiresEscalation,
				})
			}
			entry.Causes = append(entry.Causes, causeEntry)
		}
		snapshot.Categories = append(snapshot.Categories, entry)
	}
	return snapshot, nil
}

func (s *catalogueService) InvalidateSnapshot(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, catalogueCacheKey); err != nil {
		s.log.Warn("catalogue cache invalidation failed", "error", err)
	}
}

func (s *catalogueService) ListCategories(ctx context.Context) ([]*types.ProblemCategory, error) {
	return s.categories.ListAll(ctx, nil)
}

func (s *catalogueService) CreateCategory(ctx context.Context, in CategoryInput) (*types.ProblemCategory, error) {
	existing, err := s.categories.GetBySlug(ctx, nil, in.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateSlug
	}
	category, err := s.categories.Create(ctx, nil, &types.ProblemCategory{
		Slug:        in.Slug,
		Name:        in.Name,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return category, nil
}

func (s *catalogueService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, in CategoryInput) (*types.ProblemCategory, error) {
	category, err := s.categories.GetByID(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if in.Slug != "" && in.Slug != category.Slug {
		dup, err := s.categories.GetBySlug(ctx, nil, in.Slug)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrDuplicateSlug
		}
		category.Slug = in.Slug
	}
	if in.Name != "" {
		category.Name = in.Name
	}
	if in.Description != nil {
		category.Description = in.Description
	}
	category.UpdatedAt = time.Now().UTC()
	if err := s.categories.Update(ctx, nil, category); err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return category, nil
}

func (s *catalogueService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	category, err := s.categories.GetByID(ctx, nil, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	causes, err := s.causes.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return err
	}
	if len(causes) > 0 {
		return ErrCategoryInUse
	}
	if err := s.categories.Delete(ctx, nil, categoryID); err != nil {
		return err
	}
	s.InvalidateSnapshot(ctx)
	return nil
}

func (s *catalogueService) ListCauses(ctx context.Context, categoryID uuid.UUID) ([]*types.ProblemCause, error) {
	category, err := s.categories.GetByID(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return s.causes.ListByCategory(ctx, nil, categoryID)
}

func (s *catalogueService) CreateCause(ctx context.Context, categoryID uuid.UUID, in CauseInput) (*types.ProblemCause, error) {
	category, err := s.categories.GetByID(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	existing, err := s.causes.GetBySlug(ctx, nil, categoryID, in.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateSlug
	}
	hints, err := marshalHints(in.DetectionHints)
	if err != nil {
		return nil, err
	}
	cause, err := s.causes.Create(ctx, nil, &types.ProblemCause{
		CategoryID:      categoryID,
		Slug:            in.Slug,
		Name:            in.Name,
		Description:     in.Description,
		DetectionHints:  hints,
		DefaultPriority: in.DefaultPriority,
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return cause, nil
}

func (s *catalogueService) UpdateCause(ctx context.Context, causeID uuid.UUID, in CauseInput) (*types.ProblemCause, error) {
	cause, err := s.causes.GetByID(ctx, nil, causeID)
	if err != nil {
		return nil, err
	}
	if cause == nil {
		return nil, ErrCauseNotFound
	}
	if in.Slug != "" && in.Slug != cause.Slug {
		dup, err := s.causes.GetBySlug(ctx, nil, cause.CategoryID, in.Slug)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrDuplicateSlug
		}
		cause.Slug = in.Slug
	}
	if in.Name != "" {
		cause.Name = in.Name
	}
	if in.Description != nil {
		cause.Description = in.Description
	}
	if in.DetectionHints != nil {
		hints, err := marshalHints(in.DetectionHints)
		if err != nil {
			return nil, err
		}
		cause.DetectionHints = hints
	}
	if in.DefaultPriority != 0 {
		cause.DefaultPriority = in.DefaultPriority
	}
	cause.UpdatedAt = time.Now().UTC()
	if err := s.causes.Update(ctx, nil, cause); err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return cause, nil
}

func (s *catalogueService) DeleteCause(ctx context.Context, causeID uuid.UUID) error {
	cause, err := s.causes.GetByID(ctx, nil, causeID)
	if err != nil {
		return err
	}
	if cause == nil {
		return ErrCauseNotFound
	}
	solutions, err := s.solutions.ListByCause(ctx, nil, causeID)
	if err != nil {
		return err
	}
	if len(solutions) > 0 {
		return ErrCauseInUse
	}
	if err := s.causes.Delete(ctx, nil, causeID); err != nil {
		return err
	}
	s.InvalidateSnapshot(ctx)
	return nil
}

func (s *catalogueService) ListSolutions(ctx context.Context, causeID uuid.UUID) ([]*types.ProblemSolution, error) {
	cause, err := s.causes.GetByID(ctx, nil, causeID)
	if err != nil {
		return nil, err
	}
	if cause == nil {
		return nil, ErrCauseNotFound
	}
	return s.solutions.ListByCause(ctx, nil, causeID)
}

func (s *catalogueService) CreateSolution(ctx context.Context, causeID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error) {
	cause, err := s.causes.GetByID(ctx, nil, causeID)
	if err != nil {
		return nil, err
	}
	if cause == nil {
		return nil, ErrCauseNotFound
	}
	existing, err := s.solutions.GetBySlug(ctx, nil, in.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateSlug
	}
	solution, err := s.solutions.Create(ctx, nil, &types.ProblemSolution{
		CauseID:            causeID,
		Slug:               in.Slug,
		Title:              in.Title,
		Summary:            in.Summary,
		Instructions:       in.Instructions,
		StepOrder:          in.StepOrder,
		RequiresEscalation: in.RequiresEscalation,
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return solution, nil
}

func (s *catalogueService) UpdateSolution(ctx context.Context, solutionID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error) {
	solution, err := s.solutions.GetByID(ctx, nil, solutionID)
	if err != nil {
		return nil, err
	}
	if solution == nil {
		return nil, ErrSolutionNotFound
	}
	if in.Slug != "" && in.Slug != solution.Slug {
		dup, err := s.solutions.GetBySlug(ctx, nil, in.Slug)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrDuplicateSlug
		}
		solution.Slug = in.Slug
	}
	if in.Title != "" {
		solution.Title = in.Title
	}
	if in.Summary != nil {
		solution.Summary = in.Summary
	}
	if in.Instructions != "" {
		solution.Instructions = in.Instructions
	}
	if in.StepOrder != 0 {
		solution.StepOrder = in.StepOrder
	}
	solution.RequiresEscalation = in.RequiresEscalation
	solution.UpdatedAt = time.Now().UTC()
	if err := s.solutions.Update(ctx, nil, solution); err != nil {
		return nil, err
	}
	s.InvalidateSnapshot(ctx)
	return solution, nil
}

func (s *catalogueService) DeleteSolution(ctx context.Context, solutionID uuid.UUID) error {
	solution, err := s.solutions.GetByID(ctx, nil, solutionID)
	if err != nil {
		return err
	}
	if solution == nil {
		return ErrSolutionNotFound
	}
	if err := s.solutions.Delete(ctx, nil, solutionID); err != nil {
		return err
	}
	s.InvalidateSnapshot(ctx)
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func marshalHints(hints []string) (datatypes.JSON, error) {
	if len(hints) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(hints)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
