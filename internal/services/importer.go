package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

// ImportCatalogue is the structured troubleshooting graph accepted by the
// bulk import endpoint and the YAML seed file.
type ImportCatalogue struct {
	Problems []ImportProblem `json:"problems" yaml:"problems"`
}

type ImportProblem struct {
	Slug        string        `json:"slug" yaml:"slug"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    string        `json:"severity,omitempty" yaml:"severity,omitempty"`
	Causes      []ImportCause `json:"causes" yaml:"causes"`
}

type ImportCause struct {
	Slug           string         `json:"slug" yaml:"slug"`
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	DetectionHints []string       `json:"detection_hints,omitempty" yaml:"detection_hints,omitempty"`
	Priority       *int           `json:"priority,omitempty" yaml:"priority,omitempty"`
	Actions        []ImportAction `json:"actions" yaml:"actions"`
}

type ImportAction struct {
	Slug               string   `json:"slug" yaml:"slug"`
	Title              string   `json:"title" yaml:"title"`
	Summary            string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Instructions       []string `json:"instructions" yaml:"instructions"`
	RequiresEscalation bool     `json:"requires_escalation,omitempty" yaml:"requires_escalation,omitempty"`
}

type ImportResult struct {
	CategoriesCreated int `json:"categories_created"`
	CategoriesUpdated int `json:"categories_updated"`
	CausesCreated     int `json:"causes_created"`
	CausesUpdated     int `json:"causes_updated"`
	SolutionsCreated  int `json:"solutions_created"`
	SolutionsUpdated  int `json:"solutions_updated"`
	SolutionsRemoved  int `json:"solutions_removed"`
}

// ImportService populates the problem taxonomy from structured graphs.
// Categories and causes are upserted by slug; solutions are synced, so a
// solution absent from the payload is removed from its cause.
type ImportService interface {
	ImportCatalogue(ctx context.Context, catalogue ImportCatalogue) (*ImportResult, error)
}

type importService struct {
	categories repos.CategoryRepo
	causes     repos.CauseRepo
	solutions  repos.SolutionRepo
	catalogue  CatalogueService
	log        *logger.Logger
}

func NewImportService(
	categories repos.CategoryRepo,
	causes repos.CauseRepo,
	solutions repos.SolutionRepo,
	catalogue CatalogueService,
	baseLog *logger.Logger,
) ImportService {
	return &importService{
		categories: categories,
		causes:     causes,
		solutions:  solutions,
		catalogue:  catalogue,
		log:        baseLog.With("service", "ImportService"),
	}
}

func (s *importService) ImportCatalogue(ctx context.Context, catalogue ImportCatalogue) (*ImportResult, error) {
	result := &ImportResult{}

	for _, problem := range catalogue.Problems {
		category, created, err := s.upsertCategory(ctx, problem)
		if err != nil {
			return nil, err
		}
		if created {
			result.CategoriesCreated++
		} else {
			result.CategoriesUpdated++
		}

		for causeIndex, cause := range problem.Causes {
			causeModel, createdCause, err := s.upsertCause(ctx, category.ID, problem, cause, causeIndex)
			if err != nil {
				return nil, err
			}
			if createdCause {
				result.CausesCreated++
			} else {
				result.CausesUpdated++
			}

			created, updated, removed, err := s.syncSolutions(ctx, causeModel.ID, cause.Actions)
			if err != nil {
				return nil, err
			}
			result.SolutionsCreated += created
			result.SolutionsUpdated += updated
			result.SolutionsRemoved += removed
		}
	}

	s.catalogue.InvalidateSnapshot(ctx)
	s.log.Info("catalogue import finished",
		"categories_created", result.CategoriesCreated,
		"categories_updated", result.CategoriesUpdated,
		"causes_created", result.CausesCreated,
		"causes_updated", result.CausesUpdated,
		"solutions_created", result.SolutionsCreated,
		"solutions_updated", result.SolutionsUpdated,
		"solutions_removed", result.SolutionsRemoved,
	)
	return result, nil
}

func (s *importService) upsertCategory(ctx context.Context, problem ImportProblem) (*types.ProblemCategory, bool, error) {
	existing, err := s.categories.GetBySlug(ctx, nil, problem.Slug)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		updated := false
		if existing.Name != problem.Name {
			existing.Name = problem.Name
			updated = true
		}
		description := problem.Description
		if description == "" {
			description = derefString(existing.Description)
		}
		if description != derefString(existing.Description) {
			existing.Description = &description
			updated = true
		}
		if updated {
			if err := s.categories.Update(ctx, nil, existing); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	category := &types.ProblemCategory{
		Slug: problem.Slug,
		Name: problem.Name,
	}
	if problem.Description != "" {
		category.Description = &problem.Description
	}
	created, err := s.categories.Create(ctx, nil, category)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *importService) upsertCause(ctx context.Context, categoryID uuid.UUID, problem ImportProblem, cause ImportCause, causeIndex int) (*types.ProblemCause, bool, error) {
	existing, err := s.causes.GetBySlug(ctx, nil, categoryID, cause.Slug)
	if err != nil {
		return nil, false, err
	}

	priority := resolveCausePriority(problem, cause, causeIndex)
	description := cause.Description
	if description == "" {
		description = cause.Name
	}
	hints, err := marshalHints(cause.DetectionHints)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		updated := false
		if existing.Name != cause.Name {
			existing.Name = cause.Name
			updated = true
		}
		if derefString(existing.Description) != description {
			existing.Description = &description
			updated = true
		}
		if existing.DefaultPriority != priority {
			existing.DefaultPriority = priority
			updated = true
		}
		if !equalHints(existing.DetectionHints, cause.DetectionHints) {
			existing.DetectionHints = hints
			updated = true
		}
		if updated {
			if err := s.causes.Update(ctx, nil, existing); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	created, err := s.causes.Create(ctx, nil, &types.ProblemCause{
		CategoryID:      categoryID,
		Slug:            cause.Slug,
		Name:            cause.Name,
		Description:     &description,
		DetectionHints:  hints,
		DefaultPriority: priority,
	})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *importService) syncSolutions(ctx context.Context, causeID uuid.UUID, actions []ImportAction) (created, updated, removed int, err error) {
	existing, err := s.solutions.ListByCause(ctx, nil, causeID)
	if err != nil {
		return 0, 0, 0, err
	}
	existingBySlug := map[string]*types.ProblemSolution{}
	for _, sol := range existing {
		existingBySlug[sol.Slug] = sol
	}

	processed := map[string]bool{}
	for index, action := range actions {
		stepOrder := index + 1
		instructions := renderInstructions(action.Instructions)

		if solution, ok := existingBySlug[action.Slug]; ok {
			changed := false
			if solution.Title != action.Title {
				solution.Title = action.Title
				changed = true
			}
			if derefString(solution.Summary) != action.Summary {
				if action.Summary == "" {
					solution.Summary = nil
				} else {
					summary := action.Summary
					solution.Summary = &summary
				}
				changed = true
			}
			if solution.Instructions != instructions {
				solution.Instructions = instructions
				changed = true
			}
			if solution.StepOrder != stepOrder {
				solution.StepOrder = stepOrder
				changed = true
			}
			if solution.RequiresEscalation != action.RequiresEscalation {
				solution.RequiresEscalation = action.RequiresEscalation
				changed = true
			}
			if changed {
				if err := s.solutions.Update(ctx, nil, solution); err != nil {
					return 0, 0, 0, err
				}
				updated++
			}
			processed[action.Slug] = true
			continue
		}

		solution := &types.ProblemSolution{
			CauseID:            causeID,
			Slug:               action.Slug,
			Title:              action.Title,
			Instructions:       instructions,
			StepOrder:          stepOrder,
			RequiresEscalation: action.RequiresEscalation,
		}
		if action.Summary != "" {
			summary := action.Summary
			solution.Summary = &summary
		}
		if _, err := s.solutions.Create(ctx, nil, solution); err != nil {
			return 0, 0, 0, err
		}
		created++
		processed[action.Slug] = true
	}

	for slug, solution := range existingBySlug {
		if processed[slug] {
			continue
		}
		if err := s.solutions.Delete(ctx, nil, solution.ID); err != nil {
			s.log.Error("failed to remove solution", "slug", slug, "cause_id", causeID, "error", err)
			continue
		}
		removed++
	}
	return created, updated, removed, nil
}

func renderInstructions(steps []string) string {
	var formatted []string
	for _, raw := range steps {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, "-") {
			text = "- " + text
		}
		formatted = append(formatted, text)
	}
	return strings.Join(formatted, "\n")
}

var severityWeights = map[string]int{
	"info":     5,
	"low":      10,
	"medium":   20,
	"high":     30,
	"critical": 40,
}

func resolveCausePriority(problem ImportProblem, cause ImportCause, causeIndex int) int {
	if cause.Priority != nil {
		return *cause.Priority
	}
	weight, ok := severityWeights[problem.Severity]
	if !ok {
		weight = 10
	}
	return weight + causeIndex
}

func equalHints(stored []byte, hints []string) bool {
	var existing []string
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &existing); err != nil {
			return false
		}
	}
	if len(existing) != len(hints) {
		return false
	}
	for i := range existing {
		if existing[i] != hints[i] {
			return false
		}
	}
	return true
}
