package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/types"
)

type fakeCategoryRepo struct {
	categories map[uuid.UUID]*types.ProblemCategory
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[uuid.UUID]*types.ProblemCategory{}}
}

func (f *fakeCategoryRepo) Create(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) (*types.ProblemCategory, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, tx *gorm.DB, category *types.ProblemCategory) error {
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error {
	delete(f.categories, categoryID)
	return nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.ProblemCategory, error) {
	return f.categories[categoryID], nil
}

func (f *fakeCategoryRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemCategory, error) {
	for _, cat := range f.categories {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProblemCategory, error) {
	var out []*types.ProblemCategory
	for _, cat := range f.categories {
		out = append(out, cat)
	}
	return out, nil
}

type fakeCauseRepo struct {
	causes map[uuid.UUID]*types.ProblemCause
}

func newFakeCauseRepo() *fakeCauseRepo {
	return &fakeCauseRepo{causes: map[uuid.UUID]*types.ProblemCause{}}
}

func (f *fakeCauseRepo) Create(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) (*types.ProblemCause, error) {
	if cause.ID == uuid.Nil {
		cause.ID = uuid.New()
	}
	f.causes[cause.ID] = cause
	return cause, nil
}

func (f *fakeCauseRepo) Update(ctx context.Context, tx *gorm.DB, cause *types.ProblemCause) error {
	f.causes[cause.ID] = cause
	return nil
}

func (f *fakeCauseRepo) Delete(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) error {
	delete(f.causes, causeID)
	return nil
}

func (f *fakeCauseRepo) GetByID(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) (*types.ProblemCause, error) {
	return f.causes[causeID], nil
}

func (f *fakeCauseRepo) GetBySlug(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, slug string) (*types.ProblemCause, error) {
	for _, cause := range f.causes {
		if cause.CategoryID == categoryID && cause.Slug == slug {
			return cause, nil
		}
	}
	return nil, nil
}

func (f *fakeCauseRepo) ListByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.ProblemCause, error) {
	var out []*types.ProblemCause
	for _, cause := range f.causes {
		if cause.CategoryID == categoryID {
			out = append(out, cause)
		}
	}
	return out, nil
}

func importFixture() (ImportService, *fakeCategoryRepo, *fakeCauseRepo, *fakeSolutionRepo, *fakeCatalogueService) {
	categories := newFakeCategoryRepo()
	causes := newFakeCauseRepo()
	solutions := newFakeSolutionRepo()
	catalogue := &fakeCatalogueService{}
	svc := NewImportService(categories, causes, solutions, catalogue, testLogger())
	return svc, categories, causes, solutions, catalogue
}

func sampleImport() ImportCatalogue {
	return ImportCatalogue{
		Problems: []ImportProblem{
			{
				Slug:     "not-draining",
				Name:     "Dishwasher not draining",
				Severity: "high",
				Causes: []ImportCause{
					{
						Slug:           "clogged-filter",
						Name:           "Clogged filter",
						DetectionHints: []string{"standing water"},
						Actions: []ImportAction{
							{
								Slug:         "clean-filter",
								Title:        "Clean the filter",
								Instructions: []string{"Remove the rack", "Rinse the filter"},
							},
						},
					},
				},
			},
		},
	}
}

func TestImportCatalogue_CreatesEverything(t *testing.T) {
	svc, categories, causes, solutions, catalogue := importFixture()

	result, err := svc.ImportCatalogue(context.Background(), sampleImport())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if result.CategoriesCreated != 1 || result.CausesCreated != 1 || result.SolutionsCreated != 1 {
		t.Fatalf("unexpected counters: %#v", result)
	}
	if len(categories.categories) != 1 || len(causes.causes) != 1 || len(solutions.solutions) != 1 {
		t.Fatalf("unexpected store sizes: %d/%d/%d", len(categories.categories), len(causes.causes), len(solutions.solutions))
	}
	if !catalogue.invalidated {
		t.Fatalf("expected snapshot invalidation after import")
	}
	for _, sol := range solutions.solutions {
		if sol.Instructions != "- Remove the rack\n- Rinse the filter" {
			t.Fatalf("unexpected instructions: %q", sol.Instructions)
		}
		if sol.StepOrder != 1 {
			t.Fatalf("unexpected step order: %d", sol.StepOrder)
		}
	}
}

func TestImportCatalogue_IsIdempotent(t *testing.T) {
	svc, _, _, _, _ := importFixture()
	payload := sampleImport()

	if _, err := svc.ImportCatalogue(context.Background(), payload); err != nil {
		t.Fatalf("first import: %v", err)
	}
	second, err := svc.ImportCatalogue(context.Background(), payload)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.CategoriesCreated != 0 || second.CausesCreated != 0 || second.SolutionsCreated != 0 {
		t.Fatalf("re-import created records: %#v", second)
	}
	if second.SolutionsUpdated != 0 || second.SolutionsRemoved != 0 {
		t.Fatalf("unchanged payload must be a no-op: %#v", second)
	}
}

func TestImportCatalogue_UpdatesChangedFields(t *testing.T) {
	svc, _, _, solutions, _ := importFixture()
	payload := sampleImport()
	if _, err := svc.ImportCatalogue(context.Background(), payload); err != nil {
		t.Fatalf("first import: %v", err)
	}

	payload.Problems[0].Causes[0].Actions[0].Title = "Deep-clean the filter"
	result, err := svc.ImportCatalogue(context.Background(), payload)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.SolutionsUpdated != 1 {
		t.Fatalf("expected one solution update: %#v", result)
	}
	for _, sol := range solutions.solutions {
		if sol.Title != "Deep-clean the filter" {
			t.Fatalf("title not updated: %q", sol.Title)
		}
	}
}

func TestImportCatalogue_RemovesAbsentSolutions(t *testing.T) {
	svc, _, _, solutions, _ := importFixture()
	payload := sampleImport()
	payload.Problems[0].Causes[0].Actions = append(payload.Problems[0].Causes[0].Actions, ImportAction{
		Slug:         "check-drain-hose",
		Title:        "Check the drain hose",
		Instructions: []string{"Straighten the hose"},
	})
	if _, err := svc.ImportCatalogue(context.Background(), payload); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if len(solutions.solutions) != 2 {
		t.Fatalf("expected two solutions, got %d", len(solutions.solutions))
	}

	payload.Problems[0].Causes[0].Actions = payload.Problems[0].Causes[0].Actions[:1]
	result, err := svc.ImportCatalogue(context.Background(), payload)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.SolutionsRemoved != 1 {
		t.Fatalf("expected one removal: %#v", result)
	}
	if len(solutions.solutions) != 1 {
		t.Fatalf("absent solution should be deleted, got %d", len(solutions.solutions))
	}
}

func TestResolveCausePriority(t *testing.T) {
	explicit := 99
	cases := []struct {
		name    string
		problem ImportProblem
		cause   ImportCause
		index   int
		want    int
	}{
		{"explicit priority wins", ImportProblem{Severity: "critical"}, ImportCause{Priority: &explicit}, 0, 99},
		{"critical severity", ImportProblem{Severity: "critical"}, ImportCause{}, 0, 40},
		{"high severity with offset", ImportProblem{Severity: "high"}, ImportCause{}, 2, 32},
		{"unknown severity defaults", ImportProblem{Severity: "odd"}, ImportCause{}, 1, 11},
		{"missing severity defaults", ImportProblem{}, ImportCause{}, 0, 10},
	}
	for _, tc := range cases {
		if got := resolveCausePriority(tc.problem, tc.cause, tc.index); got != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, got)
		}
	}
}

func TestRenderInstructions(t *testing.T) {
	got := renderInstructions([]string{"First step", "  ", "- already bulleted"})
	if got != "- First step\n- already bulleted" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestEqualHints(t *testing.T) {
	if !equalHints([]byte(`["a","b"]`), []string{"a", "b"}) {
		t.Fatalf("expected equal hints")
	}
	if equalHints([]byte(`["a"]`), []string{"a", "b"}) {
		t.Fatalf("expected unequal length mismatch")
	}
	if equalHints([]byte(`not json`), []string{"a"}) {
		t.Fatalf("expected unequal on bad json")
	}
	if !equalHints(nil, nil) {
		t.Fatalf("expected empty hints equal")
	}
}
