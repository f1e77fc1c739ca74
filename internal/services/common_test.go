package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeAI queues one raw response per call and records every request.
type fakeAI struct {
	responses []json.RawMessage
	usage     *openai.Usage
	err       error
	requests  []openai.JSONRequest
}

func (f *fakeAI) GenerateJSON(ctx context.Context, req openai.JSONRequest) (json.RawMessage, *openai.Usage, error) {
	_ = ctx
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, nil, f.err
	}
	if len(f.responses) == 0 {
		return json.RawMessage(`{}`), f.usage, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, f.usage, nil
}

func (f *fakeAI) Model() string       { return "test-model" }
func (f *fakeAI) VisionModel() string { return "test-vision-model" }

type fakeUsageRecorder struct {
	records    []string
	messageIDs []*uuid.UUID
}

func (f *fakeUsageRecorder) Record(ctx context.Context, sessionID, messageID *uuid.UUID, callType, model string, usage *openai.Usage) *ModelUsage {
	_ = ctx
	f.records = append(f.records, callType)
	f.messageIDs = append(f.messageIDs, messageID)
	out := &ModelUsage{RequestType: callType, Model: model}
	if usage != nil {
		out.InputTokens = usage.InputTokens
		out.OutputTokens = usage.OutputTokens
		out.TotalTokens = usage.TotalTokens
	}
	return out
}

func (f *fakeUsageRecorder) Pricing() ModelPricing { return ModelPricing{} }

// fakeCatalogueService serves a fixed snapshot; the write operations are never
// reached from the flows under test.
type fakeCatalogueService struct {
	snapshot    *CatalogueSnapshot
	invalidated bool
}

func (f *fakeCatalogueService) Snapshot(ctx context.Context) (*CatalogueSnapshot, error) {
	return f.snapshot, nil
}
func (f *fakeCatalogueService) InvalidateSnapshot(ctx context.Context) { f.invalidated = true }
func (f *fakeCatalogueService) ListCategories(ctx context.Context) ([]*types.ProblemCategory, error) {
	return nil, nil
}
func (f *fakeCatalogueService) CreateCategory(ctx context.Context, in CategoryInput) (*types.ProblemCategory, error) {
	return nil, nil
}
func (f *fakeCatalogueService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, in CategoryInput) (*types.ProblemCategory, error) {
	return nil, nil
}
func (f *fakeCatalogueService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return nil
}
func (f *fakeCatalogueService) ListCauses(ctx context.Context, categoryID uuid.UUID) ([]*types.ProblemCause, error) {
	return nil, nil
}
func (f *fakeCatalogueService) CreateCause(ctx context.Context, categoryID uuid.UUID, in CauseInput) (*types.ProblemCause, error) {
	return nil, nil
}
func (f *fakeCatalogueService) UpdateCause(ctx context.Context, causeID uuid.UUID, in CauseInput) (*types.ProblemCause, error) {
	return nil, nil
}
func (f *fakeCatalogueService) DeleteCause(ctx context.Context, causeID uuid.UUID) error { return nil }
func (f *fakeCatalogueService) ListSolutions(ctx context.Context, causeID uuid.UUID) ([]*types.ProblemSolution, error) {
	return nil, nil
}
func (f *fakeCatalogueService) CreateSolution(ctx context.Context, causeID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error) {
	return nil, nil
}
func (f *fakeCatalogueService) UpdateSolution(ctx context.Context, solutionID uuid.UUID, in SolutionInput) (*types.ProblemSolution, error) {
	return nil, nil
}
func (f *fakeCatalogueService) DeleteSolution(ctx context.Context, solutionID uuid.UUID) error {
	return nil
}

// testSnapshot builds a one-category catalogue with stable IDs.
func testSnapshot() *CatalogueSnapshot {
	return &CatalogueSnapshot{
		Categories: []*CatalogueCategory{
			{
				ID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Slug: "not-draining",
				Name: "Dishwasher not draining",
				Causes: []*CatalogueCause{
					{
						ID:   uuid.MustParse("22222222-2222-2222-2222-222222222222"),
						Slug: "clogged-filter",
						Name: "Clogged filter",
						Solutions: []*CatalogueSolution{
							{
								ID:           uuid.MustParse("33333333-3333-3333-3333-333333333333"),
								Slug:         "clean-filter",
								Title:        "Clean the filter",
								Instructions: "- Remove the bottom rack.\n- Rinse the filter.",
							},
							{
								ID:    uuid.MustParse("44444444-4444-4444-4444-444444444444"),
								Slug:  "check-drain-hose",
								Title: "Check the drain hose",
							},
						},
					},
				},
			},
			{
				ID:   uuid.MustParse("55555555-5555-5555-5555-555555555555"),
				Slug: "leaking",
				Name: "Dishwasher is leaking",
			},
		},
	}
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*types.ConversationSession
	statuses map[uuid.UUID]string
	touched  int
	feedback map[uuid.UUID]int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: map[uuid.UUID]*types.ConversationSession{},
		statuses: map[uuid.UUID]string{},
		feedback: map[uuid.UUID]int{},
	}
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ConversationSession) (*types.ConversationSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationSession, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeSessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.ConversationSession, error) {
	var out []*types.ConversationSession
	for _, id := range sessionIDs {
		if s, ok := f.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ConversationSession, error) {
	var out []*types.ConversationSession
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessionRepo) SetStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string) error {
	f.statuses[sessionID] = status
	if s, ok := f.sessions[sessionID]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeSessionRepo) Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	f.touched++
	return nil
}

func (f *fakeSessionRepo) SetFeedback(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, rating *int, text *string) error {
	if rating != nil {
		f.feedback[sessionID] = *rating
	}
	return nil
}

func (f *fakeSessionRepo) FeedbackStats(ctx context.Context, tx *gorm.DB) (float64, int64, error) {
	if len(f.feedback) == 0 {
		return 0, 0, nil
	}
	var sum int
	for _, rating := range f.feedback {
		sum += rating
	}
	return float64(sum) / float64(len(f.feedback)), int64(len(f.feedback)), nil
}

type fakeMessageRepo struct {
	messages []*types.ConversationMessage
	updated  map[uuid.UUID][]byte
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{updated: map[uuid.UUID][]byte{}}
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ConversationMessage) (*types.ConversationMessage, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.ConversationMessage, error) {
	for _, m := range f.messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	var out []*types.ConversationMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateMetadata(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, metadata []byte) error {
	f.updated[messageID] = metadata
	return nil
}

func (f *fakeMessageRepo) SetHelpful(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, helpful bool) error {
	return nil
}

func (f *fakeMessageRepo) CountBySessions(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	for _, m := range f.messages {
		counts[m.SessionID]++
	}
	return counts, nil
}

type fakeFormRepo struct {
	forms     map[uuid.UUID]*types.ConversationForm
	fields    map[uuid.UUID][]*types.ConversationFormField
	options   map[uuid.UUID][]*types.ConversationFormFieldOption
	responses []*types.ConversationFormResponse
	answers   map[uuid.UUID][]*repos.FormWithAnswers
	statuses  map[uuid.UUID]string
	reasons   map[uuid.UUID]string
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{
		forms:    map[uuid.UUID]*types.ConversationForm{},
		fields:   map[uuid.UUID][]*types.ConversationFormField{},
		options:  map[uuid.UUID][]*types.ConversationFormFieldOption{},
		answers:  map[uuid.UUID][]*repos.FormWithAnswers{},
		statuses: map[uuid.UUID]string{},
		reasons:  map[uuid.UUID]string{},
	}
}

func (f *fakeFormRepo) Create(ctx context.Context, tx *gorm.DB, form *types.ConversationForm) (*types.ConversationForm, error) {
	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}
	f.forms[form.ID] = form
	return form, nil
}

func (f *fakeFormRepo) CreateField(ctx context.Context, tx *gorm.DB, field *types.ConversationFormField) (*types.ConversationFormField, error) {
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	f.fields[field.FormID] = append(f.fields[field.FormID], field)
	return field, nil
}

func (f *fakeFormRepo) CreateFieldOption(ctx context.Context, tx *gorm.DB, option *types.ConversationFormFieldOption) (*types.ConversationFormFieldOption, error) {
	if option.ID == uuid.Nil {
		option.ID = uuid.New()
	}
	f.options[option.FieldID] = append(f.options[option.FieldID], option)
	return option, nil
}

func (f *fakeFormRepo) CreateResponse(ctx context.Context, tx *gorm.DB, response *types.ConversationFormResponse) (*types.ConversationFormResponse, error) {
	f.responses = append(f.responses, response)
	return response, nil
}

func (f *fakeFormRepo) GetByID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) (*types.ConversationForm, error) {
	return f.forms[formID], nil
}

func (f *fakeFormRepo) LatestOpenBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationForm, error) {
	for _, form := range f.forms {
		if form.SessionID == sessionID && form.Status == types.FormStatusInProgress {
			return form, nil
		}
	}
	return nil, nil
}

func (f *fakeFormRepo) ListFields(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.ConversationFormField, error) {
	return f.fields[formID], nil
}

func (f *fakeFormRepo) ListFieldOptions(ctx context.Context, tx *gorm.DB, fieldID uuid.UUID) ([]*types.ConversationFormFieldOption, error) {
	return f.options[fieldID], nil
}

func (f *fakeFormRepo) SetStatus(ctx context.Context, tx *gorm.DB, formID uuid.UUID, status string, reason *string) error {
	f.statuses[formID] = status
	if form, ok := f.forms[formID]; ok {
		form.Status = status
	}
	if reason != nil {
		f.reasons[formID] = *reason
	}
	return nil
}

func (f *fakeFormRepo) ListBySessionWithAnswers(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*repos.FormWithAnswers, error) {
	return f.answers[sessionID], nil
}

type fakeImageRepo struct {
	images []*types.ConversationImage
}

func (f *fakeImageRepo) Create(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) (*types.ConversationImage, error) {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	f.images = append(f.images, image)
	return image, nil
}

func (f *fakeImageRepo) Update(ctx context.Context, tx *gorm.DB, image *types.ConversationImage) error {
	for i, img := range f.images {
		if img.ID == image.ID {
			f.images[i] = image
		}
	}
	return nil
}

func (f *fakeImageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ConversationImage, error) {
	var out []*types.ConversationImage
	for _, img := range f.images {
		if img.SessionID == sessionID {
			out = append(out, img)
		}
	}
	return out, nil
}

type fakeSuggestionRepo struct {
	suggestions []*types.SessionSuggestion
}

func (f *fakeSuggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestion *types.SessionSuggestion) (*types.SessionSuggestion, error) {
	if suggestion.ID == uuid.Nil {
		suggestion.ID = uuid.New()
	}
	f.suggestions = append(f.suggestions, suggestion)
	return suggestion, nil
}

func (f *fakeSuggestionRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.SessionSuggestion, error) {
	var out []*types.SessionSuggestion
	for _, s := range f.suggestions {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSolutionRepo struct {
	solutions map[uuid.UUID]*types.ProblemSolution
}

func newFakeSolutionRepo(solutions ...*types.ProblemSolution) *fakeSolutionRepo {
	f := &fakeSolutionRepo{solutions: map[uuid.UUID]*types.ProblemSolution{}}
	for _, sol := range solutions {
		f.solutions[sol.ID] = sol
	}
	return f
}

func (f *fakeSolutionRepo) Create(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) (*types.ProblemSolution, error) {
	if solution.ID == uuid.Nil {
		solution.ID = uuid.New()
	}
	f.solutions[solution.ID] = solution
	return solution, nil
}

func (f *fakeSolutionRepo) Update(ctx context.Context, tx *gorm.DB, solution *types.ProblemSolution) error {
	f.solutions[solution.ID] = solution
	return nil
}

func (f *fakeSolutionRepo) Delete(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) error {
	delete(f.solutions, solutionID)
	return nil
}

func (f *fakeSolutionRepo) GetByID(ctx context.Context, tx *gorm.DB, solutionID uuid.UUID) (*types.ProblemSolution, error) {
	return f.solutions[solutionID], nil
}

func (f *fakeSolutionRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.ProblemSolution, error) {
	for _, sol := range f.solutions {
		if sol.Slug == slug {
			return sol, nil
		}
	}
	return nil, nil
}

func (f *fakeSolutionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, solutionIDs []uuid.UUID) ([]*types.ProblemSolution, error) {
	var out []*types.ProblemSolution
	for _, id := range solutionIDs {
		if sol, ok := f.solutions[id]; ok {
			out = append(out, sol)
		}
	}
	return out, nil
}

func (f *fakeSolutionRepo) ListByCause(ctx context.Context, tx *gorm.DB, causeID uuid.UUID) ([]*types.ProblemSolution, error) {
	var out []*types.ProblemSolution
	for _, sol := range f.solutions {
		if sol.CauseID == causeID {
			out = append(out, sol)
		}
	}
	return out, nil
}

type fakeProblemStateRepo struct {
	states map[uuid.UUID]*types.SessionProblemState
}

func newFakeProblemStateRepo() *fakeProblemStateRepo {
	return &fakeProblemStateRepo{states: map[uuid.UUID]*types.SessionProblemState{}}
}

func (f *fakeProblemStateRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.SessionProblemState, error) {
	return f.states[sessionID], nil
}

func (f *fakeProblemStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.SessionProblemState) (*types.SessionProblemState, error) {
	f.states[state.SessionID] = state
	return state, nil
}
