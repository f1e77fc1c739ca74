package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/types"
)

type FormRepo interface {
	Create(ctx context.Context, tx *gorm.DB, form *types.ConversationForm) (*types.ConversationForm, error)
	CreateField(ctx context.Context, tx *gorm.DB, field *types.ConversationFormField) (*types.ConversationFormField, error)
	CreateFieldOption(ctx context.Context, tx *gorm.DB, option *types.ConversationFormFieldOption) (*types.ConversationFormFieldOption, error)
	CreateResponse(ctx context.Context, tx *gorm.DB, response *types.ConversationFormResponse) (*types.ConversationFormResponse, error)
	GetByID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) (*types.ConversationForm, error)
	LatestOpenBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationForm, error)
	ListFields(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.ConversationFormField, error)
	ListFieldOptions(ctx context.Context, tx *gorm.DB, fieldID uuid.UUID) ([]*types.ConversationFormFieldOption, error)
	SetStatus(ctx context.Context, tx *gorm.DB, formID uuid.UUID, status string, reason *string) error
	ListBySessionWithAnswers(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*FormWithAnswers, error)
}

// FormWithAnswers is the flattened shape the conversation context needs.
type FormWithAnswers struct {
	Form    *types.ConversationForm
	Answers []FormAnswer
}

type FormAnswer struct {
	Prompt string
	Value  string
}

type formRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	repoLog := baseLog.With("repo", "FormRepo")
	return &formRepo{db: db, log: repoLog}
}

func (r *formRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *formRepo) Create(ctx context.Context, tx *gorm.DB, form *types.ConversationForm) (*types.ConversationForm, error) {
	if form.Status == "" {
		form.Status = types.FormStatusInProgress
	}
	if err := r.tx(tx).WithContext(ctx).Create(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

func (r *formRepo) CreateField(ctx context.Context, tx *gorm.DB, field *types.ConversationFormField) (*types.ConversationFormField, error) {
	if err := r.tx(tx).WithContext(ctx).Create(field).Error; err != nil {
		return nil, err
	}
	return field, nil
}

func (r *formRepo) CreateFieldOption(ctx context.Context, tx *gorm.DB, option *types.ConversationFormFieldOption) (*types.ConversationFormFieldOption, error) {
	if err := r.tx(tx).WithContext(ctx).Create(option).Error; err != nil {
		return nil, err
	}
	return option, nil
}

func (r *formRepo) CreateResponse(ctx context.Context, tx *gorm.DB, response *types.ConversationFormResponse) (*types.ConversationFormResponse, error) {
	if err := r.tx(tx).WithContext(ctx).Create(response).Error; err != nil {
		return nil, err
	}
	return response, nil
}

func (r *formRepo) GetByID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) (*types.ConversationForm, error) {
	var result types.ConversationForm
	err := r.tx(tx).WithContext(ctx).
		Where("id = ?", formID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *formRepo) LatestOpenBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ConversationForm, error) {
	var result types.ConversationForm
	err := r.tx(tx).WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, types.FormStatusInProgress).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *formRepo) ListFields(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.ConversationFormField, error) {
	var results []*types.ConversationFormField
	if err := r.tx(tx).WithContext(ctx).
		Where("form_id = ?", formID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formRepo) ListFieldOptions(ctx context.Context, tx *gorm.DB, fieldID uuid.UUID) ([]*types.ConversationFormFieldOption, error) {
	var results []*types.ConversationFormFieldOption
	if err := r.tx(tx).WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formRepo) SetStatus(ctx context.Context, tx *gorm.DB, formID uuid.UUID, status string, reason *string) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.ConversationForm{}).
		Where("id = ?", formID).
		Updates(formStatusUpdates(status, reason, time.Now().UTC())).Error
}

// formStatusUpdates stamps the timestamp column matching the target
// status; rejection_reason is only written when a reason is given.
func formStatusUpdates(status string, reason *string, now time.Time) map[string]any {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case types.FormStatusSubmitted:
		updates["submitted_at"] = now
	case types.FormStatusRejected:
		updates["rejected_at"] = now
		if reason != nil {
			updates["rejection_reason"] = *reason
		}
	}
	return updates
}

func (r *formRepo) ListBySessionWithAnswers(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*FormWithAnswers, error) {
	var forms []*types.ConversationForm
	if err := r.tx(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&forms).Error; err != nil {
		return nil, err
	}

	out := make([]*FormWithAnswers, 0, len(forms))
	for _, form := range forms {
		entry := &FormWithAnswers{Form: form}

		var rows []struct {
			Prompt string
			Value  *string
			Label  *string
		}
		err := r.tx(tx).WithContext(ctx).
			Table(types.ConversationFormResponse{}.TableName()+" AS resp").
			Select("field.prompt AS prompt, resp.value AS value, opt.label AS label").
			Joins("JOIN "+types.ConversationFormField{}.TableName()+" AS field ON field.id = resp.field_id").
			Joins("LEFT JOIN "+types.ConversationFormFieldOption{}.TableName()+" AS opt ON opt.id = resp.selected_option_id").
			Where("resp.form_id = ?", form.ID).
			Order("field.position ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			value := ""
			if row.Label != nil && *row.Label != "" {
				value = *row.Label
			} else if row.Value != nil {
				value = *row.Value
			}
			if value == "" {
				continue
			}
			entry.Answers = append(entry.Answers, FormAnswer{Prompt: row.Prompt, Value: value})
		}
		out = append(out, entry)
	}
	return out, nil
}
