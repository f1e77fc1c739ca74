package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionProblemState is the confirmed classification for a session, keyed by
// the session itself. The classifier reads it to focus the catalogue and
// writes it back after every turn.
type SessionProblemState struct {
	SessionID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"session_id"`
	CategoryID               *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	CauseID                  *uuid.UUID `gorm:"type:uuid;index" json:"cause_id,omitempty"`
	ClassificationConfidence *float64   `gorm:"column:classification_confidence" json:"classification_confidence,omitempty"`
	ClassificationSource     *string    `gorm:"column:classification_source" json:"classification_source,omitempty"`
	ManualOverride           bool       `gorm:"column:manual_override;not null;default:false" json:"manual_override"`
	CreatedAt                time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (SessionProblemState) TableName() string {
	return "session_problem_state"
}

// SessionSuggestion records every solution the assistant has proposed in a
// session so a solution is never suggested twice.
type SessionSuggestion struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	SolutionID uuid.UUID `gorm:"type:uuid;not null;index" json:"solution_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (SessionSuggestion) TableName() string {
	return "session_suggestion"
}
