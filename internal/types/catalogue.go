package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProblemCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProblemCategory) TableName() string {
	return "problem_category"
}

type ProblemCause struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CategoryID      uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uq_problem_cause_slug" json:"category_id"`
	Slug            string         `gorm:"column:slug;not null;uniqueIndex:uq_problem_cause_slug" json:"slug"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	Description     *string        `gorm:"column:description" json:"description,omitempty"`
	DetectionHints  datatypes.JSON `gorm:"type:jsonb;column:detection_hints" json:"detection_hints,omitempty"`
	DefaultPriority int            `gorm:"column:default_priority;not null;default:0" json:"default_priority"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProblemCause) TableName() string {
	return "problem_cause"
}

type ProblemSolution struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CauseID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_problem_solution_slug" json:"cause_id"`
	Slug               string    `gorm:"column:slug;not null;uniqueIndex:uq_problem_solution_slug" json:"slug"`
	Title              string    `gorm:"column:title;not null" json:"title"`
	Summary            *string   `gorm:"column:summary" json:"summary,omitempty"`
	Instructions       string    `gorm:"column:instructions;not null" json:"instructions"`
	StepOrder          int       `gorm:"column:step_order;not null;default:0" json:"step_order"`
	RequiresEscalation bool      `gorm:"column:requires_escalation;not null;default:false" json:"requires_escalation"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProblemSolution) TableName() string {
	return "problem_solution"
}
