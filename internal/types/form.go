package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	FormStatusInProgress = "in_progress"
	FormStatusSubmitted  = "submitted"
	FormStatusRejected   = "rejected"
)

const (
	FormInputYesNo        = "yes_no"
	FormInputText         = "text"
	FormInputSingleChoice = "single_choice"
)

const (
	FormKindFeedback   = "feedback"
	FormKindResolution = "resolution_check"
	FormKindEscalation = "escalation"
)

// ConversationForm is a follow-up form attached to an assistant message.
type ConversationForm struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"session_id"`
	Kind            string     `gorm:"column:kind;not null" json:"kind"`
	Title           *string    `gorm:"column:title" json:"title,omitempty"`
	Description     *string    `gorm:"column:description" json:"description,omitempty"`
	Status          string     `gorm:"column:status;not null;default:'in_progress'" json:"status"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConversationForm) TableName() string {
	return "conversation_form"
}

type ConversationFormField struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormID      uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`
	Prompt      string    `gorm:"column:prompt;not null" json:"prompt"`
	InputType   string    `gorm:"column:input_type;not null;default:'text'" json:"input_type"`
	Required    bool      `gorm:"column:required;not null;default:true" json:"required"`
	Position    int       `gorm:"column:position;not null;default:0" json:"position"`
	Placeholder *string   `gorm:"column:placeholder" json:"placeholder,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ConversationFormField) TableName() string {
	return "conversation_form_field"
}

type ConversationFormFieldOption struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FieldID   uuid.UUID `gorm:"type:uuid;not null;index" json:"field_id"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	Label     string    `gorm:"column:label;not null" json:"label"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ConversationFormFieldOption) TableName() string {
	return "conversation_form_field_option"
}

type ConversationFormResponse struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormID           uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_conversation_form_response" json:"form_id"`
	FieldID          uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_conversation_form_response" json:"field_id"`
	SelectedOptionID *uuid.UUID `gorm:"type:uuid;index" json:"selected_option_id,omitempty"`
	Value            *string    `gorm:"column:value" json:"value,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConversationFormResponse) TableName() string {
	return "conversation_form_response"
}
