package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SessionStatusInProgress = "in_progress"
	SessionStatusResolved   = "resolved"
	SessionStatusEscalated  = "escalated"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

type ConversationSession struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Status         string     `gorm:"column:status;not null;default:'in_progress'" json:"status"`
	FeedbackText   *string    `gorm:"column:feedback_text" json:"feedback_text,omitempty"`
	FeedbackRating *int       `gorm:"column:feedback_rating" json:"feedback_rating,omitempty"`
	EndedAt        *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConversationSession) TableName() string {
	return "conversation_session"
}

type ConversationMessage struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Role      string         `gorm:"column:role;not null" json:"role"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	Helpful   *bool          `gorm:"column:helpful" json:"helpful,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ConversationMessage) TableName() string {
	return "conversation_message"
}

// ConversationImage keeps uploaded photos out of message metadata so they can
// be re-analyzed independently of the message lifecycle.
type ConversationImage struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	MessageID        *uuid.UUID     `gorm:"type:uuid;index" json:"message_id,omitempty"`
	OriginalFilename *string        `gorm:"column:original_filename" json:"original_filename,omitempty"`
	StorageURI       string         `gorm:"column:storage_uri;not null" json:"storage_uri"`
	AnalysisText     *string        `gorm:"column:analysis_text" json:"analysis_text,omitempty"`
	AnalysisMetadata datatypes.JSON `gorm:"type:jsonb;column:analysis_metadata" json:"analysis_metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ConversationImage) TableName() string {
	return "conversation_image"
}
