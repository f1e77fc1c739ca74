package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AICallLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID    *uuid.UUID     `gorm:"type:uuid;index" json:"session_id,omitempty"`
	MessageID    *uuid.UUID     `gorm:"type:uuid;index" json:"message_id,omitempty"`
	CallType     string         `gorm:"column:call_type;not null" json:"call_type"`
	Model        string         `gorm:"column:model;not null" json:"model"`
	InputTokens  int            `gorm:"column:input_tokens;not null;default:0" json:"input_tokens"`
	OutputTokens int            `gorm:"column:output_tokens;not null;default:0" json:"output_tokens"`
	TotalTokens  int            `gorm:"column:total_tokens;not null;default:0" json:"total_tokens"`
	CostInput    float64        `gorm:"column:cost_input;not null;default:0" json:"cost_input"`
	CostOutput   float64        `gorm:"column:cost_output;not null;default:0" json:"cost_output"`
	CostTotal    float64        `gorm:"column:cost_total;not null;default:0" json:"cost_total"`
	Usage        datatypes.JSON `gorm:"type:jsonb;column:usage" json:"usage,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AICallLog) TableName() string {
	return "ai_call_log"
}
