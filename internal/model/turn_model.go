package model

import (
	"time"

	"github.com/google/uuid"
)

// Turn rows are immutable once written, except the two owner columns which
// are bulk-reassigned when the owning session is merged into a user.
type Turn struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     *uuid.UUID `gorm:"type:uuid;index"`
	AnonOwnerId   *string    `gorm:"type:varchar(64);index"`
	UserOwnerId   *uuid.UUID `gorm:"type:uuid;index"`
	OriginalText  string     `gorm:"type:text;not null"`
	EnhancedText  string     `gorm:"type:text;not null"`
	HistoryUsed   bool       `gorm:"not null;default:false"`
	ContextTurns  int        `gorm:"not null;default:0"`
	SynopsisChars int        `gorm:"not null;default:0"`
	LatencyMs     int64      `gorm:"not null;default:0"`
	InputTokens   int        `gorm:"not null;default:0"`
	OutputTokens  int        `gorm:"not null;default:0"`
	Model         string     `gorm:"type:varchar(100)"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
}

func (Turn) TableName() string {
	return "turns"
}
