package entity

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one enhancement exchange. Immutable once created, except that its
// owner follows the owning session's owner at merge time.
type Turn struct {
	Id            uuid.UUID
	SessionId     *uuid.UUID // nil for sessionless enhancements
	Owner         Identity
	OriginalText  string
	EnhancedText  string
	HistoryUsed   bool
	ContextTurns  int
	SynopsisChars int
	LatencyMs     int64
	InputTokens   int
	OutputTokens  int
	Model         string
	CreatedAt     time.Time
}
