package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type UpdateSessionTitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type SynopsisDTO struct {
	Goal        string   `json:"goal,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Constraints string   `json:"constraints,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Style       string   `json:"style,omitempty"`
	Todos       []string `json:"todos,omitempty"`
}

type SessionResponse struct {
	Id              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Synopsis        SynopsisDTO `json:"synopsis"`
	SynopsisVersion int         `json:"synopsis_version"`
	LastActivityAt  time.Time   `json:"last_activity_at"`
	CreatedAt       time.Time   `json:"created_at"`
}

type TurnResponse struct {
	Id            uuid.UUID `json:"id"`
	OriginalText  string    `json:"original_text"`
	EnhancedText  string    `json:"enhanced_text"`
	HistoryUsed   bool      `json:"history_used"`
	ContextTurns  int       `json:"context_turns"`
	SynopsisChars int       `json:"synopsis_chars"`
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type MergeSessionResponse struct {
	SessionId      uuid.UUID `json:"session_id"`
	TurnsReclaimed int64     `json:"turns_reclaimed"`
}
