package dto

import (
	"github.com/google/uuid"
)

type RecentTurnDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type EnhanceRequest struct {
	Prompt            string          `json:"prompt" validate:"required,max=8000"`
	SessionId         *uuid.UUID      `json:"session_id,omitempty"`
	UseHistory        bool            `json:"use_history"`
	RecentTurns       []RecentTurnDTO `json:"recent_turns,omitempty" validate:"max=20,dive"`
	AutoCreateSession bool            `json:"auto_create_session"`
}

type ContextUsedDTO struct {
	LastTurns     int `json:"last_turns"`
	SynopsisChars int `json:"synopsis_chars"`
}

type QuotaDTO struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type EnhanceResponse struct {
	EnhancedText string         `json:"enhanced_text"`
	SessionId    *uuid.UUID     `json:"session_id,omitempty"`
	IsFollowUp   bool           `json:"is_follow_up"`
	ContextUsed  ContextUsedDTO `json:"context_used"`
	Quota        QuotaDTO       `json:"quota"`
}

type QuotaUsageResponse struct {
	Identity QuotaDTO `json:"identity"`
	IP       QuotaDTO `json:"ip"`
}

type LinkQuotaResponse struct {
	Linked bool `json:"linked"`
	Count  int  `json:"count"`
}
