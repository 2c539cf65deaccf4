package entity

import (
	"time"

	"github.com/google/uuid"

	"prompt-polish-be/internal/constant"
)

// Synopsis is the rolling structured summary of a session's conversation,
// refreshed asynchronously after each turn.
type Synopsis struct {
	Goal        string
	Tone        string
	Constraints string
	Audience    string
	Style       string
	Todos       []string
}

func (s Synopsis) IsEmpty() bool {
	return s.Goal == "" && s.Tone == "" && s.Constraints == "" &&
		s.Audience == "" && s.Style == "" && len(s.Todos) == 0
}

// Merge applies a partial update field-wise: non-empty incoming values
// overwrite, omitted fields are preserved. Never a full replace, so a partial
// refresh cannot silently drop fields. Scalars are clamped to the field limit.
func (s *Synopsis) Merge(partial Synopsis) {
	if partial.Goal != "" {
		s.Goal = clampField(partial.Goal)
	}
	if partial.Tone != "" {
		s.Tone = clampField(partial.Tone)
	}
	if partial.Constraints != "" {
		s.Constraints = clampField(partial.Constraints)
	}
	if partial.Audience != "" {
		s.Audience = clampField(partial.Audience)
	}
	if partial.Style != "" {
		s.Style = clampField(partial.Style)
	}
	if len(partial.Todos) > 0 {
		s.Todos = partial.Todos
	}
}

func clampField(v string) string {
	if len(v) > constant.SynopsisFieldLimit {
		return v[:constant.SynopsisFieldLimit]
	}
	return v
}

// Session is a conversation container owned by exactly one identity at a
// time. Ownership moves from anonymous to user exactly once, via an explicit
// merge.
type Session struct {
	Id              uuid.UUID
	Owner           Identity
	Title           string
	Synopsis        Synopsis
	SynopsisVersion int
	LastActivityAt  time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// ApplySynopsis merges a partial synopsis and bumps the version counter. The
// version is informational: concurrent refreshes are last-writer-wins.
func (s *Session) ApplySynopsis(partial Synopsis, now time.Time) {
	s.Synopsis.Merge(partial)
	s.SynopsisVersion++
	s.LastActivityAt = now
}
