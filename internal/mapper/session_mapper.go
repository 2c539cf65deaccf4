package mapper

import (
	"time"

	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var owner entity.Identity
	if s.UserOwnerId != nil {
		owner = entity.UserIdentity(*s.UserOwnerId)
	} else if s.AnonOwnerId != nil {
		owner = entity.AnonymousIdentity(*s.AnonOwnerId)
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:    s.Id,
		Owner: owner,
		Title: s.Title,
		Synopsis: entity.Synopsis{
			Goal:        s.SynopsisGoal,
			Tone:        s.SynopsisTone,
			Constraints: s.SynopsisConstr,
			Audience:    s.SynopsisAud,
			Style:       s.SynopsisStyle,
			Todos:       s.SynopsisTodos,
		},
		SynopsisVersion: s.SynopsisVersion,
		LastActivityAt:  s.LastActivityAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *SessionMapper) SessionToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	out := &model.Session{
		Id:              s.Id,
		Title:           s.Title,
		SynopsisGoal:    s.Synopsis.Goal,
		SynopsisTone:    s.Synopsis.Tone,
		SynopsisConstr:  s.Synopsis.Constraints,
		SynopsisAud:     s.Synopsis.Audience,
		SynopsisStyle:   s.Synopsis.Style,
		SynopsisTodos:   s.Synopsis.Todos,
		SynopsisVersion: s.SynopsisVersion,
		LastActivityAt:  s.LastActivityAt,
		CreatedAt:       s.CreatedAt,
	}
	if s.UpdatedAt != nil {
		out.UpdatedAt = *s.UpdatedAt
	}

	if userID, ok := s.Owner.UserID(); ok {
		out.UserOwnerId = &userID
	} else if anonID, ok := s.Owner.AnonID(); ok {
		out.AnonOwnerId = &anonID
	}

	return out
}

func (m *SessionMapper) TurnToEntity(t *model.Turn) *entity.Turn {
	if t == nil {
		return nil
	}

	var owner entity.Identity
	if t.UserOwnerId != nil {
		owner = entity.UserIdentity(*t.UserOwnerId)
	} else if t.AnonOwnerId != nil {
		owner = entity.AnonymousIdentity(*t.AnonOwnerId)
	}

	return &entity.Turn{
		Id:            t.Id,
		SessionId:     t.SessionId,
		Owner:         owner,
		OriginalText:  t.OriginalText,
		EnhancedText:  t.EnhancedText,
		HistoryUsed:   t.HistoryUsed,
		ContextTurns:  t.ContextTurns,
		SynopsisChars: t.SynopsisChars,
		LatencyMs:     t.LatencyMs,
		InputTokens:   t.InputTokens,
		OutputTokens:  t.OutputTokens,
		Model:         t.Model,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *SessionMapper) TurnToModel(t *entity.Turn) *model.Turn {
	if t == nil {
		return nil
	}

	out := &model.Turn{
		Id:            t.Id,
		SessionId:     t.SessionId,
		OriginalText:  t.OriginalText,
		EnhancedText:  t.EnhancedText,
		HistoryUsed:   t.HistoryUsed,
		ContextTurns:  t.ContextTurns,
		SynopsisChars: t.SynopsisChars,
		LatencyMs:     t.LatencyMs,
		InputTokens:   t.InputTokens,
		OutputTokens:  t.OutputTokens,
		Model:         t.Model,
		CreatedAt:     t.CreatedAt,
	}

	if userID, ok := t.Owner.UserID(); ok {
		out.UserOwnerId = &userID
	} else if anonID, ok := t.Owner.AnonID(); ok {
		out.AnonOwnerId = &anonID
	}

	return out
}
