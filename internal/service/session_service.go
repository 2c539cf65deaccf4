// FILE: internal/service/session_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"prompt-polish-be/internal/apperror"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/pkg/logger"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/internal/repository/unitofwork"
	"prompt-polish-be/pkg/events"
	pktNats "prompt-polish-be/pkg/nats"
)

type ISessionService interface {
	Create(ctx context.Context, owner entity.Identity, title string) (*dto.SessionResponse, error)
	List(ctx context.Context, owner entity.Identity) ([]*dto.SessionResponse, error)
	GetTurns(ctx context.Context, owner entity.Identity, sessionID uuid.UUID) ([]*dto.TurnResponse, error)
	UpdateTitle(ctx context.Context, owner entity.Identity, sessionID uuid.UUID, title string) error
	Delete(ctx context.Context, owner entity.Identity, sessionID uuid.UUID) error
	MergeIntoUser(ctx context.Context, sessionID uuid.UUID, anonID string, userID uuid.UUID) (*dto.MergeSessionResponse, error)
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, eventPublisher *pktNats.Publisher, log logger.ILogger) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func sessionToDTO(s *entity.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:    s.Id,
		Title: s.Title,
		Synopsis: dto.SynopsisDTO{
			Goal:        s.Synopsis.Goal,
			Tone:        s.Synopsis.Tone,
			Constraints: s.Synopsis.Constraints,
			Audience:    s.Synopsis.Audience,
			Style:       s.Synopsis.Style,
			Todos:       s.Synopsis.Todos,
		},
		SynopsisVersion: s.SynopsisVersion,
		LastActivityAt:  s.LastActivityAt,
		CreatedAt:       s.CreatedAt,
	}
}

func (s *sessionService) Create(ctx context.Context, owner entity.Identity, title string) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if title == "" {
		title = "Untitled session"
	}

	session := &entity.Session{
		Id:             uuid.New(),
		Owner:          owner,
		Title:          title,
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
	}

	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return sessionToDTO(session), nil
}

// findOwned is the single ownership gate: every read and write below goes
// through an owner-filtered lookup, so a wrong identity sees not-found.
func (s *sessionService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, sessionID uuid.UUID, owner entity.Identity) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.OwnedBy{Owner: owner},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.SessionNotFound()
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, owner entity.Identity) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.OwnedBy{Owner: owner},
		specification.OrderBy{Field: "last_activity_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		out[i] = sessionToDTO(session)
	}
	return out, nil
}

func (s *sessionService) GetTurns(ctx context.Context, owner entity.Identity, sessionID uuid.UUID) ([]*dto.TurnResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwned(ctx, uow, sessionID, owner); err != nil {
		return nil, err
	}

	turns, err := uow.TurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = &dto.TurnResponse{
			Id:            t.Id,
			OriginalText:  t.OriginalText,
			EnhancedText:  t.EnhancedText,
			HistoryUsed:   t.HistoryUsed,
			ContextTurns:  t.ContextTurns,
			SynopsisChars: t.SynopsisChars,
			Model:         t.Model,
			CreatedAt:     t.CreatedAt,
		}
	}
	return out, nil
}

func (s *sessionService) UpdateTitle(ctx context.Context, owner entity.Identity, sessionID uuid.UUID, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, sessionID, owner)
	if err != nil {
		return err
	}

	session.Title = title
	session.LastActivityAt = time.Now()
	return uow.SessionRepository().Update(ctx, session)
}

// Delete removes a session and all its turns. A synopsis-refresh job still in
// flight for this session will fail its lookup and get logged; that race is
// accepted.
func (s *sessionService) Delete(ctx context.Context, owner entity.Identity, sessionID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwned(ctx, uow, sessionID, owner); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.TurnRepository().DeleteBySessionID(ctx, sessionID); err != nil {
		return err
	}
	if err := uow.SessionRepository().Delete(ctx, sessionID); err != nil {
		return err
	}

	return uow.Commit()
}

// MergeIntoUser reassigns an anonymous session and all its turns to the
// authenticated user. The caller must present the anonymous token that owns
// the session. Both updates run in one transaction so turn ownership always
// follows session ownership.
func (s *sessionService) MergeIntoUser(ctx context.Context, sessionID uuid.UUID, anonID string, userID uuid.UUID) (*dto.MergeSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, sessionID, entity.AnonymousIdentity(anonID))
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().TransferOwnership(ctx, session.Id, userID); err != nil {
		return nil, err
	}
	if err := uow.TurnRepository().TransferOwnershipBySession(ctx, session.Id, userID); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	turnCount, err := uow.TurnRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
	if err != nil {
		turnCount = 0
	}

	if s.eventPublisher != nil {
		event := events.New(events.TypeSessionMerged, map[string]interface{}{
			"session_id": session.Id,
			"user_id":    userID,
			"turns":      turnCount,
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("session", "failed to publish SESSION_MERGED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.MergeSessionResponse{
		SessionId:      session.Id,
		TurnsReclaimed: turnCount,
	}, nil
}
