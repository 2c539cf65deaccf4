// FILE: internal/service/enhance_service.go
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
	"prompt-polish-be/pkg/classifier"
	"prompt-polish-be/pkg/enhance"
	"prompt-polish-be/pkg/events"
	pktNats "prompt-polish-be/pkg/nats"
	"prompt-polish-be/pkg/promptctx"
	"prompt-polish-be/pkg/quota"
)

type IEnhanceService interface {
	Enhance(ctx context.Context, ident entity.Identity, ip string, req *dto.EnhanceRequest) (*dto.EnhanceResponse, error)
}

type enhanceService struct {
	uowFactory     unitofwork.RepositoryFactory
	ledger         *quota.Ledger
	provider       enhance.Provider
	verifier       enhance.Verifier
	scheduler      IRefreshScheduler
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewEnhanceService(
	uowFactory unitofwork.RepositoryFactory,
	ledger *quota.Ledger,
	provider enhance.Provider,
	verifier enhance.Verifier,
	scheduler IRefreshScheduler,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IEnhanceService {
	return &enhanceService{
		uowFactory:     uowFactory,
		ledger:         ledger,
		provider:       provider,
		verifier:       verifier,
		scheduler:      scheduler,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Enhance runs the full request path: IP gate, identity quota gate, follow-up
// classification, bounded context assembly, the enhancement call, a
// best-effort verification/repair pass, turn persistence, and the async
// synopsis refresh. Quota gates fail fast; auxiliary steps never block the
// primary action.
func (s *enhanceService) Enhance(ctx context.Context, ident entity.Identity, ip string, req *dto.EnhanceRequest) (*dto.EnhanceResponse, error) {
	// Coarse IP guard first; failing it short-circuits before the identity
	// counter is touched.
	ipDecision, err := s.ledger.CheckAndIncrement(ctx, quota.KindIP, ip, IPCeilingFor(ident))
	if err != nil {
		return nil, err
	}
	if !ipDecision.Allowed {
		return nil, apperror.QuotaExceeded()
	}

	identityDecision, err := s.ledger.CheckAndIncrement(ctx, kindFor(ident), ident.Key(), CeilingFor(ident))
	if err != nil {
		return nil, err
	}
	if !identityDecision.Allowed {
		return nil, apperror.QuotaExceeded()
	}

	classification := classifier.Classify(req.Prompt)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := s.resolveSession(ctx, uow, ident, req)

	contextStr, used := s.buildContext(ctx, uow, session, req, classification)

	start := time.Now()
	result, err := s.provider.Enhance(ctx, enhance.Request{
		Prompt:  req.Prompt,
		Context: contextStr,
	})
	if err != nil {
		// The enhancement call failing is fatal: no silent fallback to the
		// unenhanced prompt.
		return nil, apperror.EnhancementFailed(err)
	}
	latency := time.Since(start).Milliseconds()

	enhancedText := s.verifyAndRepair(ctx, result.EnhancedText)

	turn := &entity.Turn{
		Id:            uuid.New(),
		Owner:         ident,
		OriginalText:  req.Prompt,
		EnhancedText:  enhancedText,
		HistoryUsed:   contextStr != "",
		ContextTurns:  used.LastTurns,
		SynopsisChars: used.SynopsisChars,
		LatencyMs:     latency,
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		Model:         result.Model,
		CreatedAt:     time.Now(),
	}
	if session != nil {
		turn.SessionId = &session.Id
	}

	if err := uow.TurnRepository().Create(ctx, turn); err != nil {
		// The paid call already happened; losing the record would make the
		// spend invisible, so this one is fatal.
		return nil, err
	}

	if session != nil {
		s.scheduler.Schedule(session.Id)
	}

	s.publishEnhanced(ctx, ident, turn)

	resp := &dto.EnhanceResponse{
		EnhancedText: enhancedText,
		IsFollowUp:   classification.IsFollowUp,
		ContextUsed:  dto.ContextUsedDTO{LastTurns: used.LastTurns, SynopsisChars: used.SynopsisChars},
		Quota: dto.QuotaDTO{
			Used:      CeilingFor(ident) - identityDecision.Remaining,
			Limit:     CeilingFor(ident),
			Remaining: identityDecision.Remaining,
		},
	}
	if session != nil {
		resp.SessionId = &session.Id
	}
	return resp, nil
}

// resolveSession loads the referenced session (ownership-filtered) or
// auto-creates one when asked. Both paths are best-effort: an explicit id
// that resolves to nothing and any storage hiccup leave the request
// sessionless rather than failing it.
func (s *enhanceService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, ident entity.Identity, req *dto.EnhanceRequest) *entity.Session {
	if req.SessionId != nil {
		session, err := uow.SessionRepository().FindOne(ctx,
			specification.ByID{ID: *req.SessionId},
			specification.OwnedBy{Owner: ident},
		)
		if err != nil {
			s.logger.Warn("enhance", "session lookup failed, proceeding without history", map[string]interface{}{
				"session_id": req.SessionId.String(),
				"error":      err.Error(),
			})
			return nil
		}
		if session == nil {
			s.logger.Warn("enhance", "session not found or not owned, proceeding sessionless", map[string]interface{}{
				"session_id": req.SessionId.String(),
			})
			return nil
		}
		return session
	}

	if !req.AutoCreateSession {
		return nil
	}

	session := &entity.Session{
		Id:             uuid.New(),
		Owner:          ident,
		Title:          deriveTitle(req.Prompt),
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
	}
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		s.logger.Warn("enhance", "auto session creation failed, proceeding sessionless", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return session
}

// buildContext assembles the bounded context block for follow-up prompts.
// Turns supplied on the request win over stored history. Any fetch failure
// degrades to an empty context.
func (s *enhanceService) buildContext(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session, req *dto.EnhanceRequest, classification classifier.Result) (string, promptctx.Used) {
	if !classification.IsFollowUp || !req.UseHistory {
		return "", promptctx.Used{}
	}

	var turns []promptctx.Turn
	if len(req.RecentTurns) > 0 {
		for _, t := range req.RecentTurns {
			turns = append(turns, promptctx.Turn{Role: t.Role, Content: t.Content})
		}
	} else if session != nil {
		stored, err := uow.TurnRepository().FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: 3, Offset: 0},
		)
		if err != nil {
			s.logger.Warn("enhance", "history fetch failed, proceeding without context", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		} else {
			// Oldest first, each stored turn is one user/assistant exchange.
			for i := len(stored) - 1; i >= 0; i-- {
				turns = append(turns,
					promptctx.Turn{Role: "user", Content: stored[i].OriginalText},
					promptctx.Turn{Role: "assistant", Content: stored[i].EnhancedText},
				)
			}
		}
	}

	var syn entity.Synopsis
	if session != nil {
		syn = session.Synopsis
	}

	if syn.IsEmpty() && len(turns) == 0 {
		return "", promptctx.Used{}
	}

	return promptctx.Build(syn, turns)
}

// verifyAndRepair runs the verification check and at most one repair pass.
// A failed repair keeps the original enhanced text; verification never fails
// the request.
func (s *enhanceService) verifyAndRepair(ctx context.Context, enhanced string) string {
	verification := s.verifier.Verify(enhanced)
	if verification.IsValid {
		return enhanced
	}

	repaired, err := s.provider.Complete(ctx, enhance.RepairPrompt(enhanced, verification.Missing))
	if err != nil {
		s.logger.Warn("enhance", "repair pass failed, keeping unrepaired text", map[string]interface{}{
			"missing": verification.Missing,
			"error":   err.Error(),
		})
		return enhanced
	}
	if !s.verifier.Verify(repaired).IsValid {
		return enhanced
	}
	return repaired
}

func (s *enhanceService) publishEnhanced(ctx context.Context, ident entity.Identity, turn *entity.Turn) {
	if s.eventPublisher == nil {
		return
	}
	event := events.New(events.TypePromptEnhanced, map[string]interface{}{
		"turn_id":       turn.Id,
		"identity_kind": string(ident.Kind()),
		"history_used":  turn.HistoryUsed,
		"model":         turn.Model,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("enhance", "failed to publish PROMPT_ENHANCED event", map[string]interface{}{"error": err.Error()})
	}
}

// deriveTitle takes the first few words of the prompt for auto-created
// sessions.
func deriveTitle(prompt string) string {
	const maxLen = 60
	if len(prompt) <= maxLen {
		return prompt
	}
	return prompt[:maxLen] + "…"
}
