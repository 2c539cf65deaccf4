// FILE: internal/service/quota_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prompt-polish-be/internal/constant"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/pkg/logger"
	"prompt-polish-be/pkg/events"
	pktNats "prompt-polish-be/pkg/nats"
	"prompt-polish-be/pkg/quota"
)

type IQuotaService interface {
	GetUsage(ctx context.Context, ident entity.Identity, ip string) (*dto.QuotaUsageResponse, error)
	Link(ctx context.Context, userID uuid.UUID, anonID string) (*dto.LinkQuotaResponse, error)
	LinkBestEffort(ctx context.Context, userID uuid.UUID, anonID string) (bool, int)
}

type quotaService struct {
	ledger         *quota.Ledger
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewQuotaService(ledger *quota.Ledger, eventPublisher *pktNats.Publisher, log logger.ILogger) IQuotaService {
	return &quotaService{
		ledger:         ledger,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// CeilingFor maps an identity kind to its daily ceiling.
func CeilingFor(ident entity.Identity) int {
	if ident.IsUser() {
		return constant.UserDailyLimit
	}
	return constant.AnonymousDailyLimit
}

// IPCeilingFor returns the coarse per-IP ceiling, looser for authenticated
// traffic.
func IPCeilingFor(ident entity.Identity) int {
	if ident.IsUser() {
		return constant.IPDailyLimitAuthenticated
	}
	return constant.IPDailyLimitAnonymous
}

func kindFor(ident entity.Identity) quota.Kind {
	if ident.IsUser() {
		return quota.KindUser
	}
	return quota.KindAnonymous
}

func (s *quotaService) GetUsage(ctx context.Context, ident entity.Identity, ip string) (*dto.QuotaUsageResponse, error) {
	identityUsage, err := s.ledger.GetUsage(ctx, kindFor(ident), ident.Key(), CeilingFor(ident))
	if err != nil {
		return nil, fmt.Errorf("identity usage: %w", err)
	}

	ipUsage, err := s.ledger.GetUsage(ctx, quota.KindIP, ip, IPCeilingFor(ident))
	if err != nil {
		return nil, fmt.Errorf("ip usage: %w", err)
	}

	return &dto.QuotaUsageResponse{
		Identity: dto.QuotaDTO{Used: identityUsage.Used, Limit: identityUsage.Limit, Remaining: identityUsage.Remaining},
		IP:       dto.QuotaDTO{Used: ipUsage.Used, Limit: ipUsage.Limit, Remaining: ipUsage.Remaining},
	}, nil
}

// Link folds today's anonymous usage into the user's counter. Idempotent:
// already-linked and nothing-to-link both come back {linked:false, count:0}.
func (s *quotaService) Link(ctx context.Context, userID uuid.UUID, anonID string) (*dto.LinkQuotaResponse, error) {
	res, err := s.ledger.LinkAnonymousToUser(ctx, userID.String(), anonID)
	if err != nil {
		return nil, err
	}

	if res.Linked && s.eventPublisher != nil {
		event := events.New(events.TypeQuotaLinked, map[string]interface{}{
			"user_id": userID,
			"count":   res.Count,
			"time":    time.Now().Format(time.RFC822),
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("quota", "failed to publish QUOTA_LINKED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.LinkQuotaResponse{Linked: res.Linked, Count: res.Count}, nil
}

// LinkBestEffort is the auth call-site variant: a link failure is logged and
// swallowed so signup/login/OAuth always succeed regardless.
func (s *quotaService) LinkBestEffort(ctx context.Context, userID uuid.UUID, anonID string) (bool, int) {
	if anonID == "" {
		return false, 0
	}
	res, err := s.Link(ctx, userID, anonID)
	if err != nil {
		s.logger.Warn("quota", "anonymous quota link failed", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		return false, 0
	}
	return res.Linked, res.Count
}
