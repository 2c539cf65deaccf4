package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"prompt-polish-be/internal/apperror"
	"prompt-polish-be/internal/constant"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/pkg/enhance"
	"prompt-polish-be/pkg/quota"
)

type enhanceFixture struct {
	service   IEnhanceService
	factory   *fakeFactory
	provider  *fakeProvider
	scheduler *fakeScheduler
}

func newEnhanceFixture(t *testing.T, verifier enhance.Verifier) *enhanceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := quota.NewLedger(rdb)

	factory := newFakeFactory()
	provider := &fakeProvider{}
	scheduler := &fakeScheduler{}

	svc := NewEnhanceService(factory, ledger, provider, verifier, scheduler, nil, nopLogger{})
	return &enhanceFixture{
		service:   svc,
		factory:   factory,
		provider:  provider,
		scheduler: scheduler,
	}
}

func TestEnhanceAnonymousQuotaCountdown(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()
	ident := entity.AnonymousIdentity("visitor-1")

	for i := 0; i < constant.AnonymousDailyLimit; i++ {
		res, err := f.service.Enhance(ctx, ident, "198.51.100.1", &dto.EnhanceRequest{
			Prompt: "Write a poem about the sea",
		})
		assert.NoError(t, err)
		assert.Equal(t, constant.AnonymousDailyLimit-i-1, res.Quota.Remaining)
		assert.Equal(t, i+1, res.Quota.Used)
	}

	_, err := f.service.Enhance(ctx, ident, "198.51.100.1", &dto.EnhanceRequest{
		Prompt: "One more poem please",
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeQuotaExceeded, appErr.Code)
	assert.Equal(t, 429, appErr.Status)
}

func TestEnhanceIPGateRejectsBeforeIdentityGate(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()

	// Many distinct anonymous visitors behind one IP exhaust the IP ceiling.
	for i := 0; i < constant.IPDailyLimitAnonymous; i++ {
		ident := entity.AnonymousIdentity(uuid.New().String())
		_, err := f.service.Enhance(ctx, ident, "203.0.113.9", &dto.EnhanceRequest{Prompt: "Write a limerick"})
		assert.NoError(t, err)
	}

	ident := entity.AnonymousIdentity(uuid.New().String())
	_, err := f.service.Enhance(ctx, ident, "203.0.113.9", &dto.EnhanceRequest{Prompt: "Write a limerick"})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeQuotaExceeded, appErr.Code)
}

func TestEnhanceStandalonePromptSkipsContext(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("v"), "ip", &dto.EnhanceRequest{
		Prompt:     "Write a poem about the sea",
		UseHistory: true,
		RecentTurns: []dto.RecentTurnDTO{
			{Role: "user", Content: "earlier prompt"},
		},
	})
	assert.NoError(t, err)
	assert.False(t, res.IsFollowUp)
	assert.Equal(t, 0, res.ContextUsed.LastTurns)

	req, ok := f.provider.lastEnhanceRequest()
	assert.True(t, ok)
	assert.Equal(t, "", req.Context)
}

func TestEnhanceFollowUpBuildsContextFromRequestTurns(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("v"), "ip", &dto.EnhanceRequest{
		Prompt:     "What about a shorter version?",
		UseHistory: true,
		RecentTurns: []dto.RecentTurnDTO{
			{Role: "user", Content: "write a poem about the sea"},
			{Role: "assistant", Content: "The waves roll in..."},
		},
	})
	assert.NoError(t, err)
	assert.True(t, res.IsFollowUp)
	assert.Equal(t, 2, res.ContextUsed.LastTurns)

	req, ok := f.provider.lastEnhanceRequest()
	assert.True(t, ok)
	assert.Contains(t, req.Context, "Recent conversation:")
	assert.Contains(t, req.Context, "user: write a poem about the sea")
}

func TestEnhanceFollowUpWithoutUseHistorySkipsContext(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("v"), "ip", &dto.EnhanceRequest{
		Prompt:     "What about a shorter version?",
		UseHistory: false,
		RecentTurns: []dto.RecentTurnDTO{
			{Role: "user", Content: "write a poem"},
		},
	})
	assert.NoError(t, err)
	assert.True(t, res.IsFollowUp)
	assert.Equal(t, 0, res.ContextUsed.LastTurns)
}

func TestEnhanceAutoCreatesSessionAndSchedulesRefresh(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()
	ident := entity.AnonymousIdentity("v")

	res, err := f.service.Enhance(ctx, ident, "ip", &dto.EnhanceRequest{
		Prompt:            "Write a poem about the sea",
		AutoCreateSession: true,
	})
	assert.NoError(t, err)
	assert.NotNil(t, res.SessionId)

	// Session persisted and owned by the caller.
	uow := f.factory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.True(t, ownerMatches(ident, sessions[0].Owner))

	// Turn recorded against the session.
	turns, err := uow.TurnRepository().FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Equal(t, *res.SessionId, *turns[0].SessionId)
	assert.Equal(t, "Write a poem about the sea", turns[0].OriginalText)

	// Synopsis refresh queued for that session.
	assert.Equal(t, []uuid.UUID{*res.SessionId}, f.scheduler.scheduled)
}

func TestEnhanceWrongOwnerSessionProceedsSessionless(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	ctx := context.Background()

	// Session owned by someone else.
	uow := f.factory.NewUnitOfWork(ctx)
	other := entity.AnonymousIdentity("someone-else")
	session := &entity.Session{Id: uuid.New(), Owner: other, Title: "theirs"}
	assert.NoError(t, uow.SessionRepository().Create(ctx, session))

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("me"), "ip", &dto.EnhanceRequest{
		Prompt:    "Write a poem about the sea",
		SessionId: &session.Id,
	})
	assert.NoError(t, err)
	assert.Nil(t, res.SessionId)
	assert.Empty(t, f.scheduler.scheduled)
}

func TestEnhanceProviderFailureIsFatalButCounted(t *testing.T) {
	f := newEnhanceFixture(t, passVerifier{})
	f.provider.enhanceFn = func(req enhance.Request) (*enhance.Result, error) {
		return nil, errors.New("connection refused")
	}
	ctx := context.Background()
	ident := entity.AnonymousIdentity("v")

	_, err := f.service.Enhance(ctx, ident, "ip", &dto.EnhanceRequest{Prompt: "Write a story"})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeEnhancementFailed, appErr.Code)
	assert.Equal(t, 502, appErr.Status)

	// No turn persisted for the failed call.
	uow := f.factory.NewUnitOfWork(ctx)
	turns, _ := uow.TurnRepository().FindAll(ctx)
	assert.Empty(t, turns)
}

func TestEnhanceRepairPassRunsOnceOnVerificationFailure(t *testing.T) {
	verifier := &failOnceVerifier{}
	f := newEnhanceFixture(t, verifier)
	f.provider.completeFn = func(prompt string) (string, error) {
		return "Write a complete, detailed brief covering the original request.", nil
	}
	ctx := context.Background()

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("v"), "ip", &dto.EnhanceRequest{
		Prompt: "Make it pop",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Write a complete, detailed brief covering the original request.", res.EnhancedText)
	// First verification failed, repaired text verified once more.
	assert.Equal(t, 2, verifier.calls)
}

func TestEnhanceKeepsOriginalWhenRepairFails(t *testing.T) {
	verifier := &failOnceVerifier{}
	f := newEnhanceFixture(t, verifier)
	f.provider.completeFn = func(prompt string) (string, error) {
		return "", errors.New("timeout")
	}
	ctx := context.Background()

	res, err := f.service.Enhance(ctx, entity.AnonymousIdentity("v"), "ip", &dto.EnhanceRequest{
		Prompt: "Make it pop",
	})
	assert.NoError(t, err)
	assert.Contains(t, res.EnhancedText, "Make it pop")
}
