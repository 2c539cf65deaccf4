package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/repository/contract"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/internal/repository/unitofwork"
	"prompt-polish-be/pkg/enhance"
)

// In-memory repository fakes. They interpret the same specification structs
// the GORM implementations translate to SQL, so service tests exercise the
// real query shapes.

type memStore struct {
	mu        sync.Mutex
	users     []*entity.User
	sessions  []*entity.Session
	turns     []*entity.Turn
	providers []*entity.UserProvider

	// userFindOneErr makes the next user lookups fail, for storage-error
	// paths.
	userFindOneErr error
}

type fakeFactory struct {
	store *memStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: &memStore{}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *memStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}
func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUow) TurnRepository() contract.TurnRepository {
	return &fakeTurnRepo{store: u.store}
}

func ownerMatches(owner, candidate entity.Identity) bool {
	if userID, ok := owner.UserID(); ok {
		cid, cok := candidate.UserID()
		return cok && cid == userID
	}
	if anonID, ok := owner.AnonID(); ok {
		cid, cok := candidate.AnonID()
		return cok && cid == anonID
	}
	return false
}

// --- sessions ---

type fakeSessionRepo struct {
	store *memStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *session
	r.store.sessions = append(r.store.sessions, &copied)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, s := range r.store.sessions {
		if s.Id == session.Id {
			copied := *session
			r.store.sessions[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.sessions[:0]
	for _, s := range r.store.sessions {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.store.sessions = kept
	return nil
}

func (r *fakeSessionRepo) matches(s *entity.Session, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.OwnedBy:
			if !ownerMatches(sp.Owner, s.Owner) {
				return false
			}
		}
	}
	return true
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if r.matches(s, specs) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Session
	for _, s := range r.store.sessions {
		if r.matches(s, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeSessionRepo) TransferOwnership(ctx context.Context, sessionID, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.Id == sessionID {
			s.Owner = entity.UserIdentity(userID)
		}
	}
	return nil
}

// --- turns ---

type fakeTurnRepo struct {
	store *memStore
}

func (r *fakeTurnRepo) Create(ctx context.Context, turn *entity.Turn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *turn
	r.store.turns = append(r.store.turns, &copied)
	return nil
}

func (r *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.Turn
	for _, t := range r.store.turns {
		if r.matches(t, specs) {
			copied := *t
			out = append(out, &copied)
		}
	}

	for _, spec := range specs {
		if sp, ok := spec.(specification.OrderBy); ok && sp.Field == "created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				if sp.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	for _, spec := range specs {
		if sp, ok := spec.(specification.Pagination); ok && sp.Limit > 0 && len(out) > sp.Limit {
			out = out[:sp.Limit]
		}
	}
	return out, nil
}

func (r *fakeTurnRepo) matches(t *entity.Turn, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.BySessionID:
			if t.SessionId == nil || *t.SessionId != sp.SessionID {
				return false
			}
		case specification.OwnedBy:
			if !ownerMatches(sp.Owner, t.Owner) {
				return false
			}
		}
	}
	return true
}

func (r *fakeTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeTurnRepo) DeleteBySessionID(ctx context.Context, sessionID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.turns[:0]
	for _, t := range r.store.turns {
		if t.SessionId == nil || *t.SessionId != sessionID {
			kept = append(kept, t)
		}
	}
	r.store.turns = kept
	return nil
}

func (r *fakeTurnRepo) TransferOwnershipBySession(ctx context.Context, sessionID, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.turns {
		if t.SessionId != nil && *t.SessionId == sessionID {
			t.Owner = entity.UserIdentity(userID)
		}
	}
	return nil
}

// --- users ---

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *user
	r.store.users = append(r.store.users, &copied)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.userFindOneErr != nil {
		return nil, r.store.userFindOneErr
	}
	for _, u := range r.store.users {
		match := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.ByEmail); ok && u.Email != sp.Email {
				match = false
			}
		}
		if match {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.users)), nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	return nil
}
func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error { return nil }
func (r *fakeUserRepo) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *provider
	r.store.providers = append(r.store.providers, &copied)
	return nil
}

// --- provider / verifier / scheduler stubs ---

type fakeProvider struct {
	mu          sync.Mutex
	enhanceFn   func(req enhance.Request) (*enhance.Result, error)
	completeFn  func(prompt string) (string, error)
	enhanceReqs []enhance.Request
}

func (p *fakeProvider) Enhance(ctx context.Context, req enhance.Request) (*enhance.Result, error) {
	p.mu.Lock()
	p.enhanceReqs = append(p.enhanceReqs, req)
	p.mu.Unlock()
	if p.enhanceFn != nil {
		return p.enhanceFn(req)
	}
	return &enhance.Result{
		EnhancedText: "Write a detailed, well-structured version of: " + req.Prompt,
		InputTokens:  10,
		OutputTokens: 20,
		Model:        "fake-model",
	}, nil
}

func (p *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.completeFn != nil {
		return p.completeFn(prompt)
	}
	return "Goal: something\nTone: neutral", nil
}

func (p *fakeProvider) lastEnhanceRequest() (enhance.Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.enhanceReqs) == 0 {
		return enhance.Request{}, false
	}
	return p.enhanceReqs[len(p.enhanceReqs)-1], true
}

type passVerifier struct{}

func (passVerifier) Verify(enhanced string) enhance.Verification {
	return enhance.Verification{IsValid: true}
}

type failOnceVerifier struct {
	calls int
}

func (v *failOnceVerifier) Verify(enhanced string) enhance.Verification {
	v.calls++
	if v.calls == 1 {
		return enhance.Verification{IsValid: false, Missing: []string{"task"}}
	}
	return enhance.Verification{IsValid: true}
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
}

func (s *fakeScheduler) Schedule(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, sessionID)
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
