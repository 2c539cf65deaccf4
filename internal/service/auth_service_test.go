package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/pkg/quota"
)

const testJWTSecret = "test-secret"

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendWelcome(toEmail, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

type authFixture struct {
	service IAuthService
	factory *fakeFactory
	ledger  *quota.Ledger
	mailer  *fakeMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := quota.NewLedger(rdb)

	factory := newFakeFactory()
	mail := &fakeMailer{}
	quotaSvc := NewQuotaService(ledger, nil, nopLogger{})
	svc := NewAuthService(factory, mail, quotaSvc, nil, testJWTSecret, nopLogger{})

	return &authFixture{service: svc, factory: factory, ledger: ledger, mailer: mail}
}

func TestRegisterCreatesActiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.Email)
	assert.False(t, res.QuotaLinked)

	uow := f.factory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: "ada@example.com"})
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, entity.UserStatusActive, user.Status)
	assert.NotNil(t, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("correct-horse")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	req := &dto.RegisterRequest{Email: "dup@example.com", Password: "password1", FullName: "Dup"}

	_, err := f.service.Register(ctx, req, "")
	assert.NoError(t, err)

	_, err = f.service.Register(ctx, req, "")
	assert.Error(t, err)
}

func TestRegisterFailsWhenEmailLookupFails(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.factory.store.mu.Lock()
	f.factory.store.userFindOneErr = errors.New("connection reset")
	f.factory.store.mu.Unlock()

	// A failed duplicate check must not admit the registration.
	_, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada",
	}, "")
	assert.Error(t, err)

	f.factory.store.mu.Lock()
	f.factory.store.userFindOneErr = nil
	created := len(f.factory.store.users)
	f.factory.store.mu.Unlock()
	assert.Zero(t, created)
}

func TestRegisterFoldsAnonymousQuota(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// The visitor spent some anonymous quota before signing up.
	for i := 0; i < 4; i++ {
		_, err := f.ledger.CheckAndIncrement(ctx, quota.KindAnonymous, "anon-token", 10)
		assert.NoError(t, err)
	}

	res, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada",
	}, "anon-token")
	assert.NoError(t, err)
	assert.True(t, res.QuotaLinked)
	assert.Equal(t, 4, res.QuotaLinkedCount)

	usage, err := f.ledger.GetUsage(ctx, quota.KindUser, res.Id.String(), 20)
	assert.NoError(t, err)
	assert.Equal(t, 4, usage.Used)
}

func TestLoginReturnsValidJWT(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FullName: "Ada",
	}, "")
	assert.NoError(t, err)

	res, err := f.service.Login(ctx, &dto.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse",
	}, "", "198.51.100.1", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken) // no remember-me

	token, err := jwt.Parse(res.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.NotEmpty(t, claims["user_id"])

	exp, err := claims.GetExpirationTime()
	assert.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
}

func TestLoginWithRememberMeIssuesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FullName: "Ada",
	}, "")
	assert.NoError(t, err)

	res, err := f.service.Login(ctx, &dto.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse", RememberMe: true,
	}, "", "198.51.100.1", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FullName: "Ada",
	}, "")
	assert.NoError(t, err)

	_, err = f.service.Login(ctx, &dto.LoginRequest{
		Email: "ada@example.com", Password: "wrong",
	}, "", "ip", "ua")
	assert.Error(t, err)

	_, err = f.service.Login(ctx, &dto.LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	}, "", "ip", "ua")
	assert.Error(t, err)
}

func TestLoginFoldsAnonymousQuota(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, &dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FullName: "Ada",
	}, "")
	assert.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.ledger.CheckAndIncrement(ctx, quota.KindAnonymous, "later-visit", 10)
		assert.NoError(t, err)
	}

	res, err := f.service.Login(ctx, &dto.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse",
	}, "later-visit", "ip", "ua")
	assert.NoError(t, err)
	assert.True(t, res.QuotaLinked)
	assert.Equal(t, 2, res.QuotaLinkedCount)
}

func TestLogoutWithEmptyTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)
	assert.NoError(t, f.service.Logout(context.Background(), ""))
}
