// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"prompt-polish-be/internal/config"
	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/pkg/logger"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/internal/repository/unitofwork"

	"prompt-polish-be/pkg/events"
	pktNats "prompt-polish-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	// HandleCallback exchanges the provider code, finds or creates the local
	// account, and folds the caller's anonymous quota into it when anonID is
	// set.
	HandleCallback(ctx context.Context, provider string, code string, anonID string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory     unitofwork.RepositoryFactory
	quotaService   IQuotaService
	eventPublisher *pktNats.Publisher
	googleConf     *oauth2.Config
	jwtSecret      string
	logger         logger.ILogger

	// fetchUser resolves the provider code to a user profile. Defaults to the
	// live Google exchange; swapped out in tests.
	fetchUser func(ctx context.Context, code string) (*googleUserInfo, error)
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	quotaService IQuotaService,
	eventPublisher *pktNats.Publisher,
	cfg *config.Config,
	log logger.ILogger,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.OAuth.GoogleClientID,
		ClientSecret: cfg.OAuth.GoogleClientSecret,
		RedirectURL:  cfg.OAuth.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	svc := &oauthService{
		uowFactory:     uowFactory,
		quotaService:   quotaService,
		eventPublisher: eventPublisher,
		googleConf:     conf,
		jwtSecret:      cfg.App.JWTSecret,
		logger:         log,
	}
	svc.fetchUser = svc.fetchGoogleUser
	return svc
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, code string) (*googleUserInfo, error) {
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string, anonID string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, errors.New("unsupported provider")
	}

	googleUser, err := s.fetchUser(ctx, code)
	if err != nil {
		return nil, err
	}
	if !googleUser.VerifiedEmail {
		return nil, errors.New("google account email is not verified")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, err
	}

	isNew := false
	if user == nil {
		var avatarURL *string
		if googleUser.Picture != "" {
			avatarURL = &googleUser.Picture
		}
		user = &entity.User{
			Id:           uuid.New(),
			Email:        googleUser.Email,
			FullName:     googleUser.Name,
			PasswordHash: nil,
			Status:       entity.UserStatusActive,
			AvatarURL:    avatarURL,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}

	userProvider := &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "google",
		ProviderUserId: googleUser.ID,
		AvatarURL:      googleUser.Picture,
		CreatedAt:      time.Now(),
	}
	if err := uow.UserRepository().SaveUserProvider(ctx, userProvider); err != nil {
		return nil, fmt.Errorf("failed to save provider info: %v", err)
	}

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := jwtToken.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	linked, linkedCount := s.quotaService.LinkBestEffort(ctx, user.Id, anonID)

	if s.eventPublisher != nil {
		eventType := events.TypeUserLogin
		if isNew {
			eventType = events.TypeUserRegistered
		}
		event := events.New(eventType, map[string]interface{}{
			"user_id":  user.Id,
			"provider": "google",
			"time":     time.Now().Format(time.RFC822),
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("oauth", "failed to publish auth event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			FullName: user.FullName,
		},
		QuotaLinked:      linked,
		QuotaLinkedCount: linkedCount,
	}, nil
}
