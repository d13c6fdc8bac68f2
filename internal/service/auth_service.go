package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/config"
	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/events"
	"github.com/spec-kit/content-gateway/internal/policy"
	"github.com/spec-kit/content-gateway/internal/repository"
	"github.com/spec-kit/content-gateway/internal/worker"
	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	hashes     *worker.HashPool
	dispatcher events.Dispatcher
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	HashPool    *worker.HashPool
	Dispatcher  events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:   deps.AccountRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL()),
		hashes:     deps.HashPool,
		dispatcher: deps.Dispatcher,
	}
}

// Register creates a new viewer account and issues its first token.
// Email uniqueness is enforced by the accounts unique index, so two
// concurrent registrations of the same address cannot both succeed.
func (s *AuthService) Register(ctx context.Context, email, password, tierRaw string) (*domain.Account, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}
	if tierRaw == "" {
		tierRaw = string(policy.TierFree)
	}
	tier, ok := policy.ParseTier(tierRaw)
	if !ok {
		return nil, "", time.Time{}, apperrors.NewValidationError("tier must be free or premium",
			map[string]any{"tier": tierRaw})
	}

	hash, err := s.hashes.Hash(ctx, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	account := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		Tier:         tier,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", time.Time{}, apperrors.NewDuplicateAccount(email)
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.Issue(account)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccountRegistered,
			Timestamp: time.Now().UTC(),
			Payload: events.AccountRegisteredPayload{
				AccountID: account.ID,
				Email:     account.Email,
				Tier:      account.Tier,
			},
		})
	}
	return account, token, exp, nil
}

// Login authenticates a viewer and issues a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}

	match, err := s.hashes.Match(ctx, account.PasswordHash, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !match {
		return nil, "", time.Time{}, apperrors.NewUnauthenticated("invalid credentials")
	}

	token, exp, err := s.tokenMgr.Issue(account)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return account, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
