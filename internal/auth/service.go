package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

// UserStore is the slice of the user repository login needs.
type UserStore interface {
	UpsertGoogle(ctx context.Context, profile entity.GoogleProfile) (*entity.User, error)
}

// Session is what a completed login hands back to the browser.
type Session struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

type Service struct {
	provider IdentityProvider
	states   StateStore
	tokens   *TokenIssuer
	users    UserStore
	logger   *slog.Logger
}

func NewService(provider IdentityProvider, states StateStore, tokens *TokenIssuer, users UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, states: states, tokens: tokens, users: users, logger: logger}
}

// BeginLogin returns the provider URL to redirect the browser to.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	state, err := s.states.Issue(ctx)
	if err != nil {
		s.logger.Error("auth.state.issue.failed", "error", err)
		return "", err
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates state, exchanges the code, upserts the user by
// provider subject and issues a session token.
func (s *Service) CompleteLogin(ctx context.Context, state, code string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, common.InvalidArgumentError("missing authorization code")
	}
	if err := s.states.Consume(ctx, state); err != nil {
		return nil, err
	}
	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpsertGoogle(ctx, profile)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth.login.ok", "user_id", user.ID)
	return &Session{Token: token, TokenType: "Bearer", ExpiresAt: exp, User: user}, nil
}
