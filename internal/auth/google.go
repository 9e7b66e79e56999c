package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// IdentityProvider is the external login step: redirect out, then exchange the code.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (entity.GoogleProfile, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// overridable in tests
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	logger      *slog.Logger
}

func NewGoogleProvider(cfg GoogleConfig, logger *slog.Logger) *GoogleProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = endpoints.Google
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: cfg.UserInfoURL,
		logger:      logger,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the user's profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (entity.GoogleProfile, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		g.logger.Warn("auth.google.exchange.failed", "error", err)
		return entity.GoogleProfile{}, common.UnauthorizedError("google code exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return entity.GoogleProfile{}, err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		g.logger.Warn("auth.google.userinfo.failed", "error", err)
		return entity.GoogleProfile{}, fmt.Errorf("%w: userinfo: %w", common.ErrUpstream, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		g.logger.Warn("auth.google.userinfo.status", "status", resp.StatusCode)
		return entity.GoogleProfile{}, fmt.Errorf("%w: userinfo status %d", common.ErrUpstream, resp.StatusCode)
	}

	var p entity.GoogleProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return entity.GoogleProfile{}, fmt.Errorf("%w: decode userinfo: %w", common.ErrUpstream, err)
	}
	if p.Subject == "" {
		return entity.GoogleProfile{}, common.UnauthorizedError("google profile has no subject")
	}
	return p, nil
}
