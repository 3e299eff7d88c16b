package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// defaultTokenLifetime applies when the provider omits expires_in.
const defaultTokenLifetime = time.Hour

// googleScopes grant full Drive access plus the identity of the account.
var googleScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/drive.metadata.readonly",
	"openid",
	"email",
	"profile",
}

type googleOAuthProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewGoogleOAuthProvider constructs an [OAuthProvider] for Google. Empty
// cfg.AuthURL and cfg.TokenURL fall back to Google's endpoints.
func NewGoogleOAuthProvider(cfg config.Google, logger *logger.Logger) OAuthProvider {
	endpoint := endpoints.Google
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &googleOAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       googleScopes,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AuthCodeURL implements [OAuthProvider]. It always asks for offline access
// and forces the consent screen so that a refresh token is issued on every
// link.
func (g *googleOAuthProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (g *googleOAuthProvider) Exchange(ctx context.Context, code string) (models.OAuthToken, error) {
	token, err := g.config.Exchange(g.clientContext(ctx), code)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*googleOAuthProvider.Exchange").Msg("code exchange failed")
		return models.OAuthToken{}, fmt.Errorf("%w: %w", ErrOAuthExchange, err)
	}

	return toOAuthToken(token), nil
}

func (g *googleOAuthProvider) Refresh(ctx context.Context, refreshToken string) (models.OAuthToken, error) {
	if refreshToken == "" {
		return models.OAuthToken{}, ErrNoRefreshToken
	}

	source := g.config.TokenSource(g.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*googleOAuthProvider.Refresh").Msg("token refresh failed")

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && (retrieveErr.ErrorCode == "invalid_grant" || retrieveErr.ErrorCode == "unauthorized_client") {
			return models.OAuthToken{}, fmt.Errorf("%w: %s", ErrRefreshRevoked, retrieveErr.ErrorDescription)
		}
		return models.OAuthToken{}, fmt.Errorf("%w: refresh: %w", ErrProviderUnavailable, err)
	}

	return toOAuthToken(token), nil
}

func (g *googleOAuthProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}

func toOAuthToken(token *oauth2.Token) models.OAuthToken {
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(defaultTokenLifetime)
	}

	return models.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       expiry.UTC(),
	}
}
