package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/soundmatch/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	YandexTokenURL  = "https://oauth.yandex.ru/token"
)

// TokenProvider supplies a bearer credential for one platform.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentials fetches tokens with the OAuth2 client-credentials grant
// and reuses them until they expire.
type ClientCredentials struct {
	source oauth2.TokenSource
}

// NewClientCredentials returns nil when either credential is blank, which
// callers treat as "not configured".
func NewClientCredentials(clientID, clientSecret, tokenURL string, httpClient *http.Client) *ClientCredentials {
	if clientID == "" || clientSecret == "" {
		return nil
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return &ClientCredentials{source: cfg.TokenSource(ctx)}
}

// Token returns a cached access token, fetching a new one when needed.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c == nil {
		return "", shared.ErrMissingCredentials
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return tok.AccessToken, nil
}

// StaticToken is a fixed, pre-issued bearer token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", shared.ErrNotAuthenticated
	}
	return string(s), nil
}

// bearer resolves a token from tp, treating a nil provider as unconfigured.
func bearer(ctx context.Context, tp TokenProvider) (string, error) {
	if tp == nil {
		return "", shared.ErrMissingCredentials
	}
	// a typed nil *ClientCredentials still answers with ErrMissingCredentials
	return tp.Token(ctx)
}
