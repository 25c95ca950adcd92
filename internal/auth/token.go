package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/balaghcms/notification-service/internal/config"
	"github.com/golang-jwt/jwt"
)

// ErrNotConfigured is returned when the service-account credentials are
// missing from the environment.
var ErrNotConfigured = errors.New("google service account not configured")

const refreshSkew = time.Minute

// TokenSource mints Google OAuth2 access tokens from a service-account key
// by exchanging a signed RS256 assertion. The token is cached until close to
// expiry, and the whole thing is guarded by a mutex so overlapping requests
// share one handle instead of racing a checked-then-set flag.
type TokenSource struct {
	cfg        config.GoogleConfig
	httpClient *http.Client

	mu     sync.Mutex
	key    *rsa.PrivateKey
	token  string
	expiry time.Time
}

func NewTokenSource(cfg config.GoogleConfig) *TokenSource {
	return &TokenSource{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether credentials are present, without minting.
func (t *TokenSource) Configured() bool {
	return t.cfg.ClientEmail != "" && t.cfg.PrivateKey != ""
}

// Token returns a valid access token, minting or refreshing as needed.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry.Add(-refreshSkew)) {
		return t.token, nil
	}

	if !t.Configured() {
		return "", ErrNotConfigured
	}
	if t.key == nil {
		// Keys pasted into env vars often carry literal \n sequences.
		pem := strings.ReplaceAll(t.cfg.PrivateKey, `\n`, "\n")
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
		if err != nil {
			return "", fmt.Errorf("parse service account key: %w", err)
		}
		t.key = key
	}

	assertion, err := t.signAssertion()
	if err != nil {
		return "", err
	}
	token, expiresIn, err := t.exchange(ctx, assertion)
	if err != nil {
		return "", err
	}

	t.token = token
	t.expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return t.token, nil
}

func (t *TokenSource) signAssertion() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   t.cfg.ClientEmail,
		"scope": strings.Join(t.cfg.Scopes, " "),
		"aud":   t.cfg.TokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

func (t *TokenSource) exchange(ctx context.Context, assertion string) (string, int64, error) {
	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("no access token received: status %d", resp.StatusCode)
	}
	if payload.ExpiresIn == 0 {
		payload.ExpiresIn = 3600
	}
	return payload.AccessToken, payload.ExpiresIn, nil
}
