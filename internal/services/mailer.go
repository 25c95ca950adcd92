package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/balaghcms/notification-service/internal/config"
	"github.com/balaghcms/notification-service/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrTransportUnavailable means the mail transport cannot be used at all
// (missing credentials or sender address). It aborts a batch before any
// per-recipient send is attempted.
var ErrTransportUnavailable = errors.New("email service not available")

const gmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// TokenSource provides bearer tokens for the Gmail API calls. Configured
// reports whether credentials are present at all, without minting.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Configured() bool
}

// Mailer is the outbound email transport.
type Mailer interface {
	// Ready reports a transport-initialization failure, if any.
	Ready() error
	// Send delivers one HTML email and returns the provider message id.
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// GmailMailer sends through the Gmail API using the shared service-account
// token source.
type GmailMailer struct {
	cfg        config.MailConfig
	tokens     TokenSource
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	log        *zap.Logger
}

func NewGmailMailer(cfg config.MailConfig, tokens TokenSource, log *zap.Logger) *GmailMailer {
	return &GmailMailer{
		cfg:    cfg,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cb:  circuitbreaker.NewCircuitBreaker("gmail"),
		log: log,
	}
}

func (m *GmailMailer) Ready() error {
	if m.cfg.FromAddress == "" || m.tokens == nil || !m.tokens.Configured() {
		return ErrTransportUnavailable
	}
	return nil
}

func (m *GmailMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	if err := m.Ready(); err != nil {
		return "", err
	}

	raw := m.encodeMessage(to, subject, html)
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return "", err
	}

	result, err := m.cb.Execute(func() (interface{}, error) {
		token, err := m.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, gmailSendURL,
			bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gmail api error: %d %s", resp.StatusCode, body)
		}
		var sent struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &sent); err != nil {
			return nil, fmt.Errorf("decode gmail response: %w", err)
		}
		return sent.ID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// encodeMessage builds the RFC 2822 message and base64url-encodes it the way
// the Gmail API expects its raw field.
func (m *GmailMailer) encodeMessage(to, subject, html string) string {
	from := m.cfg.FromAddress
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>",
			mime.QEncoding.Encode("UTF-8", m.cfg.FromName), m.cfg.FromAddress)
	}
	message := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("UTF-8", subject),
		"Content-Type: text/html; charset=utf-8",
		"MIME-Version: 1.0",
		"",
		html,
	}, "\r\n")
	return base64.RawURLEncoding.EncodeToString([]byte(message))
}
