package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/snippets-guru/internal/cache"
	"github.com/sakif/snippets-guru/internal/credential"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

// AccountTTL is how long the remote account profile is remembered.
const AccountTTL = time.Hour

const InvalidTokenMessage = "Snippets Guru: Invalid authorization token."

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a user-facing message produced while saving settings.
type Notice struct {
	Code    string
	Level   NoticeLevel
	Message string
}

// TokenSource is the client's token provider plus the ability to forget a
// cached token.
type TokenSource interface {
	guru.TokenProvider
	Invalidate()
}

// AccountService gates cloud features on the remote account and manages the
// persisted auth token.
type AccountService struct {
	client   *guru.Client
	tokens   TokenSource
	settings repository.SettingRepository
	accounts *cache.TTL[string, *guru.Account]
	logger   *slog.Logger
}

func NewAccountService(
	client *guru.Client,
	tokens TokenSource,
	settings repository.SettingRepository,
	logger *slog.Logger,
	opts ...cache.Option,
) *AccountService {
	return &AccountService{
		client:   client,
		tokens:   tokens,
		settings: settings,
		accounts: cache.New[string, *guru.Account](AccountTTL, opts...),
		logger:   logger,
	}
}

// Current returns the account of the configured token, or nil when no token
// is configured. Profiles are remembered per token for AccountTTL.
func (s *AccountService) Current(ctx context.Context) (*guru.Account, error) {
	token, ok := s.tokens.Retrieve(ctx)
	if !ok {
		return nil, nil
	}

	acct, err := s.accounts.GetOrLoad(ctx, token, s.client.Account)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching account: %w", err)
	}
	return acct, nil
}

// SaveAuthToken verifies and stores a new token.
//
// An empty value removes the stored token. A token the service rejects is
// not stored and produces a notice instead of an error. Failures that are not
// an HTTP status are returned as errors and nothing is stored.
func (s *AccountService) SaveAuthToken(ctx context.Context, raw string) ([]Notice, error) {
	token := strings.TrimSpace(raw)

	if token == "" {
		if err := s.settings.DeleteSetting(ctx, model.SettingAuthToken); err != nil {
			return nil, fmt.Errorf("service/account: clearing token: %w", err)
		}
		s.forget()
		s.logger.Info("auth token cleared")
		return nil, nil
	}

	acct, err := s.client.WithTokenProvider(credential.Static(token)).Account(ctx)
	if err != nil {
		status := guru.StatusCode(err)
		switch {
		case status == http.StatusUnauthorized:
			return []Notice{{Code: "invalid-cloud-auth-token", Level: NoticeWarning, Message: InvalidTokenMessage}}, nil
		case status > http.StatusBadRequest:
			return []Notice{{Code: "invalid-cloud-auth-token", Level: NoticeWarning, Message: "Snippets Guru: " + statusMessage(err)}}, nil
		default:
			return nil, fmt.Errorf("service/account: verifying token: %w", err)
		}
	}

	if err := s.settings.SetSetting(ctx, model.SettingAuthToken, token); err != nil {
		return nil, fmt.Errorf("service/account: storing token: %w", err)
	}
	s.forget()
	s.accounts.Set(token, acct)

	s.logger.Info("auth token saved",
		slog.String("username", acct.Username),
		slog.Bool("billing_active", acct.Billing.IsActive),
	)

	if !acct.Billing.IsActive {
		return []Notice{{
			Code:    "expire-cloud-subscription",
			Level:   NoticeWarning,
			Message: "Snippets Guru: Your account has no active subscription. To extend your subscription, please purchase on " + s.client.BaseURL(),
		}}, nil
	}

	return nil, nil
}

// Login exchanges credentials for a token and stores it through SaveAuthToken.
func (s *AccountService) Login(ctx context.Context, email, password string) ([]Notice, error) {
	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("service/account: logging in: %w", err)
	}
	return s.SaveAuthToken(ctx, token)
}

func (s *AccountService) forget() {
	s.accounts.Clear()
	s.tokens.Invalidate()
}

func statusMessage(err error) string {
	var se *guru.HTTPStatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
