// Package credential resolves the bearer token used by the guru client.
//
// Sources are combined with Chain in a fixed precedence order: an explicit
// override, then the persisted setting, then extension functions. Cached
// wraps a provider so the setting is not read on every request.
package credential

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/snippets-guru/internal/cache"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
)

// DefaultTTL is how long Cached remembers a resolved token.
const DefaultTTL = time.Hour

var (
	_ guru.TokenProvider = Static("")
	_ guru.TokenProvider = Func(nil)
	_ guru.TokenProvider = (*Settings)(nil)
	_ guru.TokenProvider = Chain(nil)
	_ guru.TokenProvider = (*Cached)(nil)
)

// Static always returns token. An empty token is absent.
type Static string

func (s Static) Retrieve(context.Context) (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// Func adapts a function to guru.TokenProvider. It is the extension point
// for tokens held outside the settings store.
type Func func(ctx context.Context) (string, bool)

func (f Func) Retrieve(ctx context.Context) (string, bool) {
	return f(ctx)
}

// SettingReader is the part of the settings repository the provider needs.
type SettingReader interface {
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
}

// Settings reads the persisted cloud_auth_token setting.
type Settings struct {
	repo   SettingReader
	logger *slog.Logger
}

func NewSettings(repo SettingReader, logger *slog.Logger) *Settings {
	return &Settings{repo: repo, logger: logger}
}

// Retrieve reports absent when the setting is missing, empty or unreadable.
func (s *Settings) Retrieve(ctx context.Context) (string, bool) {
	value, ok, err := s.repo.GetSetting(ctx, model.SettingAuthToken)
	if err != nil {
		s.logger.Warn("reading auth token setting", slog.String("error", err.Error()))
		return "", false
	}
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Chain returns the first non-empty token from its providers, in order.
type Chain []guru.TokenProvider

func (c Chain) Retrieve(ctx context.Context) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token, ok := p.Retrieve(ctx); ok && token != "" {
			return token, true
		}
	}
	return "", false
}

// NewChain builds the standard precedence: override, settings, extensions.
// A nil override or settings provider is skipped.
func NewChain(override, settings guru.TokenProvider, extensions ...guru.TokenProvider) Chain {
	chain := Chain{override, settings}
	return append(chain, extensions...)
}

// Cached remembers the token of its inner provider for a fixed TTL.
// Absent results are not remembered.
type Cached struct {
	inner guru.TokenProvider
	memo  *cache.TTL[struct{}, string]
}

func NewCached(inner guru.TokenProvider, ttl time.Duration, opts ...cache.Option) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{
		inner: inner,
		memo:  cache.New[struct{}, string](ttl, opts...),
	}
}

func (c *Cached) Retrieve(ctx context.Context) (string, bool) {
	if token, ok := c.memo.Get(struct{}{}); ok {
		return token, true
	}

	token, ok := c.inner.Retrieve(ctx)
	if !ok || token == "" {
		return "", false
	}

	c.memo.Set(struct{}{}, token)
	return token, true
}

// Invalidate drops the remembered token. Call it whenever the token setting
// changes.
func (c *Cached) Invalidate() {
	c.memo.Clear()
}
