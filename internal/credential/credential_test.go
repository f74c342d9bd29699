package credential_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/snippets-guru/internal/cache"
	"github.com/sakif/snippets-guru/internal/credential"
	"github.com/sakif/snippets-guru/internal/model"
)

type fakeSettings struct {
	values map[string]string
	err    error
	reads  int
}

func (f *fakeSettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	f.reads++
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStatic(t *testing.T) {
	token, ok := credential.Static("abc").Retrieve(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = credential.Static("  ").Retrieve(context.Background())
	assert.False(t, ok)
}

func TestSettings(t *testing.T) {
	tests := []struct {
		name      string
		settings  *fakeSettings
		wantToken string
		wantOK    bool
	}{
		{
			name:      "stored token",
			settings:  &fakeSettings{values: map[string]string{model.SettingAuthToken: "tok"}},
			wantToken: "tok",
			wantOK:    true,
		},
		{
			name:     "missing",
			settings: &fakeSettings{values: map[string]string{}},
		},
		{
			name:     "empty value",
			settings: &fakeSettings{values: map[string]string{model.SettingAuthToken: ""}},
		},
		{
			name:     "read error",
			settings: &fakeSettings{err: errors.New("disk gone")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := credential.NewSettings(tt.settings, testLogger())
			token, ok := p.Retrieve(context.Background())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestChain_Precedence(t *testing.T) {
	settings := credential.NewSettings(&fakeSettings{values: map[string]string{model.SettingAuthToken: "from-settings"}}, testLogger())
	extension := credential.Func(func(context.Context) (string, bool) { return "from-extension", true })

	t.Run("override wins", func(t *testing.T) {
		token, ok := credential.NewChain(credential.Static("from-env"), settings, extension).Retrieve(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "from-env", token)
	})

	t.Run("settings before extensions", func(t *testing.T) {
		token, ok := credential.NewChain(credential.Static(""), settings, extension).Retrieve(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "from-settings", token)
	})

	t.Run("extension as last resort", func(t *testing.T) {
		empty := credential.NewSettings(&fakeSettings{}, testLogger())
		token, ok := credential.NewChain(nil, empty, extension).Retrieve(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "from-extension", token)
	})

	t.Run("absent when nothing resolves", func(t *testing.T) {
		_, ok := credential.NewChain(nil, nil).Retrieve(context.Background())
		assert.False(t, ok)
	})
}

func TestCached(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := &fakeSettings{values: map[string]string{model.SettingAuthToken: "first"}}
	p := credential.NewCached(credential.NewSettings(store, testLogger()), time.Hour, cache.WithClock(clock))
	ctx := context.Background()

	token, ok := p.Retrieve(ctx)
	assert.True(t, ok)
	assert.Equal(t, "first", token)

	store.values[model.SettingAuthToken] = "second"
	token, _ = p.Retrieve(ctx)
	assert.Equal(t, "first", token, "token should be served from the cache")
	assert.Equal(t, 1, store.reads)

	now = now.Add(time.Hour)
	token, _ = p.Retrieve(ctx)
	assert.Equal(t, "second", token, "token should be re-read after the TTL")

	store.values[model.SettingAuthToken] = "third"
	p.Invalidate()
	token, _ = p.Retrieve(ctx)
	assert.Equal(t, "third", token, "Invalidate should force a re-read")
}

func TestCached_DoesNotRememberAbsence(t *testing.T) {
	store := &fakeSettings{values: map[string]string{}}
	p := credential.NewCached(credential.NewSettings(store, testLogger()), time.Hour)
	ctx := context.Background()

	_, ok := p.Retrieve(ctx)
	assert.False(t, ok)

	store.values[model.SettingAuthToken] = "late"
	token, ok := p.Retrieve(ctx)
	assert.True(t, ok)
	assert.Equal(t, "late", token)
}
