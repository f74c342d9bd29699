package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSnippetRepo is an in-memory repository.SnippetRepository.
type fakeSnippetRepo struct {
	mu       sync.Mutex
	snippets map[string]*model.Snippet
	nextID   int
	refSets  int
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *fakeSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *fakeSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *fakeSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if opts.Offset >= len(result) {
		return []model.Snippet{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *fakeSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *fakeSnippetRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *fakeSnippetRepo) SetCloudRef(_ context.Context, id string, ref model.CloudRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	s.CloudRef = ref
	m.refSets++
	return nil
}

// fakeSettings is an in-memory repository.SettingRepository.
type fakeSettings struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newFakeSettings(kv ...string) *fakeSettings {
	f := &fakeSettings{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		f.values[kv[i]] = kv[i+1]
	}
	return f
}

func (f *fakeSettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSettings) SetSetting(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeSettings) DeleteSetting(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeSettings) ListSettings(_ context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// fakeRemote records the calls the sync makes to the snippets API.
type fakeRemote struct {
	mu sync.Mutex

	snippets map[string]*guru.Snippet
	blobs    map[string]*guru.Collection[guru.Blob]

	saved   []guru.SnippetInput
	updated map[string][]guru.SnippetInput
	gets    int
	blobGet int

	saveErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		snippets: make(map[string]*guru.Snippet),
		blobs:    make(map[string]*guru.Collection[guru.Blob]),
		updated:  make(map[string][]guru.SnippetInput),
	}
}

func (f *fakeRemote) Get(_ context.Context, id string) (*guru.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	s, ok := f.snippets[id]
	if !ok {
		return nil, &guru.HTTPStatusError{StatusCode: 404, Message: "Not Found"}
	}
	return s, nil
}

func (f *fakeRemote) List(_ context.Context, q guru.SnippetQuery) (*guru.Collection[guru.Snippet], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &guru.Collection[guru.Snippet]{}
	for _, s := range f.snippets {
		if q.Namespace == "" || s.Namespace == q.Namespace {
			page.Members = append(page.Members, *s)
		}
	}
	page.TotalItems = len(page.Members)
	return page, nil
}

func (f *fakeRemote) Save(_ context.Context, in guru.SnippetInput) (*guru.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, in)
	return &guru.Snippet{
		UUID:  "abc",
		Name:  in.Name,
		Blobs: []guru.Blob{{UUID: "def", Content: in.Blobs[0].Content}},
	}, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, in guru.SnippetInput) (*guru.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = append(f.updated[id], in)
	return &guru.Snippet{UUID: id, Name: in.Name}, nil
}

func (f *fakeRemote) Blobs(_ context.Context, id string) (*guru.Collection[guru.Blob], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobGet++
	c, ok := f.blobs[id]
	if !ok {
		return &guru.Collection[guru.Blob]{Members: []guru.Blob{}}, nil
	}
	return c, nil
}

func (f *fakeRemote) calls() (saves, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.updated {
		updates += len(u)
	}
	return len(f.saved), updates
}

// fakeAccounts returns a fixed account.
type fakeAccounts struct {
	acct *guru.Account
	err  error
}

func (f fakeAccounts) Current(context.Context) (*guru.Account, error) {
	return f.acct, f.err
}

func activeAccount() fakeAccounts {
	return fakeAccounts{acct: &guru.Account{Username: "dev", Billing: guru.Billing{IsActive: true}}}
}
