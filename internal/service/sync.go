package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/cache"
	"github.com/sakif/snippets-guru/internal/event"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
	"github.com/sakif/snippets-guru/internal/scheduler"
)

const (
	// RemoteTTL is how long fetched remote snippets and blob lists are reused.
	RemoteTTL = 30 * time.Second

	// DefaultPushDelay is the delay of an asynchronous push.
	DefaultPushDelay = 5 * time.Second

	descriptionFormat = "html"
)

// RemoteSnippets is the part of the snippets API the sync needs.
// *guru.SnippetClient implements it.
type RemoteSnippets interface {
	Get(ctx context.Context, id string) (*guru.Snippet, error)
	List(ctx context.Context, q guru.SnippetQuery) (*guru.Collection[guru.Snippet], error)
	Save(ctx context.Context, in guru.SnippetInput) (*guru.Snippet, error)
	Update(ctx context.Context, id string, in guru.SnippetInput) (*guru.Snippet, error)
	Blobs(ctx context.Context, id string) (*guru.Collection[guru.Blob], error)
}

var _ RemoteSnippets = (*guru.SnippetClient)(nil)

// AccountSource reports the current remote account, nil when signed out.
type AccountSource interface {
	Current(ctx context.Context) (*guru.Account, error)
}

// SyncOptions tunes the SyncService.
type SyncOptions struct {
	// PushDelay is the async push delay. Zero means DefaultPushDelay.
	PushDelay time.Duration
	CacheOpts []cache.Option
}

// SyncService moves snippets between the local store and Snippets Guru.
type SyncService struct {
	snippets *SnippetService
	repo     repository.SnippetRepository
	settings repository.SettingRepository
	remote   RemoteSnippets
	accounts AccountSource
	sched    *scheduler.Scheduler
	logger   *slog.Logger

	pushDelay  time.Duration
	remoteMemo *cache.TTL[string, *guru.Snippet]
	blobsMemo  *cache.TTL[string, *guru.Collection[guru.Blob]]
	pushedMu   sync.Mutex
	lastPushed map[string]*guru.Snippet
}

func NewSyncService(
	snippets *SnippetService,
	repo repository.SnippetRepository,
	settings repository.SettingRepository,
	remote RemoteSnippets,
	accounts AccountSource,
	sched *scheduler.Scheduler,
	logger *slog.Logger,
	opts SyncOptions,
) *SyncService {
	delay := opts.PushDelay
	if delay <= 0 {
		delay = DefaultPushDelay
	}
	return &SyncService{
		snippets:   snippets,
		repo:       repo,
		settings:   settings,
		remote:     remote,
		accounts:   accounts,
		sched:      sched,
		logger:     logger,
		pushDelay:  delay,
		remoteMemo: cache.New[string, *guru.Snippet](RemoteTTL, opts.CacheOpts...),
		blobsMemo:  cache.New[string, *guru.Collection[guru.Blob]](RemoteTTL, opts.CacheOpts...),
		lastPushed: make(map[string]*guru.Snippet),
	}
}

// Register subscribes the sync to snippet lifecycle events.
func (s *SyncService) Register(bus *event.Bus) {
	bus.Subscribe(event.SnippetCreated, s.OnSnippetSaved)
	bus.Subscribe(event.SnippetUpdated, s.OnSnippetSaved)
}

// OnSnippetSaved pushes a saved snippet when a subscribed account is signed
// in and the snippet opted in. With async_push on, the push runs after the
// push delay on the scheduler.
func (s *SyncService) OnSnippetSaved(ctx context.Context, e event.Event) error {
	acct, err := s.accounts.Current(ctx)
	if err != nil {
		return fmt.Errorf("sync: loading account: %w", err)
	}
	if acct == nil || !acct.Billing.IsActive || !e.Snippet.Cloud.PushChange {
		return nil
	}

	value, _, err := s.settings.GetSetting(ctx, model.SettingAsyncPush)
	if err != nil {
		return fmt.Errorf("sync: reading %s: %w", model.SettingAsyncPush, err)
	}

	id := e.Snippet.ID

	if model.Truthy(value) {
		key := fmt.Sprintf("push:%s:%s", id, xid.New().String())
		s.sched.Schedule(key, s.pushDelay, func(ctx context.Context) error {
			_, err := s.Push(ctx, id)
			return err
		})
		return nil
	}

	_, err = s.Push(ctx, id)
	return err
}

func buildRemoteInput(snippet *model.Snippet) guru.SnippetInput {
	tags := snippet.Tags
	if tags == nil {
		tags = []string{}
	}
	return guru.SnippetInput{
		Namespace:   guru.Namespace,
		Name:        snippet.Name,
		Description: snippet.Description,
		IsPublic:    snippet.Cloud.IsPublic,
		Meta: guru.Meta{
			Scope:             snippet.Scope,
			Priority:          snippet.Priority,
			Tags:              tags,
			DescriptionFormat: descriptionFormat,
		},
	}
}

// Push publishes the stored snippet. A snippet without a cloud reference is
// created remotely and linked to the new snippet and blob; a linked snippet
// replaces its remote counterpart.
func (s *SyncService) Push(ctx context.Context, id string) (*guru.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sync: loading snippet %s: %w", id, err)
	}

	in := buildRemoteInput(snippet)

	var resp *guru.Snippet
	if snippet.CloudRef.IsZero() {
		in.Blobs = []guru.BlobInput{{Content: snippet.Code}}

		resp, err = s.remote.Save(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("sync: creating remote snippet for %s: %w", id, err)
		}

		blob, ok := resp.FirstBlob()
		if !ok {
			return nil, fmt.Errorf("sync: remote snippet %s was created without a blob", resp.UUID)
		}

		ref := model.CloudRef{SnippetUUID: resp.UUID, BlobUUID: blob.UUID}
		if err := s.repo.SetCloudRef(ctx, id, ref); err != nil {
			return nil, fmt.Errorf("sync: linking snippet %s: %w", id, err)
		}

		s.logger.Info("snippet pushed",
			slog.String("id", id),
			slog.String("cloud_ref", ref.String()),
			slog.Bool("created", true),
		)
	} else {
		ref := snippet.CloudRef
		in.Blobs = []guru.BlobInput{{IRI: guru.BlobIRI(ref.BlobUUID), Content: snippet.Code}}

		resp, err = s.remote.Update(ctx, ref.SnippetUUID, in)
		if err != nil {
			return nil, fmt.Errorf("sync: updating remote snippet %s: %w", ref.SnippetUUID, err)
		}

		s.logger.Info("snippet pushed",
			slog.String("id", id),
			slog.String("cloud_ref", ref.String()),
			slog.Bool("created", false),
		)
	}

	s.pushedMu.Lock()
	s.lastPushed[id] = resp
	s.pushedMu.Unlock()

	return resp, nil
}

// LastPushed returns the remote snippet returned by the latest push of id.
func (s *SyncService) LastPushed(id string) (*guru.Snippet, bool) {
	s.pushedMu.Lock()
	defer s.pushedMu.Unlock()
	resp, ok := s.lastPushed[id]
	return resp, ok
}

func (s *SyncService) remoteSnippet(ctx context.Context, uuid string) (*guru.Snippet, error) {
	return s.remoteMemo.GetOrLoad(ctx, uuid, func(ctx context.Context) (*guru.Snippet, error) {
		return s.remote.Get(ctx, uuid)
	})
}

func (s *SyncService) remoteBlobs(ctx context.Context, uuid string) (*guru.Collection[guru.Blob], error) {
	return s.blobsMemo.GetOrLoad(ctx, uuid, func(ctx context.Context) (*guru.Collection[guru.Blob], error) {
		return s.remote.Blobs(ctx, uuid)
	})
}

// Preview builds an unsaved, inactive local snippet from a remote snippet.
// The code is the excerpt of the first blob.
func (s *SyncService) Preview(ctx context.Context, uuid string) (*model.Snippet, error) {
	remote, err := s.remoteSnippet(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("sync: fetching remote snippet %s: %w", uuid, err)
	}

	preview := &model.Snippet{
		Name:        remote.Name,
		Description: remote.Description,
		Tags:        remote.Meta.Tags,
		Scope:       remote.Meta.Scope,
		Priority:    remote.Meta.Priority,
		Active:      false,
		Cloud: model.CloudConfig{
			PushChange: false,
			IsPublic:   remote.IsPublic,
			Owned:      remote.Person != nil,
		},
	}

	if blob, ok := remote.FirstBlob(); ok {
		preview.Code = blob.Excerpt
		preview.CloudRef = model.CloudRef{SnippetUUID: remote.UUID, BlobUUID: blob.UUID}
	}

	return preview, nil
}

// Import stores a remote snippet locally. The first blob's content becomes
// the code. With link set, the local copy keeps the cloud reference so later
// pushes update the remote snippet; linking a public snippet of another
// account is Forbidden.
func (s *SyncService) Import(ctx context.Context, uuid string, link bool) (*model.Snippet, error) {
	remote, err := s.remoteSnippet(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("sync: fetching remote snippet %s: %w", uuid, err)
	}

	// Only private snippets or our own public ones can be linked; pushes to
	// someone else's public snippet are rejected by the API.
	if link && remote.IsPublic && remote.Person == nil {
		return nil, apperror.Forbidden(fmt.Sprintf("snippet %s belongs to another account and cannot be linked", uuid))
	}

	blobs, err := s.remoteBlobs(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("sync: fetching blobs of %s: %w", uuid, err)
	}
	if len(blobs.Members) == 0 {
		return nil, apperror.NotFound("blob of snippet", uuid)
	}
	blob := blobs.Members[0]

	push := false
	in := SnippetInput{
		Name:        remote.Name,
		Description: remote.Description,
		Code:        blob.Content,
		Tags:        remote.Meta.Tags,
		Scope:       remote.Meta.Scope,
		Priority:    remote.Meta.Priority,
		Active:      false,
		PushChange:  &push,
		IsPublic:    remote.IsPublic,
		Owned:       remote.Person != nil,
	}
	if link {
		in.CloudRef = model.CloudRef{SnippetUUID: remote.UUID, BlobUUID: blob.UUID}
	}

	snippet, err := s.snippets.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("sync: importing %s: %w", uuid, err)
	}

	s.logger.Info("snippet imported",
		slog.String("id", snippet.ID),
		slog.String("remote", uuid),
		slog.Bool("linked", link),
	)

	return snippet, nil
}

// ResetCloudRef unlinks a local snippet. Its next push creates a new remote
// snippet.
func (s *SyncService) ResetCloudRef(ctx context.Context, id string) error {
	if err := s.repo.SetCloudRef(ctx, id, model.CloudRef{}); err != nil {
		return fmt.Errorf("sync: resetting cloud reference of %s: %w", id, err)
	}

	s.pushedMu.Lock()
	delete(s.lastPushed, id)
	s.pushedMu.Unlock()

	s.logger.Info("cloud reference reset", slog.String("id", id))
	return nil
}

// Browse lists remote snippets.
func (s *SyncService) Browse(ctx context.Context, q guru.SnippetQuery) (*guru.Collection[guru.Snippet], error) {
	page, err := s.remote.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sync: listing remote snippets: %w", err)
	}
	return page, nil
}
