// Package repository declares the storage interfaces. The sqlite subpackage
// implements the local ones on one database; the memory subpackage holds the
// dev server's remote resources.
package repository

import (
	"context"

	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetRepository stores local snippets.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error

	// SetCloudRef stores only the cloud reference. It does not touch
	// updated_at and does not count as an edit of the snippet.
	SetCloudRef(ctx context.Context, id string, ref model.CloudRef) error
}

// SettingRepository stores key/value settings.
type SettingRepository interface {
	// GetSetting returns ok=false when the key was never set.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
	ListSettings(ctx context.Context) (map[string]string, error)
}

// UserRepository stores the development server's accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Owner identifies the account a remote resource belongs to.
type Owner struct {
	ID       string
	Username string
}

// SnippetFilter narrows a remote snippet listing. Name and Description
// match case-insensitively on substrings; zero values match everything.
type SnippetFilter struct {
	Namespace   string
	Name        string
	Description string
	IsPublic    *bool
	Page        int
	PerPage     int
}

// RemoteRepository stores the dev server's snippets, blobs and revisions as
// they appear on the wire. viewer decides visibility: private snippets exist
// only for their owner, and only owners may change or delete them.
type RemoteRepository interface {
	CreateSnippet(ctx context.Context, owner Owner, in guru.SnippetInput) (*guru.Snippet, error)
	GetSnippet(ctx context.Context, viewer Owner, id string) (*guru.Snippet, error)
	ListSnippets(ctx context.Context, viewer Owner, f SnippetFilter) (page []guru.Snippet, total int, err error)
	UpdateSnippet(ctx context.Context, viewer Owner, id string, in guru.SnippetInput) (*guru.Snippet, error)
	DeleteSnippet(ctx context.Context, viewer Owner, id string) error
	SnippetBlobs(ctx context.Context, viewer Owner, id string) ([]guru.Blob, error)

	CreateBlob(ctx context.Context, viewer Owner, in guru.BlobInput) (*guru.Blob, error)
	GetBlob(ctx context.Context, viewer Owner, id string) (*guru.Blob, error)
	UpdateBlob(ctx context.Context, viewer Owner, id string, in guru.BlobInput) (*guru.Blob, error)
	DeleteBlob(ctx context.Context, viewer Owner, id string) error

	GetRevision(ctx context.Context, viewer Owner, id string) (*guru.Revision, error)
}
