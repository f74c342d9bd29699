package guru

import (
	"net/url"
	"strconv"
	"time"
)

// Namespace is the namespace under which locally managed snippets are
// published.
const Namespace = "code-snippets"

// Meta is the free-form metadata bag attached to a snippet. The service does
// not interpret it.
type Meta struct {
	Scope             string   `json:"scope,omitempty"`
	Priority          int      `json:"priority"`
	Tags              []string `json:"tags"`
	DescriptionFormat string   `json:"description_format,omitempty"`
}

// Person is the owner of a snippet. It is only present on snippets the
// authenticated account owns.
type Person struct {
	IRI      string `json:"@id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Snippet is the remote snippet resource.
type Snippet struct {
	IRI         string  `json:"@id,omitempty"`
	Type        string  `json:"@type,omitempty"`
	UUID        string  `json:"uuid"`
	Namespace   string  `json:"namespace"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IsPublic    bool    `json:"isPublic"`
	Meta        Meta    `json:"meta"`
	Blobs       []Blob  `json:"blobs"`
	Person      *Person `json:"person,omitempty"`
}

// FirstBlob returns the snippet's first blob, if any.
func (s *Snippet) FirstBlob() (Blob, bool) {
	if len(s.Blobs) == 0 {
		return Blob{}, false
	}
	return s.Blobs[0], true
}

// Blob holds the source text of a snippet. Snippet is the parent's IRI and
// Revisions the IRIs of its history, oldest first.
type Blob struct {
	IRI       string   `json:"@id,omitempty"`
	Type      string   `json:"@type,omitempty"`
	UUID      string   `json:"uuid"`
	Snippet   string   `json:"snippet,omitempty"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Revisions []string `json:"revisions,omitempty"`
}

// Revision is a read-only history entry of a blob.
type Revision struct {
	IRI       string    `json:"@id,omitempty"`
	Type      string    `json:"@type,omitempty"`
	UUID      string    `json:"uuid"`
	Blob      string    `json:"blob"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Collection is a Hydra collection document.
type Collection[T any] struct {
	IRI        string `json:"@id,omitempty"`
	Members    []T    `json:"hydra:member"`
	TotalItems int    `json:"hydra:totalItems"`
}

// SnippetInput is the write payload for a snippet.
type SnippetInput struct {
	Namespace   string      `json:"namespace"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsPublic    bool        `json:"isPublic"`
	Meta        Meta        `json:"meta"`
	Blobs       []BlobInput `json:"blobs,omitempty"`
}

// BlobInput is the write payload for a blob. Inside a SnippetInput the parent
// is implied; sent to /api/blobs directly, Snippet must be set.
// IRI identifies an existing blob to replace.
type BlobInput struct {
	IRI     string `json:"@id,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content"`
}

// SnippetQuery filters a snippet listing. Zero values are not sent.
type SnippetQuery struct {
	Page        int
	Namespace   string
	Name        string
	Description string
	IsPublic    *bool
}

// Values encodes the supplied fields as query parameters.
func (q SnippetQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Namespace != "" {
		v.Set("namespace", q.Namespace)
	}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.Description != "" {
		v.Set("description", q.Description)
	}
	if q.IsPublic != nil {
		v.Set("isPublic", strconv.FormatBool(*q.IsPublic))
	}
	return v
}

// Account is the authenticated user's profile.
type Account struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Billing  Billing `json:"billing"`
}

// Billing is the subscription state of an account.
type Billing struct {
	IsActive  bool      `json:"isActive"`
	ExpiredAt time.Time `json:"expiredAt"`
}
