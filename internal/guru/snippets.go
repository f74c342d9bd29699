package guru

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/snippets-guru/internal/apperror"
)

const (
	SnippetsPath  = "/api/snippets"
	BlobsPath     = "/api/blobs"
	RevisionsPath = "/api/revisions"
)

// SnippetIRI returns the IRI of the snippet with the given id.
func SnippetIRI(id string) string {
	return SnippetsPath + "/" + id
}

// BlobIRI returns the IRI of the blob with the given id.
func BlobIRI(id string) string {
	return BlobsPath + "/" + id
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", "resource id is required")
	}
	return nil
}

// SnippetClient talks to /api/snippets.
type SnippetClient struct {
	c *Client
}

func (s *SnippetClient) Get(ctx context.Context, id string) (*Snippet, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var snippet Snippet
	if err := s.c.Execute(ctx, http.MethodGet, s.c.resourceURL(SnippetsPath, id), nil, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// List returns one page of snippets matching q.
func (s *SnippetClient) List(ctx context.Context, q SnippetQuery) (*Collection[Snippet], error) {
	var page Collection[Snippet]
	err := s.c.Execute(ctx, http.MethodGet, s.c.resourceURL(SnippetsPath), nil, &page, WithQuery(q.Values()))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Save creates a snippet. The returned resource carries the new uuid and
// the uuids of any embedded blobs.
func (s *SnippetClient) Save(ctx context.Context, in SnippetInput) (*Snippet, error) {
	var snippet Snippet
	if err := s.c.Execute(ctx, http.MethodPost, s.c.resourceURL(SnippetsPath), in, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// Update replaces the snippet with the given id.
func (s *SnippetClient) Update(ctx context.Context, id string, in SnippetInput) (*Snippet, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var snippet Snippet
	if err := s.c.Execute(ctx, http.MethodPut, s.c.resourceURL(SnippetsPath, id), in, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

func (s *SnippetClient) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.c.Execute(ctx, http.MethodDelete, s.c.resourceURL(SnippetsPath, id), nil, nil)
}

// Blobs lists the blobs of a snippet.
func (s *SnippetClient) Blobs(ctx context.Context, id string) (*Collection[Blob], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var blobs Collection[Blob]
	if err := s.c.Execute(ctx, http.MethodGet, s.c.resourceURL(SnippetsPath, id, "blobs"), nil, &blobs); err != nil {
		return nil, err
	}
	return &blobs, nil
}
