package guru_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/guru"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   []byte
}

// stubAPI answers every request with a fixed status and body and records
// what it received.
type stubAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	s.mu.Unlock()

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/ld+json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, s.body)
}

func (s *stubAPI) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func newStub(t *testing.T, status int, body string) (*stubAPI, *guru.Client) {
	t.Helper()
	stub := &stubAPI{status: status, body: body}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, newTestClient(t, srv.URL, staticTokens{"tok", true})
}

func TestGet_IssuesOneRequestPerResource(t *testing.T) {
	tests := []struct {
		name string
		get  func(c *guru.Client) (any, error)
		path string
	}{
		{
			name: "snippet",
			get:  func(c *guru.Client) (any, error) { return c.Snippets().Get(context.Background(), "s-1") },
			path: "/api/snippets/s-1",
		},
		{
			name: "blob",
			get:  func(c *guru.Client) (any, error) { return c.Blobs().Get(context.Background(), "b-1") },
			path: "/api/blobs/b-1",
		},
		{
			name: "revision",
			get:  func(c *guru.Client) (any, error) { return c.Revisions().Get(context.Background(), "r-1") },
			path: "/api/revisions/r-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, c := newStub(t, http.StatusOK, `{"uuid":"x","content":"print(1)","name":"hello"}`)

			got, err := tt.get(c)
			require.NoError(t, err)
			require.NotNil(t, got)

			reqs := stub.recorded()
			require.Len(t, reqs, 1)
			assert.Equal(t, http.MethodGet, reqs[0].Method)
			assert.Equal(t, tt.path, reqs[0].Path)
			assert.Empty(t, reqs[0].Body)
		})
	}
}

func TestSnippetGet_DecodesBody(t *testing.T) {
	body := `{
		"@id": "/api/snippets/abc",
		"@type": "Snippet",
		"uuid": "abc",
		"namespace": "code-snippets",
		"name": "hello",
		"description": "test",
		"isPublic": true,
		"meta": {"scope": "global", "priority": 10, "tags": ["a", "b"], "description_format": "html"},
		"blobs": [{"@id": "/api/blobs/def", "uuid": "def", "excerpt": "print(1)"}],
		"person": {"@id": "/api/people/1"}
	}`
	_, c := newStub(t, http.StatusOK, body)

	s, err := c.Snippets().Get(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", s.UUID)
	assert.Equal(t, "hello", s.Name)
	assert.True(t, s.IsPublic)
	assert.Equal(t, guru.Meta{Scope: "global", Priority: 10, Tags: []string{"a", "b"}, DescriptionFormat: "html"}, s.Meta)
	require.NotNil(t, s.Person)

	blob, ok := s.FirstBlob()
	require.True(t, ok)
	assert.Equal(t, "def", blob.UUID)
	assert.Equal(t, "print(1)", blob.Excerpt)
}

func TestSnippetList_OnlySuppliedFields(t *testing.T) {
	stub, c := newStub(t, http.StatusOK, `{"hydra:member":[{"uuid":"a"},{"uuid":"b"}],"hydra:totalItems":2}`)

	page, err := c.Snippets().List(context.Background(), guru.SnippetQuery{Namespace: "ns1"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	require.Len(t, page.Members, 2)
	assert.Equal(t, "b", page.Members[1].UUID)

	reqs := stub.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/api/snippets", reqs[0].Path)
	assert.Equal(t, map[string][]string{"namespace": {"ns1"}}, reqs[0].Query)
}

func TestSnippetList_AllFields(t *testing.T) {
	stub, c := newStub(t, http.StatusOK, `{"hydra:member":[],"hydra:totalItems":0}`)

	public := false
	_, err := c.Snippets().List(context.Background(), guru.SnippetQuery{
		Page:        2,
		Namespace:   "ns1",
		Name:        "hello",
		Description: "test",
		IsPublic:    &public,
	})
	require.NoError(t, err)

	q := stub.recorded()[0].Query
	assert.Equal(t, []string{"2"}, q["page"])
	assert.Equal(t, []string{"hello"}, q["name"])
	assert.Equal(t, []string{"test"}, q["description"])
	assert.Equal(t, []string{"false"}, q["isPublic"])
}

func TestSnippetSave_PostsPayload(t *testing.T) {
	stub, c := newStub(t, http.StatusCreated, `{"uuid":"abc","blobs":[{"uuid":"def"}]}`)

	in := guru.SnippetInput{
		Namespace:   guru.Namespace,
		Name:        "hello",
		Description: "test",
		IsPublic:    false,
		Blobs:       []guru.BlobInput{{Content: "print(1)"}},
	}

	s, err := c.Snippets().Save(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.UUID)
	require.Len(t, s.Blobs, 1)
	assert.Equal(t, "def", s.Blobs[0].UUID)

	reqs := stub.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/snippets", reqs[0].Path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	assert.Equal(t, "hello", sent["name"])
	assert.Equal(t, false, sent["isPublic"])
	assert.Equal(t, []any{map[string]any{"content": "print(1)"}}, sent["blobs"])
}

func TestSnippetUpdate_PutsToID(t *testing.T) {
	stub, c := newStub(t, http.StatusOK, `{"uuid":"abc"}`)

	in := guru.SnippetInput{
		Name:  "hello",
		Blobs: []guru.BlobInput{{IRI: guru.BlobIRI("def"), Content: "print(2)"}},
	}
	_, err := c.Snippets().Update(context.Background(), "abc", in)
	require.NoError(t, err)

	reqs := stub.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/api/snippets/abc", reqs[0].Path)

	var sent struct {
		Blobs []map[string]string `json:"blobs"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	assert.Equal(t, []map[string]string{{"@id": "/api/blobs/def", "content": "print(2)"}}, sent.Blobs)
}

func TestSnippetBlobs_ListsSubresource(t *testing.T) {
	stub, c := newStub(t, http.StatusOK, `{"hydra:member":[{"uuid":"def","content":"print(1)"}],"hydra:totalItems":1}`)

	blobs, err := c.Snippets().Blobs(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, blobs.Members, 1)
	assert.Equal(t, "print(1)", blobs.Members[0].Content)

	assert.Equal(t, "/api/snippets/abc/blobs", stub.recorded()[0].Path)
}

func TestBlobSave_RequiresParentSnippet(t *testing.T) {
	stub, c := newStub(t, http.StatusCreated, `{"uuid":"def"}`)

	_, err := c.Blobs().Save(context.Background(), guru.BlobInput{Content: "print(1)"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = c.Blobs().Update(context.Background(), "def", guru.BlobInput{Content: "print(1)"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, stub.recorded())

	blob, err := c.Blobs().Save(context.Background(), guru.BlobInput{Snippet: guru.SnippetIRI("abc"), Content: "print(1)"})
	require.NoError(t, err)
	assert.Equal(t, "def", blob.UUID)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(stub.recorded()[0].Body, &sent))
	assert.Equal(t, "/api/snippets/abc", sent["snippet"])
}

func TestEmptyID_NoRequest(t *testing.T) {
	stub, c := newStub(t, http.StatusOK, `{}`)
	ctx := context.Background()

	_, err := c.Snippets().Get(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = c.Snippets().Delete(ctx, " ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = c.Blobs().Delete(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = c.Revisions().Get(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, stub.recorded())
}

func TestDelete_StatusError(t *testing.T) {
	_, c := newStub(t, http.StatusNotFound, `{"hydra:description":"Not Found"}`)

	err := c.Snippets().Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, guru.StatusCode(err))
}
