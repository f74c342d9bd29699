// Package memory keeps the dev server's remote resources in process memory.
package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/repository"
)

const (
	// DefaultPerPage is the listing page size when the filter sets none.
	DefaultPerPage = 30

	// ExcerptLines is how many leading lines of a blob form its excerpt.
	ExcerptLines = 10

	PeoplePath = "/api/people"
)

type snippetRecord struct {
	seq         int
	uuid        string
	namespace   string
	name        string
	description string
	isPublic    bool
	meta        guru.Meta
	owner       repository.Owner
	blobIDs     []string
}

type blobRecord struct {
	uuid        string
	snippetID   string
	content     string
	revisionIDs []string
}

// RemoteStore implements repository.RemoteRepository with maps guarded by a
// single lock.
type RemoteStore struct {
	mu        sync.RWMutex
	seq       int
	snippets  map[string]*snippetRecord
	blobs     map[string]*blobRecord
	revisions map[string]guru.Revision
	now       func() time.Time
}

var _ repository.RemoteRepository = (*RemoteStore)(nil)

func NewRemoteStore() *RemoteStore {
	return &RemoteStore{
		snippets:  make(map[string]*snippetRecord),
		blobs:     make(map[string]*blobRecord),
		revisions: make(map[string]guru.Revision),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// idFromIRI accepts either a full IRI under base or a bare id.
func idFromIRI(iri, base string) (string, bool) {
	if rest, ok := strings.CutPrefix(iri, base+"/"); ok {
		return rest, rest != "" && !strings.Contains(rest, "/")
	}
	return iri, iri != "" && !strings.Contains(iri, "/")
}

func excerpt(content string) string {
	lines := strings.SplitN(content, "\n", ExcerptLines+1)
	if len(lines) > ExcerptLines {
		lines = lines[:ExcerptLines]
	}
	return strings.Join(lines, "\n")
}

func (s *RemoteStore) visible(viewer repository.Owner, rec *snippetRecord) bool {
	return rec.isPublic || rec.owner.ID == viewer.ID
}

// snippetFor returns the record when viewer may see it and, with write set,
// change it.
func (s *RemoteStore) snippetFor(viewer repository.Owner, id string, write bool) (*snippetRecord, error) {
	rec, ok := s.snippets[id]
	if !ok || !s.visible(viewer, rec) {
		return nil, apperror.NotFound("snippet", id)
	}
	if write && rec.owner.ID != viewer.ID {
		return nil, apperror.Forbidden("snippet " + id + " belongs to another account")
	}
	return rec, nil
}

func (s *RemoteStore) blobFor(viewer repository.Owner, id string, write bool) (*blobRecord, *snippetRecord, error) {
	blob, ok := s.blobs[id]
	if !ok {
		return nil, nil, apperror.NotFound("blob", id)
	}
	parent, err := s.snippetFor(viewer, blob.snippetID, write)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.NotFound("blob", id)
		}
		return nil, nil, err
	}
	return blob, parent, nil
}

func (s *RemoteStore) renderBlob(b *blobRecord) guru.Blob {
	revs := make([]string, len(b.revisionIDs))
	for i, id := range b.revisionIDs {
		revs[i] = guru.RevisionsPath + "/" + id
	}
	return guru.Blob{
		IRI:       guru.BlobIRI(b.uuid),
		Type:      "Blob",
		UUID:      b.uuid,
		Snippet:   guru.SnippetIRI(b.snippetID),
		Content:   b.content,
		Excerpt:   excerpt(b.content),
		Revisions: revs,
	}
}

func (s *RemoteStore) renderSnippet(viewer repository.Owner, rec *snippetRecord) guru.Snippet {
	meta := rec.meta
	meta.Tags = slices.Clone(rec.meta.Tags)
	if meta.Tags == nil {
		meta.Tags = []string{}
	}

	out := guru.Snippet{
		IRI:         guru.SnippetIRI(rec.uuid),
		Type:        "Snippet",
		UUID:        rec.uuid,
		Namespace:   rec.namespace,
		Name:        rec.name,
		Description: rec.description,
		IsPublic:    rec.isPublic,
		Meta:        meta,
		Blobs:       make([]guru.Blob, 0, len(rec.blobIDs)),
	}
	for _, id := range rec.blobIDs {
		out.Blobs = append(out.Blobs, s.renderBlob(s.blobs[id]))
	}
	if rec.owner.ID == viewer.ID {
		out.Person = &guru.Person{
			IRI:      PeoplePath + "/" + rec.owner.Username,
			Username: rec.owner.Username,
		}
	}
	return out
}

// setContent stores content and records a revision when it changed.
func (s *RemoteStore) setContent(b *blobRecord, content string, created bool) {
	if !created && b.content == content {
		return
	}
	b.content = content

	rev := guru.Revision{
		Type:      "Revision",
		UUID:      uuid.NewString(),
		Blob:      guru.BlobIRI(b.uuid),
		Content:   content,
		CreatedAt: s.now(),
	}
	rev.IRI = guru.RevisionsPath + "/" + rev.UUID
	s.revisions[rev.UUID] = rev
	b.revisionIDs = append(b.revisionIDs, rev.UUID)
}

func (s *RemoteStore) addBlob(parent *snippetRecord, content string) *blobRecord {
	b := &blobRecord{uuid: uuid.NewString(), snippetID: parent.uuid}
	s.setContent(b, content, true)
	s.blobs[b.uuid] = b
	parent.blobIDs = append(parent.blobIDs, b.uuid)
	return b
}

func (s *RemoteStore) removeBlob(parent *snippetRecord, b *blobRecord) {
	for _, rid := range b.revisionIDs {
		delete(s.revisions, rid)
	}
	delete(s.blobs, b.uuid)
	parent.blobIDs = slices.DeleteFunc(parent.blobIDs, func(id string) bool { return id == b.uuid })
}

func applySnippetInput(rec *snippetRecord, in guru.SnippetInput) {
	rec.namespace = in.Namespace
	rec.name = in.Name
	rec.description = in.Description
	rec.isPublic = in.IsPublic
	rec.meta = in.Meta
	rec.meta.Tags = slices.Clone(in.Meta.Tags)
}

func (s *RemoteStore) checkBlobRefs(rec *snippetRecord, blobs []guru.BlobInput) error {
	for _, in := range blobs {
		if in.IRI == "" {
			continue
		}
		id, ok := idFromIRI(in.IRI, guru.BlobsPath)
		b, exists := s.blobs[id]
		if !ok || !exists || b.snippetID != rec.uuid {
			return apperror.ValidationFailed("blobs", "blob "+in.IRI+" does not belong to snippet "+rec.uuid)
		}
	}
	return nil
}

// applyBlobInputs updates the blobs named by @id and adds the others.
func (s *RemoteStore) applyBlobInputs(rec *snippetRecord, blobs []guru.BlobInput) error {
	if err := s.checkBlobRefs(rec, blobs); err != nil {
		return err
	}

	for _, in := range blobs {
		if in.IRI == "" {
			s.addBlob(rec, in.Content)
			continue
		}
		id, _ := idFromIRI(in.IRI, guru.BlobsPath)
		s.setContent(s.blobs[id], in.Content, false)
	}
	return nil
}

func (s *RemoteStore) CreateSnippet(_ context.Context, owner repository.Owner, in guru.SnippetInput) (*guru.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range in.Blobs {
		if b.IRI != "" {
			return nil, apperror.ValidationFailed("blobs", "a new snippet cannot reference existing blob "+b.IRI)
		}
	}

	s.seq++
	rec := &snippetRecord{seq: s.seq, uuid: uuid.NewString(), owner: owner}
	applySnippetInput(rec, in)
	s.snippets[rec.uuid] = rec

	if err := s.applyBlobInputs(rec, in.Blobs); err != nil {
		return nil, err
	}

	out := s.renderSnippet(owner, rec)
	return &out, nil
}

func (s *RemoteStore) GetSnippet(_ context.Context, viewer repository.Owner, id string) (*guru.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.snippetFor(viewer, id, false)
	if err != nil {
		return nil, err
	}
	out := s.renderSnippet(viewer, rec)
	return &out, nil
}

func matches(rec *snippetRecord, f repository.SnippetFilter) bool {
	if f.Namespace != "" && rec.namespace != f.Namespace {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(rec.name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Description != "" && !strings.Contains(strings.ToLower(rec.description), strings.ToLower(f.Description)) {
		return false
	}
	if f.IsPublic != nil && rec.isPublic != *f.IsPublic {
		return false
	}
	return true
}

// ListSnippets returns the requested page, newest first, and the number of
// matching snippets across all pages.
func (s *RemoteStore) ListSnippets(_ context.Context, viewer repository.Owner, f repository.SnippetFilter) ([]guru.Snippet, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*snippetRecord, 0, len(s.snippets))
	for _, rec := range s.snippets {
		if s.visible(viewer, rec) && matches(rec, f) {
			matched = append(matched, rec)
		}
	}
	slices.SortFunc(matched, func(a, b *snippetRecord) int { return b.seq - a.seq })

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := max(f.Page, 1)

	// Pages past the end are empty; clamp before multiplying so huge page
	// numbers cannot overflow.
	start := len(matched)
	if page-1 < len(matched)/perPage+1 {
		start = min((page-1)*perPage, len(matched))
	}
	end := start + min(perPage, len(matched)-start)

	out := make([]guru.Snippet, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, s.renderSnippet(viewer, rec))
	}
	return out, len(matched), nil
}

func (s *RemoteStore) UpdateSnippet(_ context.Context, viewer repository.Owner, id string, in guru.SnippetInput) (*guru.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.snippetFor(viewer, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.checkBlobRefs(rec, in.Blobs); err != nil {
		return nil, err
	}

	applySnippetInput(rec, in)
	if err := s.applyBlobInputs(rec, in.Blobs); err != nil {
		return nil, err
	}

	out := s.renderSnippet(viewer, rec)
	return &out, nil
}

func (s *RemoteStore) DeleteSnippet(_ context.Context, viewer repository.Owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.snippetFor(viewer, id, true)
	if err != nil {
		return err
	}

	for _, bid := range slices.Clone(rec.blobIDs) {
		s.removeBlob(rec, s.blobs[bid])
	}
	delete(s.snippets, id)
	return nil
}

func (s *RemoteStore) SnippetBlobs(_ context.Context, viewer repository.Owner, id string) ([]guru.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.snippetFor(viewer, id, false)
	if err != nil {
		return nil, err
	}

	out := make([]guru.Blob, 0, len(rec.blobIDs))
	for _, bid := range rec.blobIDs {
		out = append(out, s.renderBlob(s.blobs[bid]))
	}
	return out, nil
}

func (s *RemoteStore) parentOf(viewer repository.Owner, in guru.BlobInput) (*snippetRecord, error) {
	pid, ok := idFromIRI(in.Snippet, guru.SnippetsPath)
	if !ok {
		return nil, apperror.ValidationFailed("snippet", "blob must reference its snippet")
	}
	return s.snippetFor(viewer, pid, true)
}

func (s *RemoteStore) CreateBlob(_ context.Context, viewer repository.Owner, in guru.BlobInput) (*guru.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.parentOf(viewer, in)
	if err != nil {
		return nil, err
	}

	out := s.renderBlob(s.addBlob(parent, in.Content))
	return &out, nil
}

func (s *RemoteStore) GetBlob(_ context.Context, viewer repository.Owner, id string) (*guru.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, _, err := s.blobFor(viewer, id, false)
	if err != nil {
		return nil, err
	}
	out := s.renderBlob(blob)
	return &out, nil
}

// UpdateBlob replaces the content of a blob. The blob cannot move to another
// snippet.
func (s *RemoteStore) UpdateBlob(_ context.Context, viewer repository.Owner, id string, in guru.BlobInput) (*guru.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, parent, err := s.blobFor(viewer, id, true)
	if err != nil {
		return nil, err
	}
	if pid, ok := idFromIRI(in.Snippet, guru.SnippetsPath); !ok || pid != parent.uuid {
		return nil, apperror.ValidationFailed("snippet", "blob "+id+" belongs to snippet "+guru.SnippetIRI(parent.uuid))
	}

	s.setContent(blob, in.Content, false)
	out := s.renderBlob(blob)
	return &out, nil
}

func (s *RemoteStore) DeleteBlob(_ context.Context, viewer repository.Owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, parent, err := s.blobFor(viewer, id, true)
	if err != nil {
		return err
	}
	s.removeBlob(parent, blob)
	return nil
}

func (s *RemoteStore) GetRevision(_ context.Context, viewer repository.Owner, id string) (*guru.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev, ok := s.revisions[id]
	if !ok {
		return nil, apperror.NotFound("revision", id)
	}

	bid, _ := idFromIRI(rev.Blob, guru.BlobsPath)
	if _, _, err := s.blobFor(viewer, bid, false); err != nil {
		return nil, apperror.NotFound("revision", id)
	}
	return &rev, nil
}
