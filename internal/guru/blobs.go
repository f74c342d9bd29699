package guru

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/snippets-guru/internal/apperror"
)

// BlobClient talks to /api/blobs.
type BlobClient struct {
	c *Client
}

func requireParent(in BlobInput) error {
	if strings.TrimSpace(in.Snippet) == "" {
		return apperror.ValidationFailed("snippet", "blob must reference its snippet")
	}
	return nil
}

func (b *BlobClient) Get(ctx context.Context, id string) (*Blob, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var blob Blob
	if err := b.c.Execute(ctx, http.MethodGet, b.c.resourceURL(BlobsPath, id), nil, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// Save creates a blob. in.Snippet must hold the parent's IRI.
func (b *BlobClient) Save(ctx context.Context, in BlobInput) (*Blob, error) {
	if err := requireParent(in); err != nil {
		return nil, err
	}

	var blob Blob
	if err := b.c.Execute(ctx, http.MethodPost, b.c.resourceURL(BlobsPath), in, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// Update replaces the content of a blob. in.Snippet must hold the parent's IRI.
func (b *BlobClient) Update(ctx context.Context, id string, in BlobInput) (*Blob, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := requireParent(in); err != nil {
		return nil, err
	}

	var blob Blob
	if err := b.c.Execute(ctx, http.MethodPut, b.c.resourceURL(BlobsPath, id), in, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

func (b *BlobClient) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return b.c.Execute(ctx, http.MethodDelete, b.c.resourceURL(BlobsPath, id), nil, nil)
}
