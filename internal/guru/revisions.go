package guru

import (
	"context"
	"net/http"
)

// RevisionClient talks to /api/revisions. Revisions are read-only.
type RevisionClient struct {
	c *Client
}

func (r *RevisionClient) Get(ctx context.Context, id string) (*Revision, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var rev Revision
	if err := r.c.Execute(ctx, http.MethodGet, r.c.resourceURL(RevisionsPath, id), nil, &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}
