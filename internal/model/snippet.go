// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Default values for a new local snippet.
const (
	DefaultScope    = "global"
	DefaultPriority = 10
)

// Snippet is a locally managed code snippet.
//
// Scope, Priority and Tags belong to the host's snippet model. They are
// carried to and from the cloud verbatim in the snippet's meta bag and never
// interpreted here.
type Snippet struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Code        string      `json:"code"`
	Tags        []string    `json:"tags"`
	Scope       string      `json:"scope"`
	Priority    int         `json:"priority"`
	Active      bool        `json:"active"`
	CloudRef    CloudRef    `json:"cloudRef"`
	Cloud       CloudConfig `json:"cloud"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// CloudConfig holds the per-snippet sync switches.
type CloudConfig struct {
	// PushChange publishes the snippet to the cloud whenever it is saved.
	PushChange bool `json:"push_change"`
	// IsPublic is sent as the remote snippet's visibility.
	IsPublic bool `json:"is_public"`
	// Owned is set on snippets built from a remote snippet that belongs to
	// the authenticated account.
	Owned bool `json:"owned,omitempty"`
}

// CloudRef links a local snippet to its remote counterpart: the remote
// snippet uuid and the uuid of the blob holding the code.
// It is persisted in the composite form "<snippet uuid>:<blob uuid>".
type CloudRef struct {
	SnippetUUID string
	BlobUUID    string
}

// ParseCloudRef parses the composite form. An empty string is the zero ref.
func ParseCloudRef(s string) (CloudRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CloudRef{}, nil
	}

	snippetUUID, blobUUID, ok := strings.Cut(s, ":")
	if !ok || snippetUUID == "" || blobUUID == "" || strings.Contains(blobUUID, ":") {
		return CloudRef{}, fmt.Errorf("model: malformed cloud reference %q", s)
	}

	return CloudRef{SnippetUUID: snippetUUID, BlobUUID: blobUUID}, nil
}

// String returns the composite form, or "" for the zero ref.
func (r CloudRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.SnippetUUID + ":" + r.BlobUUID
}

func (r CloudRef) IsZero() bool {
	return r.SnippetUUID == "" && r.BlobUUID == ""
}

func (r CloudRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *CloudRef) UnmarshalText(text []byte) error {
	ref, err := ParseCloudRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
