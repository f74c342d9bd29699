package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, name, description, code, tags, scope, priority, active,
	cloud_uuid, cloud_config, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s           model.Snippet
		tags        string
		cloudUUID   string
		cloudConfig string
	)

	if err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Code,
		&tags, &s.Scope, &s.Priority, &s.Active,
		&cloudUUID, &cloudConfig,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	s.Tags = splitTags(tags)

	ref, err := model.ParseCloudRef(cloudUUID)
	if err != nil {
		return nil, err
	}
	s.CloudRef = ref

	if cloudConfig != "" {
		if err := json.Unmarshal([]byte(cloudConfig), &s.Cloud); err != nil {
			return nil, fmt.Errorf("decoding cloud_config: %w", err)
		}
	}

	return &s, nil
}

// Tags are stored comma separated, the way the host stores them.
func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func encodeCloudConfig(c model.CloudConfig) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Create inserts a new snippet. It assigns the ID and timestamps on the
// caller's struct.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	cloudConfig, err := encodeCloudConfig(snippet.Cloud)
	if err != nil {
		return fmt.Errorf("sqlite: encoding cloud config: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Name,
		snippet.Description,
		snippet.Code,
		joinTags(snippet.Tags),
		snippet.Scope,
		snippet.Priority,
		snippet.Active,
		snippet.CloudRef.String(),
		cloudConfig,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// List returns snippets newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)

	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update rewrites every mutable column. id and created_at never change.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	cloudConfig, err := encodeCloudConfig(snippet.Cloud)
	if err != nil {
		return fmt.Errorf("sqlite: encoding cloud config: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET name = ?, description = ?, code = ?, tags = ?, scope = ?, priority = ?,
		     active = ?, cloud_uuid = ?, cloud_config = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Name,
		snippet.Description,
		snippet.Code,
		joinTags(snippet.Tags),
		snippet.Scope,
		snippet.Priority,
		snippet.Active,
		snippet.CloudRef.String(),
		cloudConfig,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// SetCloudRef writes only the cloud_uuid column.
func (db *DB) SetCloudRef(ctx context.Context, id string, ref model.CloudRef) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET cloud_uuid = ? WHERE id = ?`,
		ref.String(),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting cloud reference of snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// Delete removes a snippet from the database by its ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
