package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
)

// PostgresStore keeps every collection in one documents table with a
// JSONB body. The composite primary key (collection, id) is what turns
// duplicate deliveries into merges instead of duplicate rows.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
	}
}

// EnsureSchema creates the documents table and the compound recency index
// the keyset scan relies on.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT        NOT NULL,
			id         TEXT        NOT NULL,
			doc        JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_recency_idx
			ON documents (collection, updated_at DESC, id ASC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return stderrors.NewStoreUnavailableError("postgres", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw []byte
	doc := &Document{ID: id}

	err := s.db.QueryRowContext(ctx,
		`SELECT doc, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, stderrors.NewStoreUnavailableError("postgres", err)
	}

	if err := json.Unmarshal(raw, &doc.Doc); err != nil {
		return nil, fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) SetMerge(ctx context.Context, collection, id string, doc map[string]interface{}) (*Document, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s/%s: %w", collection, id, err)
	}

	out := &Document{ID: id}
	var raw []byte

	// doc || EXCLUDED.doc keeps existing fields the new write does not
	// mention; updated_at refreshes on every write, created_at only on
	// the first.
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = now()
		 RETURNING doc, created_at, updated_at`,
		collection, id, body,
	).Scan(&raw, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, stderrors.NewStoreUnavailableError("postgres", err)
	}

	if err := json.Unmarshal(raw, &out.Doc); err != nil {
		return nil, fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
	}
	return out, nil
}

var filterFieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (s *PostgresStore) List(ctx context.Context, collection string, q Query) (*Page, error) {
	limit := clampLimit(q.Limit)

	var after *cursor
	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, stderrors.NewBadRequestError(err.Error())
		}
		after = &c
	}

	page, err := s.listOrdered(ctx, collection, q.Filter, limit, after)
	if err == nil {
		return page, nil
	}

	// Degraded mode: the compound order-by can fail against legacy
	// schemas. Retry as an id-ordered scan with the same cursor shape.
	s.logger.Warn("ordered listing failed, falling back to id scan", map[string]interface{}{
		"collection": collection,
		"error":      err,
	})
	return s.listByID(ctx, collection, q.Filter, limit, after)
}

func (s *PostgresStore) listOrdered(ctx context.Context, collection string, filter map[string]string, limit int, after *cursor) (*Page, error) {
	query, args, err := buildListQuery(collection, filter, limit, after, true)
	if err != nil {
		return nil, err
	}
	return s.runListQuery(ctx, query, args, limit)
}

func (s *PostgresStore) listByID(ctx context.Context, collection string, filter map[string]string, limit int, after *cursor) (*Page, error) {
	query, args, err := buildListQuery(collection, filter, limit, after, false)
	if err != nil {
		return nil, err
	}
	return s.runListQuery(ctx, query, args, limit)
}

func buildListQuery(collection string, filter map[string]string, limit int, after *cursor, ordered bool) (string, []interface{}, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, doc, created_at, updated_at FROM documents WHERE collection = $1`)
	args := []interface{}{collection}

	for field, value := range filter {
		if !filterFieldPattern.MatchString(field) {
			return "", nil, stderrors.NewBadRequestError(fmt.Sprintf("invalid filter field: %s", field))
		}
		args = append(args, value)
		fmt.Fprintf(&sb, ` AND doc->>'%s' = $%d`, field, len(args))
	}

	if after != nil {
		if ordered {
			args = append(args, after.UpdatedAt)
			tsArg := len(args)
			args = append(args, after.ID)
			fmt.Fprintf(&sb, ` AND (updated_at < $%d OR (updated_at = $%d AND id > $%d))`, tsArg, tsArg, len(args))
		} else {
			args = append(args, after.ID)
			fmt.Fprintf(&sb, ` AND id > $%d`, len(args))
		}
	}

	if ordered {
		sb.WriteString(` ORDER BY updated_at DESC, id ASC`)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	args = append(args, limit+1)
	fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))

	return sb.String(), args, nil
}

func (s *PostgresStore) runListQuery(ctx context.Context, query string, args []interface{}, limit int) (*Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewStoreUnavailableError("postgres", err)
	}
	defer rows.Close()

	items := make([]Document, 0, limit)
	for rows.Next() {
		var (
			doc Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, stderrors.NewStoreUnavailableError("postgres", err)
		}
		if err := json.Unmarshal(raw, &doc.Doc); err != nil {
			return nil, fmt.Errorf("unmarshal document %s: %w", doc.ID, err)
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreUnavailableError("postgres", err)
	}

	page := &Page{Items: items}
	// One extra row was fetched to detect whether a further page exists.
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.Next = encodeCursor(cursor{UpdatedAt: last.UpdatedAt, ID: last.ID})
	}
	return page, nil
}
