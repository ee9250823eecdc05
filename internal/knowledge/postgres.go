package knowledge

import (
	"context"
	"database/sql"

	_ "embed"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Retriever over a guidelines table ranked with
// Postgres full-text search. The caller owns the DB connection lifecycle.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresStore wraps an existing sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{DB: db} }

// Migrate applies the guidelines schema. The statements are idempotent so
// it is safe to run at every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, schemaSQL)
	return err
}

// AddGuideline stores one guideline document and returns its ID.
func (s *PostgresStore) AddGuideline(ctx context.Context, title, content string) (string, error) {
	id := uuid.New()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO guidelines (id, title, content) VALUES ($1, $2, $3)`,
		id, title, content,
	)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Search returns up to k guidelines ranked by full-text relevance to the
// query. A query with no matches returns an empty slice, not an error.
func (s *PostgresStore) Search(ctx context.Context, query string, k int) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, content,
                ts_rank(search_vector, plainto_tsquery('english', $1)) AS rank
         FROM guidelines
         WHERE search_vector @@ plainto_tsquery('english', $1)
         ORDER BY rank DESC
         LIMIT $2`,
		query, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Score); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
