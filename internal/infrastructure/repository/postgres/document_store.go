package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/lib/pq"
)

// ErrSchemaMissing means app_documents does not exist; run cmd/migration up.
var ErrSchemaMissing = errors.New("app_documents table is missing")

const (
	pqUndefinedTable = pq.ErrorCode("42P01")
	pqDiskFull       = pq.ErrorCode("53100")
)

const (
	DefaultDocumentKey = "sportsapp"

	selectDocumentQuery = `SELECT payload FROM app_documents WHERE doc_key = $1`
	upsertDocumentQuery = `INSERT INTO app_documents (doc_key, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (doc_key)
DO UPDATE SET
    payload = EXCLUDED.payload,
    updated_at = NOW()`
)

// DocumentStore keeps the document as one jsonb row in app_documents. The
// payload is bound as text so lib/pq does not send it as bytea.
type DocumentStore struct {
	db       *sqlx.DB
	key      string
	maxBytes int64
}

func NewDocumentStore(db *sqlx.DB, key string, maxBytes int64) *DocumentStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultDocumentKey
	}
	return &DocumentStore{db: db, key: key, maxBytes: maxBytes}
}

func (s *DocumentStore) Load(ctx context.Context) (datastore.Document, error) {
	var row documentRow
	if err := s.db.GetContext(ctx, &row, selectDocumentQuery, s.key); err != nil {
		if isNotFound(err) {
			return datastore.Empty(), nil
		}
		return datastore.Document{}, fmt.Errorf("select document key=%s: %w", s.key, classifyPQError(err))
	}
	return decodeDocument(row.Payload)
}

func (s *DocumentStore) Save(ctx context.Context, doc datastore.Document) error {
	payload, err := encodeDocument(doc, s.maxBytes)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertDocumentQuery, s.key, string(payload)); err != nil {
		return fmt.Errorf("upsert document key=%s: %w", s.key, classifyPQError(err))
	}
	return nil
}

type documentRow struct {
	Payload []byte `db:"payload"`
}

func encodeDocument(doc datastore.Document, maxBytes int64) ([]byte, error) {
	payload, err := sonic.Marshal(doc.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if maxBytes > 0 && int64(len(payload)) > maxBytes {
		return nil, fmt.Errorf("%w: document is %d bytes, limit %d", datastore.ErrQuotaExceeded, len(payload), maxBytes)
	}
	return payload, nil
}

func decodeDocument(payload []byte) (datastore.Document, error) {
	if len(payload) == 0 {
		return datastore.Empty(), nil
	}
	var doc datastore.Document
	if err := sonic.Unmarshal(payload, &doc); err != nil {
		return datastore.Document{}, fmt.Errorf("decode document payload: %w", err)
	}
	return doc.Normalize(), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func classifyPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUndefinedTable:
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	case pqDiskFull:
		return fmt.Errorf("%w: %w", datastore.ErrQuotaExceeded, err)
	default:
		return err
	}
}
