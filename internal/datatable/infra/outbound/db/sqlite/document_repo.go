package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	"github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/inmem"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// DocumentRepoSQLite persiste los documentos como JSON en una única tabla y
// evalúa filtros, orden y agregaciones con el motor en memoria.
type DocumentRepoSQLite struct {
	db *sql.DB
}

var _ domain.DocumentRepository = (*DocumentRepoSQLite)(nil)

func NewDocumentRepoSQLite(db *sql.DB) *DocumentRepoSQLite {
	return &DocumentRepoSQLite{db: db}
}

// ------------------ Métodos ------------------

func (r *DocumentRepoSQLite) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	docs, err := r.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	return inmem.Find(docs, q)
}

func (r *DocumentRepoSQLite) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	if strings.TrimSpace(collection) == "" {
		return 0, domain.ErrInvalidCollection
	}

	// Sin criterio no hace falta decodificar nada
	if criteria == nil {
		var n int64
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection,
		).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("count in %s: %w", collection, err)
		}
		return n, nil
	}

	docs, err := r.load(ctx, collection)
	if err != nil {
		return 0, err
	}
	return inmem.Count(docs, criteria)
}

func (r *DocumentRepoSQLite) DistinctValues(ctx context.Context, collection, field string, depth int) ([]domain.DistinctValueCount, error) {
	docs, err := r.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	return inmem.Distinct(docs, field, depth), nil
}

// Insert guarda todos los documentos en una transacción.
func (r *DocumentRepoSQLite) Insert(ctx context.Context, collection string, docs ...domain.Document) (err error) {
	if strings.TrimSpace(collection) == "" {
		return domain.ErrInvalidCollection
	}

	prepared, err := inmem.PrepareDocuments(docs)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, doc := range prepared {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, body) VALUES (?, ?)`,
			collection, string(body),
		); err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
	}

	return tx.Commit()
}

// load lee la colección en orden de inserción.
func (r *DocumentRepoSQLite) load(ctx context.Context, collection string) ([]domain.Document, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, domain.ErrInvalidCollection
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY id`, collection,
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// decodeDocument conserva los números como json.Number para no perder
// precisión en enteros grandes.
func decodeDocument(body string) (domain.Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// InitSQLite crea la tabla de documentos si no existe.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            collection TEXT NOT NULL,
            body TEXT NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, id)`)
	return err
}
