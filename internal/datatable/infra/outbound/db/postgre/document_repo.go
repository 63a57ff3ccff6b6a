package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	"github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/inmem"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// DocumentRepoPostgres guarda cada documento como JSONB. Postgres filtra por
// colección y cuenta; filtros, orden y agregaciones los resuelve el motor en
// memoria, igual que en SQLite.
type DocumentRepoPostgres struct {
	db *sql.DB
}

var _ domain.DocumentRepository = (*DocumentRepoPostgres)(nil)

func NewDocumentRepoPostgres(db *sql.DB) *DocumentRepoPostgres {
	return &DocumentRepoPostgres{db: db}
}

// ------------------ Métodos ------------------

func (r *DocumentRepoPostgres) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	docs, err := r.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	return inmem.Find(docs, q)
}

func (r *DocumentRepoPostgres) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	if strings.TrimSpace(collection) == "" {
		return 0, domain.ErrInvalidCollection
	}

	if criteria == nil {
		var n int64
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE collection = $1`, collection,
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

func (r *DocumentRepoPostgres) DistinctValues(ctx context.Context, collection, field string, depth int) ([]domain.DistinctValueCount, error) {
	docs, err := r.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	return inmem.Distinct(docs, field, depth), nil
}

// Insert guarda todos los documentos en una transacción.
func (r *DocumentRepoPostgres) Insert(ctx context.Context, collection string, docs ...domain.Document) (err error) {
	if strings.TrimSpace(collection) == "" {
		return domain.ErrInvalidCollection
	}

	prepared, err := inmem.PrepareDocuments(docs)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
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
			`INSERT INTO documents (collection, body) VALUES ($1, $2::jsonb)`,
			collection, string(body),
		); err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
	}

	return tx.Commit()
}

// load lee la colección en orden de inserción.
func (r *DocumentRepoPostgres) load(ctx context.Context, collection string) ([]domain.Document, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, domain.ErrInvalidCollection
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT body::text FROM documents WHERE collection = $1 ORDER BY id`, collection,
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
		// Un cuerpo JSONB siempre es un objeto: DecodeDocuments devuelve uno
		decoded, err := domain.DecodeDocuments([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", collection, err)
		}
		docs = append(docs, decoded...)
	}
	return docs, rows.Err()
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		collection TEXT NOT NULL,
		body JSONB NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, id)`)
	return err
}
