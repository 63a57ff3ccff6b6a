package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// DocumentRepoMongoDB implementa DocumentRepository sobre una base de MongoDB;
// cada colección lógica es una colección de la base.
type DocumentRepoMongoDB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ domain.DocumentRepository = (*DocumentRepoMongoDB)(nil)

// NewDocumentRepoMongoDB es el constructor del repositorio.
func NewDocumentRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*DocumentRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	return &DocumentRepoMongoDB{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (r *DocumentRepoMongoDB) collection(name string) (*mongo.Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidCollection
	}
	return r.db.Collection(name), nil
}

// --- Lectura ---

func (r *DocumentRepoMongoDB) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	coll, err := r.collection(collection)
	if err != nil {
		return nil, err
	}
	filter, err := criteriaToMongoFilter(q.Criteria)
	if err != nil {
		return nil, err
	}

	opts := options.Find()

	// Paginación
	if q.Pagination.Offset > 0 {
		opts.SetSkip(int64(q.Pagination.Offset))
	}
	if q.Pagination.Limit > 0 {
		opts.SetLimit(int64(q.Pagination.Limit))
	}

	// Ordenamiento
	if len(q.Sort) > 0 {
		opts.SetSort(sortToMongo(q.Sort))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []domain.Document{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, fromMongoDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}

	return docs, nil
}

func (r *DocumentRepoMongoDB) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	coll, err := r.collection(collection)
	if err != nil {
		return 0, err
	}
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return 0, err
	}

	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", collection, err)
	}
	return n, nil
}

type mongoValueCount struct {
	Value interface{} `bson:"value"`
	Count int64       `bson:"count"`
}

func (r *DocumentRepoMongoDB) DistinctValues(ctx context.Context, collection, field string, depth int) ([]domain.DistinctValueCount, error) {
	coll, err := r.collection(collection)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Aggregate(ctx, distinctPipeline(field, depth))
	if err != nil {
		return nil, fmt.Errorf("distinct %s in %s: %w", field, collection, err)
	}
	defer cursor.Close(ctx)

	var rows []mongoValueCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("distinct %s in %s: %w", field, collection, err)
	}

	result := make([]domain.DistinctValueCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.DistinctValueCount{
			Value: fromMongoValue(row.Value),
			Count: row.Count,
		})
	}
	return result, nil
}

// --- Escritura ---

func (r *DocumentRepoMongoDB) Insert(ctx context.Context, collection string, docs ...domain.Document) error {
	coll, err := r.collection(collection)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			return domain.ErrInvalidDocument
		}
		batch = append(batch, bson.M(doc))
	}

	if _, err := coll.InsertMany(ctx, batch); err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// --- Helpers de Mapeo y Conversión ---

func fromMongoDocument(raw bson.M) domain.Document {
	doc := make(domain.Document, len(raw))
	for k, v := range raw {
		doc[k] = fromMongoValue(v)
	}
	return doc
}

// fromMongoValue lleva los tipos del driver a tipos de Go serializables a JSON.
func fromMongoValue(v interface{}) interface{} {
	switch x := v.(type) {
	case bson.M:
		return map[string]any(fromMongoDocument(x))
	case bson.D:
		return map[string]any(fromMongoDocument(x.Map()))
	case bson.A:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromMongoValue(x[i])
		}
		return out
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		return x.String()
	case primitive.Regex:
		return x.String()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
