package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// MockDocumentRepository simula el repositorio de documentos
type MockDocumentRepository struct {
	mock.Mock
}

var _ domain.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	args := m.Called(ctx, collection, q)
	docs, _ := args.Get(0).([]domain.Document)
	return docs, args.Error(1)
}

func (m *MockDocumentRepository) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	args := m.Called(ctx, collection, criteria)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) DistinctValues(ctx context.Context, collection, field string, depth int) ([]domain.DistinctValueCount, error) {
	args := m.Called(ctx, collection, field, depth)
	values, _ := args.Get(0).([]domain.DistinctValueCount)
	return values, args.Error(1)
}

func (m *MockDocumentRepository) Insert(ctx context.Context, collection string, docs ...domain.Document) error {
	args := m.Called(ctx, collection, docs)
	return args.Error(0)
}
