package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	"github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/inmem"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	"github.com/davicafu/gridquery/tests/mocks"
)

func seededRepo(t *testing.T) *inmem.DocumentRepo {
	t.Helper()
	repo := inmem.NewDocumentRepo()
	err := repo.Insert(context.Background(), "people",
		domain.Document{"status": "active", "age": 17},
		domain.Document{"status": "active", "age": 22},
		domain.Document{"status": "pending", "age": 30},
	)
	require.NoError(t, err)
	return repo
}

func TestQuery_EndToEnd(t *testing.T) {
	// Arrange
	service := NewQueryService(seededRepo(t), mocks.NewDummyCache(), zap.NewNop())

	// Act
	res, err := service.Query(context.Background(), "people", domain.QueryOptions{
		Filter:       "status(eq:pending);age(gte:20)",
		Page:         1,
		ItemsPerPage: 10,
	})

	// Assert
	require.NoError(t, err)
	data := res.Data.([]domain.Document)
	require.Len(t, data, 2)
	assert.Equal(t, 22, data[0]["age"])
	assert.Equal(t, 30, data[1]["age"])
	assert.Equal(t, int64(2), res.ResultCount)
	assert.Equal(t, int64(3), res.TotalCount)
}

func TestQuery_OrOfAndGroups(t *testing.T) {
	service := NewQueryService(seededRepo(t), nil, zap.NewNop())

	// ';' es OR: el primer grupo ya admite los dos registros activos
	res, err := service.Query(context.Background(), "people", domain.QueryOptions{
		Filter: "status(eq:active);age(gte:25)",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.ResultCount)

	// ',' es AND: ningún activo tiene 25 o más
	res, err = service.Query(context.Background(), "people", domain.QueryOptions{
		Filter: "status(eq:active),age(gte:25)",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.ResultCount)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Empty(t, res.Data)
}

func TestQuery_InvalidFilterIsPassThrough(t *testing.T) {
	service := NewQueryService(seededRepo(t), nil, zap.NewNop())

	for _, filter := range []string{"", "status(bogus:1)", "no parens", "(eq:1)"} {
		res, err := service.Query(context.Background(), "people", domain.QueryOptions{Filter: filter})
		require.NoError(t, err, filter)
		assert.Equal(t, int64(3), res.ResultCount, filter)
		assert.Len(t, res.Data, 3, filter)
	}
}

func TestQuery_SortAndPaginate(t *testing.T) {
	service := NewQueryService(seededRepo(t), nil, zap.NewNop(), WithDefaultItemsPerPage(2))

	res, err := service.Query(context.Background(), "people", domain.QueryOptions{
		SortBy:   "age",
		SortDesc: "true",
		Page:     "2",
	})

	require.NoError(t, err)
	data := res.Data.([]domain.Document)
	require.Len(t, data, 1)
	assert.Equal(t, 17, data[0]["age"])
	assert.Equal(t, int64(3), res.ResultCount)
}

func TestQuery_SearchIsAndedWithFilter(t *testing.T) {
	repo := inmem.NewDocumentRepo()
	require.NoError(t, repo.Insert(context.Background(), "notes",
		domain.Document{"title": "Reunión de equipo", "status": "open"},
		domain.Document{"title": "Reunión anual", "status": "closed"},
		domain.Document{"title": "Informe", "status": "open"},
	))
	service := NewQueryService(repo, nil, zap.NewNop())

	res, err := service.Query(context.Background(), "notes", domain.QueryOptions{
		Search: "reunion",
		Filter: "status(eq:open)",
	})

	require.NoError(t, err)
	data := res.Data.([]domain.Document)
	require.Len(t, data, 1)
	assert.Equal(t, "Reunión de equipo", data[0]["title"])
	assert.Equal(t, int64(1), res.ResultCount)
	assert.Equal(t, int64(3), res.TotalCount)
}

func TestQuery_HugePageIsEmptyNotFatal(t *testing.T) {
	service := NewQueryService(seededRepo(t), nil, zap.NewNop())

	res, err := service.Query(context.Background(), "people", domain.QueryOptions{
		Page:         "9223372036854775807",
		ItemsPerPage: "10",
	})

	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, int64(3), res.ResultCount)
	assert.Equal(t, int64(3), res.TotalCount)
}

func TestQuery_SchemaCasting(t *testing.T) {
	repo := inmem.NewDocumentRepo()
	require.NoError(t, repo.Insert(context.Background(), "codes",
		domain.Document{"code": "007"},
		domain.Document{"code": 7},
	))

	// Sin esquema "007" se queda como texto
	inferred := NewQueryService(repo, nil, zap.NewNop())
	res, err := inferred.Query(context.Background(), "codes", domain.QueryOptions{Filter: "code(eq:007)"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ResultCount)
	assert.Equal(t, "007", res.Data.([]domain.Document)[0]["code"])

	withSchema := NewQueryService(repo, nil, zap.NewNop(),
		WithSchemas(map[string]domain.Schema{"codes": {"code": domain.FieldNumber}}))
	res, err = withSchema.Query(context.Background(), "codes", domain.QueryOptions{Filter: "code(eq:007)"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ResultCount)
	assert.Equal(t, 7, res.Data.([]domain.Document)[0]["code"])
}

func TestQuery_InvalidCollection(t *testing.T) {
	service := NewQueryService(new(mocks.MockDocumentRepository), nil, zap.NewNop())

	_, err := service.Query(context.Background(), "  ", domain.QueryOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidCollection)
}

// ---------------- Concurrencia ----------------

// barrierRepo sólo responde cuando las tres lecturas están en curso a la vez.
type barrierRepo struct {
	mocks.MockDocumentRepository
	wg sync.WaitGroup
}

func newBarrierRepo() *barrierRepo {
	r := &barrierRepo{}
	r.wg.Add(3)
	return r
}

func (r *barrierRepo) arrive() {
	r.wg.Done()
	r.wg.Wait()
}

func (r *barrierRepo) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	r.arrive()
	return []domain.Document{{"a": 1}}, nil
}

func (r *barrierRepo) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	r.arrive()
	if criteria == nil {
		return 10, nil
	}
	return 5, nil
}

func TestQuery_ReadsRunConcurrently(t *testing.T) {
	service := NewQueryService(newBarrierRepo(), nil, zap.NewNop())

	done := make(chan *domain.PaginatedResult, 1)
	go func() {
		res, err := service.Query(context.Background(), "c", domain.QueryOptions{Filter: "a(eq:1)"})
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Equal(t, int64(5), res.ResultCount)
		assert.Equal(t, int64(10), res.TotalCount)
		assert.Len(t, res.Data, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("the three reads were not issued concurrently")
	}
}

// failingRepo falla el conteo total y bloquea la página hasta la cancelación.
type failingRepo struct {
	mocks.MockDocumentRepository
	findCancelled chan struct{}
}

var errBoom = errors.New("boom")

func (r *failingRepo) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	<-ctx.Done()
	close(r.findCancelled)
	return nil, ctx.Err()
}

func (r *failingRepo) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	if criteria == nil {
		return 0, errBoom
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestQuery_FirstErrorCancelsOtherReads(t *testing.T) {
	repo := &failingRepo{findCancelled: make(chan struct{})}
	service := NewQueryService(repo, nil, zap.NewNop())

	res, err := service.Query(context.Background(), "c", domain.QueryOptions{Filter: "a(eq:1)"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, errBoom)
	select {
	case <-repo.findCancelled:
	case <-time.After(time.Second):
		t.Fatal("page read was not cancelled")
	}
}

// ---------------- Valores distintos ----------------

func TestQuery_FilterListShortCircuit(t *testing.T) {
	// Arrange
	repo := new(mocks.MockDocumentRepository)
	cache := mocks.NewDummyCache()
	service := NewQueryService(repo, cache, zap.NewNop())

	values := []domain.DistinctValueCount{{Value: "active", Count: 2}, {Value: "pending", Count: 1}}
	repo.On("DistinctValues", mock.Anything, "people", "status", domain.DistinctUnwindDepth).
		Return(values, nil).Once()

	// Act
	res, err := service.Query(context.Background(), "people", domain.QueryOptions{
		GetFilterList: "status",
		Filter:        "ignored(eq:1)",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, values, res.Data)
	assert.Equal(t, int64(2), res.ResultCount)
	assert.Equal(t, int64(2), res.TotalCount)
	repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything, mock.Anything)

	// La segunda petición sale de la caché
	key := domain.DistinctCacheKey("people", "status", 0)
	assert.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)

	res, err = service.Query(context.Background(), "people", domain.QueryOptions{GetFilterList: "status"})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	repo.AssertNumberOfCalls(t, "DistinctValues", 1)
}

func TestDistinctValues_RetriesThenFails(t *testing.T) {
	repo := new(mocks.MockDocumentRepository)
	service := NewQueryService(repo, nil, zap.NewNop())

	repo.On("DistinctValues", mock.Anything, "people", "status", domain.DistinctUnwindDepth).
		Return(nil, errBoom)

	_, err := service.DistinctValues(context.Background(), "people", "status")

	assert.ErrorIs(t, err, errBoom)
	repo.AssertNumberOfCalls(t, "DistinctValues", retryAttempts)
}

func TestDistinctValues_EmptyIsNotNil(t *testing.T) {
	service := NewQueryService(inmem.NewDocumentRepo(), nil, zap.NewNop())

	res, err := service.Query(context.Background(), "empty", domain.QueryOptions{GetFilterList: "x"})

	require.NoError(t, err)
	assert.Equal(t, []domain.DistinctValueCount{}, res.Data)
	assert.Zero(t, res.TotalCount)
}

// ---------------- Inserción ----------------

func TestInsert_InvalidatesDistinctCache(t *testing.T) {
	repo := seededRepo(t)
	cache := mocks.NewDummyCache()
	service := NewQueryService(repo, cache, zap.NewNop())
	ctx := context.Background()

	key := domain.DistinctCacheKey("people", "status", 0)
	require.NoError(t, cache.Set(ctx, key, []domain.DistinctValueCount{{Value: "stale", Count: 1}}, 0))
	otherKey := domain.DistinctCacheKey("pets", "status", 0)
	require.NoError(t, cache.Set(ctx, otherKey, []domain.DistinctValueCount{}, 0))

	require.NoError(t, service.Insert(ctx, "people", domain.Document{"status": "archived"}))

	assert.Eventually(t, func() bool { return !cache.Has(key) }, time.Second, 10*time.Millisecond)
	assert.True(t, cache.Has(otherKey))

	n, err := service.Count(ctx, "people", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestDistinctValues_CacheHitKeepsValueTypes(t *testing.T) {
	repo := inmem.NewDocumentRepo()
	cache := mocks.NewDummyCache()
	service := NewQueryService(repo, cache, zap.NewNop())
	ctx := context.Background()

	born := time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, "mixed",
		domain.Document{"v": 7},
		domain.Document{"v": int64(1) << 40},
		domain.Document{"v": 2.5},
		domain.Document{"v": "x"},
		domain.Document{"v": born},
		domain.Document{"v": map[string]any{"a": 1}},
	))

	fresh, err := service.DistinctValues(ctx, "mixed", "v")
	require.NoError(t, err)
	require.Len(t, fresh, 6)

	key := domain.DistinctCacheKey("mixed", "v", 0)
	assert.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)

	// Escritura directa al repositorio: sólo la caché puede responder igual
	require.NoError(t, repo.Insert(ctx, "mixed", domain.Document{"v": "new"}))

	cached, err := service.DistinctValues(ctx, "mixed", "v")
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)

	// Orden por tipo y valor: 2.5, 7, 1<<40, "x", {a:1}, fecha
	assert.IsType(t, 0, cached[1].Value)
	assert.IsType(t, int64(0), cached[2].Value)
	assert.IsType(t, map[string]any{}, cached[4].Value)
	assert.Equal(t, born, cached[5].Value)
}

func TestDistinctValues_ReadRacingInsertIsNotReused(t *testing.T) {
	repo := new(mocks.MockDocumentRepository)
	cache := mocks.NewDummyCache()
	service := NewQueryService(repo, cache, zap.NewNop())
	ctx := context.Background()

	stale := []domain.DistinctValueCount{{Value: "active", Count: 1}}
	fresh := []domain.DistinctValueCount{{Value: "active", Count: 1}, {Value: "archived", Count: 1}}

	started := make(chan struct{})
	release := make(chan struct{})
	repo.On("DistinctValues", mock.Anything, "people", "status", domain.DistinctUnwindDepth).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(stale, nil).Once()
	repo.On("DistinctValues", mock.Anything, "people", "status", domain.DistinctUnwindDepth).
		Return(fresh, nil).Once()
	repo.On("Insert", mock.Anything, "people", mock.Anything).Return(nil)

	// Marca para saber cuándo terminó la invalidación asíncrona
	marker := domain.DistinctCacheKey("people", "other", 0)
	require.NoError(t, cache.Set(ctx, marker, []byte("x"), 0))

	done := make(chan []domain.DistinctValueCount)
	go func() {
		values, _ := service.DistinctValues(ctx, "people", "status")
		done <- values
	}()
	<-started

	// El Insert llega mientras la agregación lee datos viejos
	require.NoError(t, service.Insert(ctx, "people", domain.Document{"status": "archived"}))
	assert.Eventually(t, func() bool { return !cache.Has(marker) }, time.Second, 10*time.Millisecond)

	close(release)
	assert.Equal(t, stale, <-done)
	assert.Eventually(t, func() bool {
		return cache.Has(domain.DistinctCacheKey("people", "status", 0))
	}, time.Second, 10*time.Millisecond)

	// La lista vieja quedó bajo la generación anterior
	values, err := service.DistinctValues(ctx, "people", "status")
	require.NoError(t, err)
	assert.Equal(t, fresh, values)
	repo.AssertNumberOfCalls(t, "DistinctValues", 2)
}

func TestInsert_PropagatesError(t *testing.T) {
	repo := new(mocks.MockDocumentRepository)
	service := NewQueryService(repo, nil, zap.NewNop())
	docs := []domain.Document{{"a": 1}}

	repo.On("Insert", mock.Anything, "c", docs).Return(errBoom)

	err := service.Insert(context.Background(), "c", docs...)

	assert.ErrorIs(t, err, errBoom)
	repo.AssertExpectations(t)
}

func TestFindWithBuiltQuery(t *testing.T) {
	service := NewQueryService(seededRepo(t), nil, zap.NewNop())

	q := service.NewQuery("people").ApplySort("age", "true").ApplyPagination(1, 1, 10).Build()
	docs, err := service.Find(context.Background(), "people", q)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 30, docs[0]["age"])
}
