package application

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedCache "github.com/davicafu/gridquery/shared/platform/cache"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
	sharedUtils "github.com/davicafu/gridquery/shared/utils"
)

const (
	defaultDistinctTTL = 60 // segundos
	retryAttempts      = 3
	retryDelay         = 100 * time.Millisecond
)

// QueryService resuelve consultas tabulares sobre colecciones de documentos.
// Incorpora repositorio, caché y logger.
type QueryService struct {
	repo  domain.DocumentRepository
	cache sharedCache.Cache
	log   *zap.Logger

	defaultItemsPerPage int
	schemas             map[string]domain.Schema
	distinctTTL         int
	generations         generations
}

// Option configura un QueryService.
type Option func(*QueryService)

// WithDefaultItemsPerPage fija el tamaño de página cuando la petición no lo trae.
func WithDefaultItemsPerPage(n int) Option {
	return func(s *QueryService) {
		if n > 0 {
			s.defaultItemsPerPage = n
		}
	}
}

// WithSchemas declara los tipos de campo de cada colección.
func WithSchemas(schemas map[string]domain.Schema) Option {
	return func(s *QueryService) { s.schemas = schemas }
}

// WithDistinctCacheTTL fija el TTL (segundos) de las listas de valores distintos.
func WithDistinctCacheTTL(secs int) Option {
	return func(s *QueryService) {
		if secs > 0 {
			s.distinctTTL = secs
		}
	}
}

// NewQueryService es el constructor del servicio. cache puede ser nil.
func NewQueryService(repo domain.DocumentRepository, cache sharedCache.Cache, log *zap.Logger, opts ...Option) *QueryService {
	s := &QueryService{
		repo:                repo,
		cache:               cache,
		log:                 log,
		defaultItemsPerPage: sharedQuery.DefaultItemsPerPage,
		distinctTTL:         defaultDistinctTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewQuery devuelve un constructor de consultas con el esquema de la colección.
func (s *QueryService) NewQuery(collection string) *domain.Query {
	return domain.NewQuery(s.schemas[collection])
}

// Query ejecuta la consulta completa: filtro, búsqueda, orden y paginación.
//
// Con GetFilterList devuelve en Data la lista de valores distintos de ese
// campo (ambos contadores son su longitud). En otro caso lanza a la vez la
// página, el conteo filtrado y el conteo total; el primer error cancela las
// otras dos lecturas. Los tres resultados no forman una instantánea
// consistente si la colección cambia entre lecturas.
func (s *QueryService) Query(ctx context.Context, collection string, opts domain.QueryOptions) (*domain.PaginatedResult, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, domain.ErrInvalidCollection
	}

	if field := strings.TrimSpace(opts.GetFilterList); field != "" {
		values, err := s.DistinctValues(ctx, collection, field)
		if err != nil {
			return nil, err
		}
		return &domain.PaginatedResult{
			Data:        values,
			ResultCount: int64(len(values)),
			TotalCount:  int64(len(values)),
		}, nil
	}

	q := s.NewQuery(collection).
		ApplyFilter(opts.Filter).
		ApplySearch(opts.Search, opts.SearchOptions).
		ApplySort(opts.SortBy, opts.SortDesc).
		ApplyPagination(opts.Page, opts.ItemsPerPage, s.defaultItemsPerPage).
		Build()

	var (
		data        []domain.Document
		resultCount int64
		totalCount  int64
	)
	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		data, err = s.repo.Find(groupCtx, collection, q)
		return err
	})
	g.Go(func() error {
		var err error
		resultCount, err = s.repo.Count(groupCtx, collection, q.Criteria)
		return err
	})
	g.Go(func() error {
		var err error
		totalCount, err = s.repo.Count(groupCtx, collection, nil)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to query collection",
			zap.String("collection", collection),
			zap.String("filter", opts.Filter),
			zap.Error(err))
		return nil, err
	}

	if data == nil {
		data = []domain.Document{}
	}

	s.log.Debug("🔎 Query resolved",
		zap.String("collection", collection),
		zap.Strings("sort", q.Sort.Fields()),
		zap.Int("page_size", len(data)),
		zap.Int64("result_count", resultCount),
		zap.Int64("total_count", totalCount))

	return &domain.PaginatedResult{
		Data:        data,
		ResultCount: resultCount,
		TotalCount:  totalCount,
	}, nil
}

// DistinctValues cuenta los valores distintos de field usando el patrón
// cache-aside con reintentos.
func (s *QueryService) DistinctValues(ctx context.Context, collection, field string) ([]domain.DistinctValueCount, error) {
	// La clave se fija antes de leer: si entra un Insert mientras tanto,
	// esta lista queda bajo la generación anterior
	key := domain.DistinctCacheKey(collection, field, s.generations.current(collection))

	// 1. Intentar obtener de la caché
	if s.cache != nil {
		var payload []byte
		if hit, _ := s.cache.Get(ctx, key, &payload); hit {
			cached, err := decodeDistinct(payload)
			if err == nil {
				return cached, nil
			}
			s.log.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		}
	}

	// 2. Si es 'miss', ir al repositorio con reintentos
	var values []domain.DistinctValueCount
	err := sharedUtils.Retry(ctx, retryAttempts, retryDelay, func() error {
		var errRetry error
		values, errRetry = s.repo.DistinctValues(ctx, collection, field, domain.DistinctUnwindDepth)
		return errRetry
	})
	if err != nil {
		s.log.Error("Failed to aggregate distinct values",
			zap.String("collection", collection),
			zap.String("field", field),
			zap.Error(err))
		return nil, err
	}
	if values == nil {
		values = []domain.DistinctValueCount{}
	}

	// 3. Actualizar caché en segundo plano
	if s.cache != nil {
		payload, err := encodeDistinct(values)
		if err != nil {
			s.log.Warn("Distinct values not cacheable", zap.String("key", key), zap.Error(err))
		} else {
			sharedCache.AsyncCacheSet(s.cache, key, payload, s.distinctTTL, s.log)
		}
	}

	return values, nil
}

// Find ejecuta una consulta ya construida (ver NewQuery).
func (s *QueryService) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	return s.repo.Find(ctx, collection, q)
}

// Count es un pass-through al repositorio; criteria nil cuenta toda la colección.
func (s *QueryService) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	return s.repo.Count(ctx, collection, criteria)
}

// Insert añade documentos e invalida las listas de valores de la colección.
// La generación avanza después de escribir, así ninguna lectura posterior
// reutiliza una lista calculada antes. Entre réplicas sólo cuenta la
// invalidación por prefijo.
func (s *QueryService) Insert(ctx context.Context, collection string, docs ...domain.Document) error {
	if err := s.repo.Insert(ctx, collection, docs...); err != nil {
		s.log.Error("Failed to insert documents",
			zap.String("collection", collection),
			zap.Int("count", len(docs)),
			zap.Error(err))
		return err
	}

	s.generations.bump(collection)
	sharedCache.AsyncCacheInvalidate(s.cache, domain.DistinctCachePrefix(collection), s.log)

	s.log.Info("📥 Documents inserted",
		zap.String("collection", collection),
		zap.Int("count", len(docs)))
	return nil
}
