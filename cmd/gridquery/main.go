package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	config "github.com/davicafu/gridquery/internal/config"
	"github.com/davicafu/gridquery/internal/datatable/application"
	"github.com/davicafu/gridquery/internal/datatable/domain"
	docEvents "github.com/davicafu/gridquery/internal/datatable/infra/inbound/events"
	docHttp "github.com/davicafu/gridquery/internal/datatable/infra/inbound/http"
	docCache "github.com/davicafu/gridquery/internal/datatable/infra/outbound/cache"
	"github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/inmem"
	docMongo "github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/mongodb"
	docPostgres "github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/postgre"
	docSQLite "github.com/davicafu/gridquery/internal/datatable/infra/outbound/db/sqlite"
	infraEvents "github.com/davicafu/gridquery/internal/infra/events"
	"github.com/davicafu/gridquery/pkg/logger"
	"github.com/davicafu/gridquery/pkg/utils"
	sharedCache "github.com/davicafu/gridquery/shared/platform/cache"
	sharedUtils "github.com/davicafu/gridquery/shared/utils"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer log.Sync()          // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Store ----------------
	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open document store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeRepo()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		memCache := docCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		cacheInstance = docCache.NewRedisCache(rdb, cfg.CacheTTL, "gridquery")
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// --------------- Servicio --------------
	schemas, err := domain.ParseSchemas([]byte(cfg.CollectionSchemas))
	if err != nil {
		log.Fatal("invalid COLLECTION_SCHEMAS", zap.Error(err))
	}

	queryService := application.NewQueryService(repo, cacheInstance, log,
		application.WithDefaultItemsPerPage(cfg.DefaultItemsPerPage),
		application.WithSchemas(schemas),
		application.WithDistinctCacheTTL(int(cfg.CacheTTL.Seconds())),
	)

	// ---------------- Events ---------------
	if cfg.UseKafka {
		log.Info("🚀 Ingesta de documentos desde Kafka")

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()

		consumer := docEvents.NewDocumentConsumer(queryService, log)
		infraEvents.NewConsumerAdapter(reader, consumer, log).Start(ctx)
	}

	// ---------------- HTTP ----------------
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID())
	docHttp.RegisterDocumentRoutes(router, docHttp.NewDocumentHandler(queryService))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": cfg.StoreBackend})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
		zap.String("backend", cfg.StoreBackend),
	)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Apagando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

// openRepository abre el backend configurado y devuelve su función de cierre.
func openRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.DocumentRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Info("⚡️ Usando colecciones en memoria")
		return inmem.NewDocumentRepo(), func() {}, nil

	case config.BackendSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := docSQLite.InitSQLite(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("💾 Usando SQLite", zap.String("path", cfg.SQLitePath))
		return docSQLite.NewDocumentRepoSQLite(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		// Postgres también puede tardar en aceptar conexiones
		err = sharedUtils.Retry(ctx, 5, 2*time.Second, func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		})
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := docPostgres.InitPostgres(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("🐘 Usando PostgreSQL")
		return docPostgres.NewDocumentRepoPostgres(db), func() { db.Close() }, nil

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}

		// Mongo puede tardar en aceptar conexiones al arrancar con docker-compose
		var repo *docMongo.DocumentRepoMongoDB
		err = sharedUtils.Retry(ctx, 5, 2*time.Second, func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			var errRetry error
			repo, errRetry = docMongo.NewDocumentRepoMongoDB(pingCtx, client, cfg.MongoDB)
			return errRetry
		})
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("🍃 Usando MongoDB", zap.String("db", cfg.MongoDB))
		return repo, func() { client.Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
