package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/eskrenkovic/csv-import-go/internal/config"
	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/metrics"
	"github.com/eskrenkovic/csv-import-go/internal/modules/core"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/commands"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/queries"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/store"
	"github.com/eskrenkovic/csv-import-go/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for an application.
type HTTPServer struct {
	server *http.Server
	db     *sqlx.DB
	logger *zap.Logger
}

func NewHTTPServer(config config.Config) (*HTTPServer, error) {
	baseCtx := context.Background()

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.Open(baseCtx, config.DatabaseDriver, config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if config.MigrateOnStart {
		if err := database.Migrate(baseCtx, db, config.DatabaseDriver, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	storage, err := upload.New(config.UploadStorage, config.UploadTempDir, config.UploadMaxBytes)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline := core.NewPipeline(
		&core.RequestLoggingBehavior{Logger: logger},
		&core.HandlerErrorLoggingBehavior{Logger: logger},
		&core.RequestValidationBehavior{},
	)

	// handler registration

	importHandler := commands.NewImportProductsCommandHandler(
		db,
		store.NewInserter(config.DatabaseDriver),
		config.ImportVariant,
		metrics.NewImportMetrics(registry),
	)
	importEndpoint := commands.NewImportEndpoint(pipeline, importHandler, storage, config.UploadMaxBytes)

	listHandler := queries.NewListProductsQueryHandler(db, config.DatabaseDriver, config.ImportVariant)
	productsEndpoint := queries.NewProductsEndpoint(pipeline, listHandler)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(core.CorrelationIDHTTPMiddleware)
	r.Use(core.LoggerHTTPMiddleware(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{core.CorrelationIDHeader},
	}).Handler)

	// http

	r.Post("/upload", importEndpoint.HandleUpload)
	if config.ImportVariant == domain.VariantSKU {
		r.Post("/api/upload", importEndpoint.HandleUpload)
	}

	r.Get("/products", productsEndpoint.HandleListProducts)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.NotFound(core.WriteNotFound)
	r.MethodNotAllowed(core.WriteMethodNotAllowed)

	server := http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	return &HTTPServer{server: &server, db: db, logger: logger}, nil
}

// Handler exposes the routed handler so it can be served by test servers.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("listening", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop drains in-flight requests and closes the database pool.
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := s.server.Shutdown(ctx)

	return errors.Join(shutdownErr, s.db.Close())
}
