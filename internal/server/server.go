package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/foxsearch/internal/api/http"
	"github.com/GriffinCanCode/foxsearch/internal/api/middleware"
	"github.com/GriffinCanCode/foxsearch/internal/api/ws"
	"github.com/GriffinCanCode/foxsearch/internal/framerelay"
	"github.com/GriffinCanCode/foxsearch/internal/httpclient"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/config"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/foxsearch/internal/logging"
	"github.com/GriffinCanCode/foxsearch/internal/parser"
	"github.com/GriffinCanCode/foxsearch/internal/preferences"
	"github.com/GriffinCanCode/foxsearch/internal/relay"
	"github.com/GriffinCanCode/foxsearch/internal/search"
	"github.com/GriffinCanCode/foxsearch/internal/suggest"
	"github.com/GriffinCanCode/foxsearch/internal/tabs"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	prefs   *preferences.Store
	engine  *search.Engine
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}
	logger.Info("Initializing foxsearch",
		zap.String("addr", cfg.Server.Host+":"+cfg.Server.Port),
		zap.Strings("relays", cfg.Relay.URLs),
		zap.String("contract", cfg.Search.Contract),
		zap.String("prefs_backend", cfg.Prefs.Backend),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("foxsearch", logger.For("tracing"))

	client := httpclient.NewClient(httpclient.Options{
		Timeout:           cfg.Relay.Timeout,
		RequestsPerSecond: cfg.Relay.RequestsPerSecond,
	})
	fetcher := relay.New(client, cfg.Relay.URLs,
		relay.WithLogger(logger.For("relay")),
		relay.WithMetrics(metrics),
	)

	resultParser, err := parser.ForContract(cfg.Search.Contract, cfg.Search.BaseURL)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	kv, err := preferences.Open(preferences.Options{
		Backend:   cfg.Prefs.Backend,
		Path:      cfg.Prefs.Path,
		RedisAddr: cfg.Prefs.RedisAddr,
		RedisDB:   cfg.Prefs.RedisDB,
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	prefs := preferences.NewStore(kv, logger.For("preferences"))

	hub := ws.NewHub(logger.For("stream"))
	engine, err := search.New(fetcher, resultParser, cfg.Search.BaseURL,
		search.WithRenderer(hub),
		search.WithPageSizer(prefs),
		search.WithLogger(logger.For("search")),
		search.WithMetrics(metrics),
	)
	if err != nil {
		tracer.Close()
		prefs.Close()
		return nil, err
	}

	engineRelay := framerelay.New(framerelay.Options{
		Retries: cfg.Engine.Retries,
		Timeout: cfg.Engine.Timeout,
	}, logger.For("engine"), metrics)

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Engine:      engine,
		Relays:      fetcher,
		Suggestions: suggest.New(fetcher, cfg.Suggest.Language, logger.For("suggest"), metrics),
		Tabs:        tabs.NewManager(logger.For("tabs"), metrics),
		Frame:       tabs.NewFrameOverlay(cfg.Engine.PublicPath),
		Preferences: prefs,
		Subscribers: hub.Len,
		Tracer:      tracer,
		Metrics:     metrics,
		Logger:      logger.For("api"),
	})
	wsHandler := ws.NewHandler(hub, logger.For("stream"), metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.AccessLog(logger.For("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.CORSOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers.Register(router)
	router.GET(cfg.Engine.PublicPath, engineRelay.Handle)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
		prefs:   prefs,
		engine:  engine,
	}, nil
}

// Router exposes the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and releases resources
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	s.engine.Reset()
	s.tracer.Close()
	if err := s.prefs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close preferences: %w", err))
	}

	s.logger.Sync()
	return errors.Join(errs...)
}
