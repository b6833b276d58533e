package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/handlers"
	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
	"github.com/rajiknows/dcex-project/pkg/metrics"
	"github.com/rajiknows/dcex-project/pkg/mutex"
	"github.com/rajiknows/dcex-project/pkg/ratelimiter"
)

// Server holds the wired application components.
type Server struct {
	httpServer  *http.Server
	config      *config.Config
	authService *services.AuthService
	walletRepo  *keyvault.MongoRepository
	chains      *services.ChainClients
	prices      *services.PriceService
	rateLimiter *ratelimiter.RateLimiter
	swapLocks   *mutex.UserMutex
	router      *handlers.Router
}

func main() {
	cfg := config.LoadConfig()

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}
	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()
	log.Info("Starting wallet API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("mainnet_rpc", cfg.Networks.MainnetRPC),
		zap.String("devnet_rpc", cfg.Networks.DevnetRPC),
		zap.Int("rate_limit_rpm", cfg.RateLimit.RequestsPerMinute),
		zap.String("log_level", cfg.Logging.Level),
	)

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a server instance with all dependencies wired.
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	authService, err := services.NewAuthService(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	walletRepo, err := keyvault.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wallet repository: %w", err)
	}
	vault := keyvault.New(walletRepo)

	netctx := network.NewContext(network.Endpoints{
		Mainnet: cfg.Networks.MainnetRPC,
		Devnet:  cfg.Networks.DevnetRPC,
	})

	chains := services.NewChainClients(netctx, &cfg.Networks)
	if err := chains.IsHealthy(context.Background()); err != nil {
		log.Warn("RPC health check failed at startup", zap.Error(err))
	}

	jupiter := services.NewJupiterClient(&cfg.Jupiter)
	priceService := services.NewPriceService(&cfg.Jupiter, &cfg.Prices)

	aggregator := services.NewAggregator(chains, netctx, priceService)
	executor := services.NewExecutor(vault, jupiter, chains, netctx, cfg.Networks.ConfirmTimeout)

	rateLimiter := ratelimiter.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.CleanupInterval)
	swapLocks := mutex.New(cfg.RateLimit.CleanupInterval)

	healthHandler := handlers.NewHealthHandler(authService, chains)
	router := handlers.NewRouter(authService, executor, jupiter, aggregator, vault, swapLocks, healthHandler)

	return &Server{
		config:      cfg,
		authService: authService,
		walletRepo:  walletRepo,
		chains:      chains,
		prices:      priceService,
		rateLimiter: rateLimiter,
		swapLocks:   swapLocks,
		router:      router,
	}, nil
}

// Start runs the HTTP server until a shutdown signal arrives.
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	s.setupMiddleware(engine)
	s.router.SetupHealthRoutes(engine)
	s.router.SetupRoutes(engine)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

func (s *Server) setupMiddleware(engine *gin.Engine) {
	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-API-Key", "X-Correlation-ID")
	engine.Use(cors.New(corsConfig))

	// Rate limiting sits before auth so unauthenticated floods are shed early.
	engine.Use(s.rateLimiter.Middleware())
}

func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()
	log.Info("Server gracefully stopped")
	return nil
}

func (s *Server) cleanup() {
	log := logger.GetLogger()

	s.rateLimiter.Stop()
	s.swapLocks.Stop()

	if s.walletRepo != nil {
		if err := s.walletRepo.Close(); err != nil {
			log.Error("Error closing wallet repository", zap.Error(err))
		}
	}
	if s.authService != nil {
		if err := s.authService.Close(); err != nil {
			log.Error("Error closing auth service", zap.Error(err))
		}
	}

	if err := logger.GetLogger().Sync(); err != nil {
		fmt.Printf("Error syncing logger: %v\n", err)
	}
}
