package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/config"
	"github.com/cyphera/cyphera-relayer/internal/constants"
	"github.com/cyphera/cyphera-relayer/internal/handlers"
	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/middleware"
	"github.com/cyphera/cyphera-relayer/internal/services"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers holds everything the routes serve.
type Handlers struct {
	Wallet   *handlers.WalletAPI
	Health   *handlers.HealthHandler
	Registry *prometheus.Registry
}

// InitializeHandlers connects to the node, loads the relayer identity and
// builds the sponsorship pipeline. The returned cleanup closes the node
// connection.
func InitializeHandlers(ctx context.Context, cfg *config.Config, relayerKey string, options ...services.BlockchainOption) (*Handlers, func(), error) {
	identity, err := services.NewRelayerIdentityFromHex(relayerKey)
	if err != nil {
		return nil, nil, err
	}

	node := services.NewBlockchainService(cfg.RPCURL, options...)
	if err := node.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	chainID, err := resolveChainID(ctx, node, cfg.ChainID)
	if err != nil {
		node.Close()
		return nil, nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sponsorship := services.NewSponsorshipService(services.SponsorshipServiceConfig{
		Backend:    node,
		Signer:     identity,
		ChainID:    chainID,
		Capability: cfg.Capability,
		Metrics:    services.NewWalletMetrics(registry),
	})

	logger.For(logger.ComponentServer).Info("Sponsorship service initialized",
		zap.String("chain_id", chainID.String()),
		zap.String("relayer", identity.Address().Hex()),
		zap.Strings("delegation_addresses", config.DelegationAddressesHex(cfg.Capability.Addresses)),
	)

	return &Handlers{
		Wallet:   handlers.NewWalletAPI(sponsorship),
		Health:   handlers.NewHealthHandler(node, chainID, identity.Address()),
		Registry: registry,
	}, node.Close, nil
}

// resolveChainID uses the configured chain id when set, after checking it
// against the node. Otherwise the node's chain id is used.
func resolveChainID(ctx context.Context, node *services.BlockchainService, configured *big.Int) (*big.Int, error) {
	reported, err := node.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if configured != nil && configured.Cmp(reported) != 0 {
		return nil, fmt.Errorf("configured chain id %s does not match node chain id %s", configured, reported)
	}
	return reported, nil
}

// NewRPCServer registers the wallet API under the wallet and odyssey namespaces.
func NewRPCServer(api *handlers.WalletAPI) (*rpc.Server, error) {
	rpcServer := rpc.NewServer()
	for _, namespace := range []string{constants.WalletNamespace, constants.OdysseyNamespace} {
		if err := rpcServer.RegisterName(namespace, api); err != nil {
			rpcServer.Stop()
			return nil, fmt.Errorf("failed to register %s namespace: %w", namespace, err)
		}
	}
	return rpcServer, nil
}

// InitializeRoutes installs middleware and routes. ctx bounds background
// work started by the middleware.
func InitializeRoutes(ctx context.Context, router *gin.Engine, cfg *config.Config, h *Handlers, rpcServer *rpc.Server) {
	router.Use(configureCORS(cfg.CORS))
	router.Use(middleware.CorrelationIDMiddleware())

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router.Use(rateLimiter.Middleware())

	isDevelopment := cfg.IsDevelopment()
	router.Use(middleware.EnhancedLoggingMiddleware(isDevelopment))
	if !isDevelopment {
		router.Use(middleware.RequestLoggingMiddleware())
	}

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})))

	router.POST("/", gin.WrapH(rpcServer))
	router.GET("/ws", gin.WrapH(rpcServer.WebsocketHandler(cfg.CORS.AllowedOrigins)))
}

// NewRouter returns a gin engine that only honours forwarding headers from
// the configured proxies. Client addresses drive rate limiting.
func NewRouter(cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return router, nil
}

func configureCORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Correlation-ID"}
	corsConfig.ExposeHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"Retry-After",
		"X-Correlation-ID",
	}

	return cors.New(corsConfig)
}

// Run serves the relayer until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, relayerKey string) error {
	gin.SetMode(cfg.GinMode)

	h, cleanup, err := InitializeHandlers(ctx, cfg, relayerKey)
	if err != nil {
		return err
	}
	defer cleanup()

	rpcServer, err := NewRPCServer(h.Wallet)
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	router, err := NewRouter(cfg)
	if err != nil {
		return err
	}
	InitializeRoutes(ctx, router, cfg, h, rpcServer)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
	}

	log := logger.For(logger.ComponentServer)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Relayer listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
