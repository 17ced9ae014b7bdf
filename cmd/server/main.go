package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kaiapay.backend/internal/config"
	"kaiapay.backend/internal/infrastructure/blockchain"
	"kaiapay.backend/internal/infrastructure/identity"
	"kaiapay.backend/internal/infrastructure/jobs"
	"kaiapay.backend/internal/infrastructure/repositories"
	"kaiapay.backend/internal/interfaces/http/handlers"
	"kaiapay.backend/internal/interfaces/http/middleware"
	"kaiapay.backend/internal/interfaces/http/response"
	"kaiapay.backend/internal/usecases"
	"kaiapay.backend/pkg/jwt"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/redis"
)

const identityCachePrefix = "identity:user"

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), newGormConfig())
	}
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	dialChain = blockchain.NewEVMClient
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
	signalCtx = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	}
)

// newGormConfig translates driver unique violations into gorm.ErrDuplicatedKey,
// which the repositories map onto domain conflicts.
func newGormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
	}
}

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
		logger.Warn(context.Background(), "Invalid log level", zap.String("level", cfg.Server.LogLevel))
	}
	response.SetExposeInternalErrors(cfg.Server.IsDevelopment())
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	ctx, stop := signalCtx(context.Background())
	defer stop()

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer func() { _ = redis.Close() }()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Warn(ctx, "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(ctx, "Connected to PostgreSQL via GORM")
	}

	chain, err := dialChain(ctx, cfg.Blockchain.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to kaia node: %w", err)
	}
	defer chain.Close()
	logger.Info(ctx, "Connected to Kaia node", zap.String("chainId", chain.ChainID().String()))

	r, expiryJob, err := buildServer(cfg, db, sqlDB, chain)
	if err != nil {
		return err
	}

	if cfg.Jobs.LinkExpiryEnabled {
		if err := expiryJob.Start(ctx); err != nil {
			return fmt.Errorf("failed to start link expiry job: %w", err)
		}
		defer expiryJob.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runServer(srv) }()
	logger.Info(ctx, "KaiaPay backend started", zap.String("port", cfg.Server.Port))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// buildServer wires repositories, usecases and handlers into the router
func buildServer(cfg *config.Config, db *gorm.DB, sqlDB *sql.DB, chain *blockchain.EVMClient) (*gin.Engine, *jobs.LinkExpiryJob, error) {
	if !common.IsHexAddress(cfg.Blockchain.ContractAddress) {
		return nil, nil, fmt.Errorf("invalid KAIAPAY_CONTRACT_ADDRESS %q", cfg.Blockchain.ContractAddress)
	}
	if !common.IsHexAddress(cfg.Blockchain.PotTokenAddress) {
		return nil, nil, fmt.Errorf("invalid USDT_ADDRESS %q", cfg.Blockchain.PotTokenAddress)
	}
	contract := common.HexToAddress(cfg.Blockchain.ContractAddress)

	verifier, err := newTokenVerifier(cfg.Privy)
	if err != nil {
		return nil, nil, err
	}
	feePayer, err := blockchain.NewFeePayerSigner(cfg.Blockchain.FeePayerPrivateKey, chain.ChainID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fee payer: %w", err)
	}

	identityProvider := identity.NewCachedProvider(
		identity.NewPrivyClient(cfg.Privy.APIURL, cfg.Privy.AppID, cfg.Privy.AppSecret, cfg.Privy.Timeout),
		redis.NewJSONCache(identityCachePrefix, cfg.Redis.IdentityCacheTTL),
	)

	// Repositories
	txRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	reconciliationUsecase := usecases.NewReconciliationUsecase(
		blockchain.NewReceiptFetcher(chain, cfg.Reconciliation.ReceiptAttempts, cfg.Reconciliation.ReceiptDelay),
		blockchain.NewEventExtractor(contract),
		txRepo, uow, identityProvider,
	)
	transactionUsecase := usecases.NewTransactionUsecase(txRepo, userRepo, identityProvider, cfg.Server.LinkBaseURL, cfg.Server.LinkTTL)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, uow, identityProvider, cfg.Server.LinkBaseURL)
	userUsecase := usecases.NewUserUsecase(userRepo, identityProvider)
	feeDelegationUsecase := usecases.NewFeeDelegationUsecase(feePayer, chain, usecases.RelayConfig{
		Method:         cfg.Blockchain.RelayMethod,
		Attempts:       cfg.Reconciliation.RelayAttempts,
		Delay:          cfg.Reconciliation.RelayDelay,
		WatchAddresses: cfg.Blockchain.FeePayerAddresses,
	})
	publicUsecase := usecases.NewPublicUsecase(
		blockchain.NewPotReader(chain, contract),
		common.HexToAddress(cfg.Blockchain.PotTokenAddress),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)

	registerHealthRoute(r, handlers.NewHealthHandler(2*time.Second,
		handlers.HealthCheck{Name: "database", Check: sqlDB.PingContext},
		handlers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redis.GetClient().Ping(ctx).Err()
		}},
	))
	registerMetricsRoute(r)
	registerAPIRoutes(r, routeDeps{
		transactionHandler:   handlers.NewTransactionHandler(reconciliationUsecase, transactionUsecase),
		paymentHandler:       handlers.NewPaymentHandler(paymentUsecase),
		userHandler:          handlers.NewUserHandler(userUsecase),
		feeDelegationHandler: handlers.NewFeeDelegationHandler(feeDelegationUsecase),
		publicHandler:        handlers.NewPublicHandler(publicUsecase),
		authMiddleware:       middleware.AuthMiddleware(verifier),
		idempotency:          middleware.IdempotencyMiddleware(),
	})

	expiryJob := jobs.NewLinkExpiryJob(txRepo, cfg.Jobs.LinkExpirySpec, cfg.Jobs.LinkExpiryTimeout)
	return r, expiryJob, nil
}

// newTokenVerifier prefers a configured PEM key and falls back to the JWKS endpoint
func newTokenVerifier(cfg config.PrivyConfig) (*jwt.Verifier, error) {
	if cfg.AppID == "" {
		return nil, errors.New("PRIVY_APP_ID is required")
	}

	var keys jwt.KeySource
	switch {
	case cfg.VerificationKey != "":
		static, err := jwt.NewStaticKey(cfg.VerificationKey)
		if err != nil {
			return nil, fmt.Errorf("invalid PRIVY_VERIFICATION_KEY: %w", err)
		}
		keys = static
	case cfg.JWKSURL != "":
		keys = jwt.NewJWKS(cfg.JWKSURL, cfg.JWKSCacheTTL, &http.Client{Timeout: cfg.Timeout})
	default:
		return nil, errors.New("PRIVY_VERIFICATION_KEY or PRIVY_JWKS_URL is required")
	}
	return jwt.NewVerifier(cfg.AppID, cfg.Issuer, keys), nil
}
