package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/car-api/internal/auth"
	"github.com/redmonkez12/car-api/internal/car"
	"github.com/redmonkez12/car-api/internal/config"
	"github.com/redmonkez12/car-api/internal/database"
	httpServer "github.com/redmonkez12/car-api/internal/http"
	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/ratelimit"
	"github.com/redmonkez12/car-api/internal/upload"
	"github.com/redmonkez12/car-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// repositories groups the stores selected by DB_DRIVER
type repositories struct {
	users auth.UserRepository
	cars  car.Repository
	close func()
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
		"storage_driver", cfg.Storage.Driver,
	)

	ctx := context.Background()

	// Initialize database connection
	repos, err := initRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repos.close()

	// Initialize blob store for uploaded images
	store, err := initStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize upload store: %w", err)
	}

	// Initialize rate limiter
	var rateLimiter auth.RateLimiter = ratelimit.Disabled{}
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	// Initialize token service
	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	isProduction := !cfg.Server.IsDevelopment()

	// Initialize services and handlers
	authService := auth.NewService(repos.users, tokenService)
	authHandler := auth.NewHandler(authService, rateLimiter, isProduction)
	authMiddleware := auth.NewMiddleware(tokenService)

	carService := car.NewService(repos.cars, store)
	carHandler := car.NewHandler(carService, cfg.Storage.MaxFiles, cfg.Storage.MaxUploadBytes, isProduction)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, carHandler, store, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.ReadHeaderTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRepositories connects to the store selected by DB_DRIVER. An unreachable store is fatal.
func initRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, database.MongoOptions{
			URI:       cfg.Mongo.URI,
			Database:  cfg.Mongo.Database,
			OpTimeout: cfg.Mongo.OpTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &repositories{
			users: user.NewMongoRepository(db),
			cars:  car.NewMongoRepository(db),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, database.PostgresOptions{
			DSN:          cfg.Postgres.ConnectionString(),
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		return &repositories{
			users: user.NewBunRepository(db),
			cars:  car.NewBunRepository(db),
			close: func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		return &repositories{
			users: user.NewMemoryRepository(),
			cars:  car.NewMemoryRepository(),
			close: func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// initStore creates the blob store selected by STORAGE_DRIVER
func initStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	if cfg.S3.Enabled {
		return upload.NewS3Store(ctx, upload.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		}, cfg.Storage.PublicPrefix)
	}
	return upload.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
}

// initTokenService builds the token service for TOKEN_FORMAT
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatPaseto {
		return auth.NewPasetoService([]byte(cfg.PasetoKey), cfg.TokenTTL)
	}
	return auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
