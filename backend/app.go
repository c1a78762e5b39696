package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"todo-gpt/backend/internal/config"
	"todo-gpt/backend/internal/database"
	"todo-gpt/backend/internal/handlers"
	"todo-gpt/backend/internal/middleware"
	"todo-gpt/backend/internal/monitoring"
	"todo-gpt/backend/internal/repositories"
	"todo-gpt/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Application holds all process-wide dependencies.
type Application struct {
	Config *config.Config
	DB     *database.DatabasePool
	Redis  *redis.Client
	Router *gin.Engine
	Server *http.Server

	TodoService services.TodoService
}

func openDatabase(cfg *config.Config) (*database.DatabasePool, error) {
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        database.ParseLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

func migrationConfig(cfg *config.Config) *repositories.MigrationConfig {
	mc := repositories.DefaultMigrationConfig()
	mc.Driver = cfg.Database.Driver
	mc.DBName = cfg.Database.Name
	return mc
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	log.Println("🚀 Initializing Todo GPT backend...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	app.DB = pool
	log.Printf("✅ Database connected (%s)", pool.Driver())

	if cfg.Database.AutoMigrate {
		if err := repositories.RunMigrations(pool.DB, migrationConfig(cfg)); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	if cfg.RedisEnabled() {
		app.Redis = connectRedis(cfg)
	}

	app.TodoService = services.NewTodoService()
	app.registerHealthChecks()

	log.Println("✅ All services initialized")
	return app, nil
}

// connectRedis returns nil when Redis cannot be reached so callers fall back
// to the in-process rate limiter.
func connectRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (using in-memory rate limiting)", err)
		client.Close()
		return nil
	}
	log.Println("✅ Redis connected")
	return client
}

func (app *Application) registerHealthChecks() {
	monitoring.RegisterHealthCheck("database", app.DB.Health)
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}
}

func (app *Application) rateLimiter() gin.HandlerFunc {
	rl := app.Config.RateLimit
	if app.Redis != nil {
		return middleware.NewDistributedRateLimiter(app.Redis).CreateMiddleware("api", &middleware.RateLimit{
			Rate:    rl.RequestsPerMin,
			Window:  time.Minute,
			KeyFunc: middleware.IPKeyFunc,
		})
	}
	return middleware.RateLimiter(rate.Limit(float64(rl.RequestsPerMin)/60.0), rl.BurstSize)
}

func (app *Application) setupRoutes() {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.CORS(app.Config.CORS.AllowedOrigins))

	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	api := r.Group("")
	if app.Config.RateLimit.Enabled {
		api.Use(app.rateLimiter())
	}
	handlers.RegisterRoutes(api, handlers.NewTodoHandler(app.DB, app.TodoService))

	app.Router = r
}

// startServer blocks until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within the configured shutdown timeout.
func (app *Application) startServer(ctx context.Context) error {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		log.Printf("💚 Health check at http://%s/health", addr)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return err
	}
	log.Println("✅ Server stopped gracefully")
	return nil
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}
