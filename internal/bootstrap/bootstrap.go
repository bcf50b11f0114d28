package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/registrar/internal/app/auth"
	appControllers "github.com/yigit/registrar/internal/app/controllers"
	appMigrations "github.com/yigit/registrar/internal/app/migrations"
	appRepos "github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/app/repositories/memory"
	"github.com/yigit/registrar/internal/app/repositories/postgres"
	appRoutes "github.com/yigit/registrar/internal/app/routes"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/db"
	appMiddleware "github.com/yigit/registrar/internal/middleware"
	pkgAuth "github.com/yigit/registrar/internal/pkg/auth"
	"github.com/yigit/registrar/internal/pkg/broker"
	"github.com/yigit/registrar/internal/pkg/helpers"
	"github.com/yigit/registrar/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store                  appRepos.Store
	Services               *appServices.Services
	JWTService             *pkgAuth.JWTService
	AuthzService           *appAuth.AuthorizationService
	AuthMiddleware         *appMiddleware.AuthMiddleware
	AuthController         *appControllers.AuthController
	CourseController       *appControllers.CourseController
	EnrollmentController   *appControllers.EnrollmentController
	NotificationController *appControllers.NotificationController
	HealthController       *appControllers.HealthController
	Redis                  *redis.Client
	Publisher              *broker.RabbitPublisher
	Logger                 zerolog.Logger
}

// Close releases the broker, redis and store connections
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if d.Store != nil {
		d.Store.Close()
	}
}

// LoadConfigAndSetupLogger loads .env, the configuration file and
// initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		logger.Error().Err(err).Msg("Failed to load .env file")
		return nil, zerolog.Logger{}, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore opens the configured storage driver. For postgres it connects
// and runs the migrations.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, error) {
	if cfg.Server.StorageDriver == config.StorageMemory {
		lgr.Info().Msg("Using in-memory storage")
		return memory.New(), nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrator"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return postgres.NewStore(database), nil
}

// BuildDependencies initializes the optional infrastructure, services and
// controllers over store.
func BuildDependencies(ctx context.Context, cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Store: store, Logger: lgr}

	if cfg.Redis.Enabled {
		rdb, err := helpers.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		deps.Redis = rdb
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis rate limiter enabled")
	}

	opts := appServices.Options{FanoutConcurrency: cfg.Notifications.FanoutConcurrency}
	if cfg.RabbitMQ.Enabled {
		publisher, err := broker.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Publisher = publisher
		opts.Publisher = publisher
		lgr.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("RabbitMQ event relay enabled")
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(store)
	deps.Services = appServices.NewServices(store, deps.JWTService, opts, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.Services.Auth, logger.Component("auth_controller"))
	deps.CourseController = appControllers.NewCourseController(deps.Services.Course, deps.AuthzService, logger.Component("course_controller"))
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.Services.Enrollment, deps.AuthzService, logger.Component("enrollment_controller"))
	deps.NotificationController = appControllers.NewNotificationController(deps.Services.Notification, deps.AuthzService, logger.Component("notification_controller"))
	deps.HealthController = appControllers.NewHealthController(store, cfg.Server.StorageDriver, lgr)

	return deps, nil
}

// corsConfig allows the configured origins. A "*" entry allows every origin
// without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", appMiddleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", appMiddleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	appMiddleware.RegisterValidatorTagNames()

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		cors.New(corsConfig(cfg.Server.CORSOrigins)),
	)

	// Assigning a nil *redis.Client to the interface would defeat the nil check
	var limiter redis.Scripter
	if deps.Redis != nil {
		limiter = deps.Redis
	}
	window := cfg.RateWindow()
	limits := appRoutes.RateLimits{
		Login:     appMiddleware.RateLimit(limiter, cfg.Redis.RateLimit, window, appMiddleware.KeyByIPAndPath()),
		Enroll:    appMiddleware.RateLimit(limiter, cfg.Redis.RateLimit, window, appMiddleware.KeyByUserID()),
		Subscribe: appMiddleware.RateLimit(limiter, cfg.Redis.RateLimit, window, appMiddleware.KeyByUserID()),
	}

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.EnrollmentController,
		deps.NotificationController,
		deps.HealthController,
		deps.AuthMiddleware,
		limits,
	)

	lgr.Info().Str("mode", gin.Mode()).Msg("Router configured")
	return router
}
