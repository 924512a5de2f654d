package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/uniportal/internal/app/auth"
	appControllers "github.com/yigit/uniportal/internal/app/controllers"
	appMigrations "github.com/yigit/uniportal/internal/app/migrations"
	"github.com/yigit/uniportal/internal/app/models/dto"
	appRepos "github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/app/repositories/memory"
	appRoutes "github.com/yigit/uniportal/internal/app/routes"
	appServices "github.com/yigit/uniportal/internal/app/services"
	"github.com/yigit/uniportal/internal/config"
	"github.com/yigit/uniportal/internal/db"
	appMiddleware "github.com/yigit/uniportal/internal/middleware"
	pkgAuth "github.com/yigit/uniportal/internal/pkg/auth"
	"github.com/yigit/uniportal/internal/pkg/email"
	"github.com/yigit/uniportal/internal/pkg/helpers"
	"github.com/yigit/uniportal/internal/pkg/logger"
	"github.com/yigit/uniportal/internal/pkg/validation"
	"github.com/yigit/uniportal/internal/seed"
)

// DefaultConfigPath is where the API and portalctl look for a config file
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Storage is the selected backing store
type Storage struct {
	Repos    *appRepos.Repositories
	Tx       appRepos.TxManager
	Postgres *db.PostgresDB // nil for the memory driver
}

// Close releases the database pool, if any
func (s *Storage) Close() {
	if s != nil && s.Postgres != nil {
		s.Postgres.Close()
	}
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Storage                 *Storage
	Services                *appServices.Services
	Notifier                *appServices.Notifier
	JWTService              *pkgAuth.JWTService
	RoleResolver            *appAuth.RoleResolver
	AuthMiddleware          *appMiddleware.AuthMiddleware
	DepartmentController    *appControllers.DepartmentController
	SignupRequestController *appControllers.SignupRequestController
	Logger                  zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// Every line carries service; output defaults to stdout.
func LoadConfigAndSetupLogger(configPath, service string, output io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  prettyLog,
		Service: service,
		Output:  output,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured store. For postgres it connects, applies
// migrations and seeds default data; the memory driver only seeds.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	var storage *Storage

	switch cfg.Database.Driver {
	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory store; data is lost on restart")
		store := memory.New()
		storage = &Storage{Repos: store.Repositories(), Tx: store}

	default:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
			database.Close()
			return nil, err
		}

		storage = &Storage{
			Repos:    appRepos.NewRepositories(database.Pool),
			Tx:       appRepos.NewTxManager(database),
			Postgres: database,
		}
	}

	if cfg.Database.Seed {
		if err := seed.CreateDefaultData(ctx, storage.Repos.Departments, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return storage, nil
}

// RunMigrations applies every SQL file in the configured migrations directory
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); errors.Is(err, os.ErrNotExist) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// NewJWTService builds the token service from config
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
		Leeway:         helpers.ParseDuration(cfg.JWT.Leeway, 30*time.Second),
	})
}

// NewMailSender builds the configured email.Sender
func NewMailSender(cfg *config.Config, lgr zerolog.Logger) (email.Sender, error) {
	return email.NewSender(email.Config{
		Driver:         cfg.Mail.Driver,
		Host:           cfg.Mail.SMTPHost,
		Port:           cfg.Mail.SMTPPort,
		Username:       cfg.Mail.SMTPUsername,
		Password:       cfg.Mail.SMTPPassword,
		UseTLS:         cfg.Mail.UseTLS,
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
		FromName:       cfg.Mail.FromName,
		FromEmail:      cfg.Mail.FromEmail,
	}, lgr.With().Str("component", "mail").Logger())
}

// BuildDependencies initializes services, middleware and controllers.
func BuildDependencies(cfg *config.Config, storage *Storage, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Storage: storage, Logger: lgr}

	if err := validation.RegisterGinValidators(); err != nil {
		return nil, err
	}

	storeTimeout := helpers.ParseDuration(cfg.Workflow.StoreTimeout, 5*time.Second)
	mailTimeout := helpers.ParseDuration(cfg.Mail.Timeout, 10*time.Second)

	sender, err := NewMailSender(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize mail sender")
		return nil, fmt.Errorf("failed to initialize mail sender: %w", err)
	}

	deps.JWTService = NewJWTService(cfg)
	deps.RoleResolver = appAuth.NewRoleResolver(storage.Repos.Coordinators, appAuth.RoleResolverConfig{
		AdminSubjects:  cfg.Auth.AdminSubjects,
		AdminRoleClaim: cfg.Auth.AdminRoleClaim,
		LookupTimeout:  storeTimeout,
	})

	deps.Notifier = appServices.NewNotifier(sender, storage.Repos.SignupRequests, appServices.NotifierConfig{
		Timeout:      mailTimeout,
		StoreTimeout: storeTimeout,
		PortalURL:    cfg.Mail.PortalURL,
	}, lgr.With().Str("component", "notifier").Logger())

	issuer := appServices.NewCredentialIssuer(appServices.CredentialIssuerConfig{
		RollNumberRetries: cfg.Workflow.RollNumberRetries,
		PasswordLength:    cfg.Workflow.PasswordLength,
	})

	deps.Services = &appServices.Services{
		SignupRequests: appServices.NewSignupRequestService(
			storage.Repos,
			storage.Tx,
			issuer,
			deps.Notifier,
			appServices.SignupRequestServiceConfig{StoreTimeout: storeTimeout, MailTimeout: mailTimeout},
			lgr.With().Str("component", "signup").Logger(),
		),
		Departments:  appServices.NewDepartmentService(storage.Repos.Departments),
		Coordinators: appServices.NewCoordinatorService(storage.Repos.Coordinators, storage.Repos.Departments),
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.RoleResolver)
	deps.DepartmentController = appControllers.NewDepartmentController(deps.Services.Departments)
	deps.SignupRequestController = appControllers.NewSignupRequestController(deps.Services.SignupRequests)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.CorrelationID(),
		appMiddleware.AccessLog(lgr.With().Str("component", "http").Logger()),
		appMiddleware.Recovery(lgr),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Route not found")))
	})

	appRoutes.SetupRouter(router,
		deps.DepartmentController,
		deps.SignupRequestController,
		deps.AuthMiddleware,
	)

	return router
}
