package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/auth"
	authpg "github.com/frahmantamala/access-control/internal/auth/postgres"
	"github.com/frahmantamala/access-control/internal/catalog"
	catalogpg "github.com/frahmantamala/access-control/internal/catalog/postgres"
	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/project"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/internal/transport/middleware"
	"github.com/frahmantamala/access-control/internal/transport/rest"
	"github.com/frahmantamala/access-control/internal/transport/swagger"
	"github.com/frahmantamala/access-control/internal/user"
	userpg "github.com/frahmantamala/access-control/internal/user/postgres"
	"github.com/frahmantamala/access-control/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Services are the domain services shared by the server and the CLI commands.
type Services struct {
	Hasher   *auth.BcryptHasher
	Auth     *auth.Service
	Users    *user.Service
	UserRepo user.RepositoryAPI
	Catalog  *catalog.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	if _, err := swagger.Load(context.Background()); err != nil {
		return err
	}

	svc, err := newServices(deps)
	if err != nil {
		return err
	}

	sameSite, err := deps.Config.Security.Cookie.SameSiteMode()
	if err != nil {
		return err
	}
	cookie := auth.CookieOptions{
		Name:     deps.Config.Security.Cookie.Name,
		Domain:   deps.Config.Security.Cookie.Domain,
		SameSite: sameSite,
		Secure:   deps.Config.Security.Cookie.Secure,
		MaxAge:   deps.Config.Security.Cookie.MaxAge,
	}

	trusted, err := deps.Config.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	base := transport.NewBaseHandler(deps.Logger)
	routes := rest.Routes{
		DB:             deps.DB.DB,
		Logger:         deps.Logger,
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		TrustedProxies: trusted,
		LoginLimiter:   middleware.NewRateLimiter(deps.Config.Security.LoginRate.PerMinute, deps.Config.Security.LoginRate.Burst),
		Auth:           auth.NewHandler(svc.Auth, cookie),
		RBAC:           auth.NewRBACAuthorization(deps.Logger),
		Users:          user.NewHandler(base, svc.Users),
		Catalog:        catalog.NewHandler(base, svc.Catalog),
		Projects:       project.NewHandler(base),
	}

	if deps.Config.Observability.Metrics.Enabled {
		routes.Metrics = middleware.NewMetrics(deps.Registry)
		routes.MetricsPath = deps.Config.Observability.Metrics.Path
		routes.MetricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})
	}

	rest.RegisterAllRoutes(deps.Router, routes)
	return nil
}

func newServices(deps *Dependencies) (*Services, error) {
	txOpts, err := deps.Config.Database.TxOptions()
	if err != nil {
		return nil, err
	}

	hasher := auth.NewBcryptHasher(deps.Config.Security.BCryptCost)
	authRepo := authpg.NewRepository(deps.Gorm, txOpts)
	authService := auth.NewService(authRepo, hasher, deps.Logger,
		auth.WithTokenTTL(deps.Config.Security.AccessTokenTTL),
		auth.WithPublisher(deps.EventBus),
	)

	userRepo := userpg.NewRepository(deps.Gorm, txOpts)

	return &Services{
		Hasher:   hasher,
		Auth:     authService,
		Users:    user.NewService(userRepo, authRepo, hasher, authService, deps.Logger),
		UserRepo: userRepo,
		Catalog:  catalog.NewService(catalogpg.NewCatalogRepository(deps.Gorm), deps.Logger),
	}, nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeSessionsRevoked, events.AuditSessionsRevoked(lg))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "access_control"),
	)
	registry.MustRegister(ability.Collectors()...)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gdb,
		Router:   chi.NewRouter(),
		EventBus: bus,
		Registry: registry,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers gorm over the shared pool so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
