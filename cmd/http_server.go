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

	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/approval"
	approvalpg "github.com/opexhub/expense-approval/internal/approval/postgres"
	"github.com/opexhub/expense-approval/internal/auth"
	"github.com/opexhub/expense-approval/internal/category"
	categorypg "github.com/opexhub/expense-approval/internal/category/postgres"
	"github.com/opexhub/expense-approval/internal/company"
	companypg "github.com/opexhub/expense-approval/internal/company/postgres"
	"github.com/opexhub/expense-approval/internal/core/events"
	"github.com/opexhub/expense-approval/internal/currency"
	"github.com/opexhub/expense-approval/internal/expense"
	expensepg "github.com/opexhub/expense-approval/internal/expense/postgres"
	"github.com/opexhub/expense-approval/internal/transport/rest"
	"github.com/opexhub/expense-approval/internal/user"
	userpg "github.com/opexhub/expense-approval/internal/user/postgres"
	"github.com/opexhub/expense-approval/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// GORM rides the pgx connection pool opened above so migrations,
	// health checks and the ORM share one pool.
	gormDB, err := gorm.Open(gormpg.New(gormpg.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()

	// Repositories
	userRepo := userpg.NewUserRepository(gormDB)
	companyRepo := companypg.NewCompanyRepository(gormDB)
	categoryRepo := categorypg.NewCategoryRepository(gormDB)
	expenseRepo := expensepg.NewExpenseRepository(gormDB)
	approvalStore := approvalpg.NewApprovalStore(gormDB)

	// Services
	currencyClient := currency.NewClient(currency.Config{
		RatesAPIURL:     config.Currency.RatesAPIURL,
		CountriesAPIURL: config.Currency.CountriesAPIURL,
		RequestTimeout:  config.Currency.RequestTimeout,
	}, log)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	bus := events.NewBus(log)
	subscribeEventLogging(bus, log)

	userService := user.NewService(userRepo, config.Security.BCryptCost, log)
	authService := auth.NewService(userRepo, tokenGen, log)
	companyService := company.NewService(companyRepo, userService, currencyClient, log)
	categoryService := category.NewService(categoryRepo, log)
	approvalService := approval.NewService(approvalStore, bus, log)
	expenseService := expense.NewService(expenseRepo, currencyClient, expenseRepo, approvalService, log)

	// Handlers
	authHandler := auth.NewHandler(authService)
	companyHandler := company.NewHandler(companyService)
	userHandler := user.NewHandler(userService)
	expenseHandler := expense.NewHandler(expenseService)
	approvalHandler := approval.NewHandler(approvalService)
	categoryHandler := category.NewHandler(categoryService)

	rest.RegisterAllRoutes(router, db.DB,
		authHandler, companyHandler, userHandler,
		expenseHandler, approvalHandler, categoryHandler,
		log)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: router,
	}, nil
}

// subscribeEventLogging stands in for outbound notifications: every
// lifecycle transition lands in the structured log.
func subscribeEventLogging(bus *events.Bus, log *slog.Logger) {
	logEvent := func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.ExpenseEvent); ok {
			log.Info("expense lifecycle event",
				"event", ev.Name,
				"event_id", ev.EventID,
				"expense_id", ev.ExpenseID,
				"submitter_id", ev.SubmitterID,
				"actor_id", ev.ActorID)
		}
	}
	bus.Subscribe(events.ExpenseSubmitted, logEvent)
	bus.Subscribe(events.ExpenseApproved, logEvent)
	bus.Subscribe(events.ExpenseRejected, logEvent)
}

// initDB opens the pgx-backed connection pool.
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
