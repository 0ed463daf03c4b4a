package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/config"
	"github.com/mrvaldes/biblioteca/internal/database"
	"github.com/mrvaldes/biblioteca/internal/database/catalog"
	"github.com/mrvaldes/biblioteca/internal/database/librarians"
	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/database/stats"
	"github.com/mrvaldes/biblioteca/internal/database/users"
	http_controllers "github.com/mrvaldes/biblioteca/internal/http"
	"github.com/mrvaldes/biblioteca/internal/permissions"
	"github.com/mrvaldes/biblioteca/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Biblioteca v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	usersRepo := users.NewRepository(db.DB)
	librariansRepo := librarians.NewRepository(db.DB)
	catalogRepo := catalog.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)
	statsRepo := stats.NewRepository(db.DB)

	evaluator := permissions.NewEvaluator(librariansRepo)

	var authService *auth.Service
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasCredentials, _ := authService.HasCredentials()
		if !hasCredentials {
			log.Printf("No credentials found. Run 'biblioteca create-librarian' to provision the first librarian.")
		}
	} else {
		log.Printf("Authentication mode: none (principal taken from %s header)", auth.DevIdentityHeader)
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)

	loanPeriod := time.Duration(cfg.Loans.PeriodDays) * 24 * time.Hour

	var reporter *scheduler.OverdueReporter
	if cfg.Loans.OverdueReportEnabled {
		reporter = scheduler.NewOverdueReporter(loansRepo, loanPeriod, cfg.Loans.OverdueReportSchedule)
		if err := reporter.Start(); err != nil {
			log.Fatalf("Failed to start overdue reporter: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Users:          usersRepo,
		Librarians:     librariansRepo,
		Catalog:        catalogRepo,
		Loans:          loansRepo,
		Stats:          statsRepo,
		Evaluator:      evaluator,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		LoanPeriod:     loanPeriod,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if reporter != nil {
			reporter.Stop(ctx)
		}
	}

	Serve(router, cfg, onShutdown)
}
