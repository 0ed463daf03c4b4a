package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/database"
	"github.com/mrvaldes/biblioteca/internal/database/catalog"
	"github.com/mrvaldes/biblioteca/internal/database/librarians"
	"github.com/mrvaldes/biblioteca/internal/database/loans"
	"github.com/mrvaldes/biblioteca/internal/database/stats"
	"github.com/mrvaldes/biblioteca/internal/database/users"
	"github.com/mrvaldes/biblioteca/internal/permissions"
)

// RouterConfig receives all router dependencies, keeping NewRouter's
// signature stable as the surface grows.
type RouterConfig struct {
	Database   *database.Database
	Users      *users.Repository
	Librarians *librarians.Repository
	Catalog    *catalog.Repository
	Loans      *loans.Repository
	Stats      *stats.Repository
	Evaluator  *permissions.Evaluator

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	LoanPeriod time.Duration
	Version    string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// CSRF must run before the session middleware so the session context is
	// preserved; both only apply to cookie clients.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	router.Use(cfg.AuthMiddleware.Handler())

	health := NewHealthController(cfg.Database, cfg.Version)
	usersController := NewUsersController(cfg.Users, cfg.AuthService, cfg.Evaluator)
	librariansController := NewLibrariansController(cfg.Librarians, cfg.Loans, cfg.Stats, cfg.AuthService)
	writersController := NewWritersController(cfg.Catalog)
	booksController := NewBooksController(cfg.Catalog)
	loansController := NewLoansController(cfg.Loans, cfg.Evaluator, cfg.LoanPeriod)
	reportsController := NewReportsController(cfg.Stats, cfg.Loans)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	if cfg.AuthService != nil {
		authController := NewAuthController(cfg.AuthService, cfg.SessionManager)
		api.POST("/auth/login", authController.Login)
		api.POST("/auth/logout", authController.Logout)
	}

	// Users: open reads, privileged creation; a user may edit or delete their
	// own record (object-level check in the handler).
	api.GET("/users", usersController.List)
	api.GET("/users/:id", usersController.Get)
	api.POST("/users", requireOpenReadPrivilegedWrite(cfg.Evaluator), usersController.Create)
	api.PUT("/users/:id", usersController.Update)
	api.DELETE("/users/:id", usersController.Delete)
	api.GET("/users/:id/loan-history", reportsController.UserLoanHistory)

	// Librarians: privileged-only for every method.
	privileged := api.Group("/librarians", requirePrivileged(cfg.Evaluator))
	privileged.GET("", librariansController.List)
	privileged.GET("/:id", librariansController.Get)
	privileged.POST("", librariansController.Create)
	privileged.PUT("/:id", librariansController.Update)
	privileged.DELETE("/:id", librariansController.Delete)
	privileged.GET("/:id/managed-loans", librariansController.ManagedLoans)
	privileged.GET("/:id/active-loans", librariansController.ActiveLoans)
	privileged.GET("/:id/statistics", librariansController.Statistics)

	// Catalog: open reads, librarian writes.
	writers := api.Group("/writers", requireOpenReadPrivilegedWrite(cfg.Evaluator))
	writers.GET("", writersController.List)
	writers.GET("/:id", writersController.Get)
	writers.POST("", writersController.Create)
	writers.PUT("/:id", writersController.Update)
	writers.DELETE("/:id", writersController.Delete)

	books := api.Group("/books", requireOpenReadPrivilegedWrite(cfg.Evaluator))
	books.GET("", booksController.List)
	books.GET("/:id", booksController.Get)
	books.POST("", booksController.Create)
	books.PUT("/:id", booksController.Update)
	books.DELETE("/:id", booksController.Delete)
	books.GET("/:id/loan-statistics", reportsController.BookLoanStatistics)

	// Loans: open reads, librarian writes; return is owner-or-privileged and
	// checked in the handler once the loan is loaded.
	loansGroup := api.Group("/loans", requireOpenReadPrivilegedWrite(cfg.Evaluator))
	loansGroup.GET("", loansController.List)
	loansGroup.GET("/active", loansController.Active)
	loansGroup.GET("/overdue", loansController.Overdue)
	loansGroup.GET("/:id", loansController.Get)
	loansGroup.POST("", loansController.Create)
	loansGroup.PUT("/:id", loansController.Update)
	loansGroup.DELETE("/:id", loansController.Delete)
	api.POST("/loans/:id/return", loansController.Return)

	api.GET("/library/statistics", reportsController.LibraryStatistics)

	return router
}
