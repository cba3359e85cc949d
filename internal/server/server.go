// Package server exposes the reading tracker over HTTP with gin.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"readsync/internal/auth"
	"readsync/internal/book"
	"readsync/internal/lookup"
)

// Limiter throttles the credential endpoints; *ratelimit.FixedWindowLimiter
// implements it.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	Window() time.Duration
}

type Config struct {
	Auth        *auth.Service
	Books       *book.Service
	Lookup      lookup.Searcher // optional
	Limiter     Limiter         // optional
	Logger      *slog.Logger
	StaticDir   string
	CORSOrigins []string
}

type Server struct {
	auth      *auth.Service
	books     *book.Service
	lookup    lookup.Searcher
	limiter   Limiter
	log       *slog.Logger
	staticDir string
	origins   []string
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		auth:      cfg.Auth,
		books:     cfg.Books,
		lookup:    cfg.Lookup,
		limiter:   cfg.Limiter,
		log:       logger,
		staticDir: cfg.StaticDir,
		origins:   origins,
	}
}

// Handler returns the full HTTP handler: CORS around the gin router.
func (s *Server) Handler() http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})(s.Router())
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.requestID(), s.requestLog(), s.recovery())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.rateLimit("register"), s.handleRegister)
	authGroup.POST("/login", s.rateLimit("login"), s.handleLogin)
	authGroup.GET("/profile", auth.RequireJWT(s.auth, s.writeError), s.handleProfile)

	books := api.Group("/books")
	books.Use(auth.RequireJWT(s.auth, s.writeError))
	books.GET("", s.handleListBooks)
	books.GET("/search", s.handleSearchBooks)
	books.GET("/:id", s.handleGetBook)
	books.POST("", s.handleCreateBook)
	books.PUT("/:id", s.handleUpdateBook)
	books.PATCH("/:id", s.handleUpdateBook)
	books.DELETE("/:id", s.handleDeleteBook)

	s.mountStatic(r)
	return r
}
