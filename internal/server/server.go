// file: internal/server/server.go
// version: 2.1.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/operations"
	"github.com/jdfalk/book-library/internal/realtime"
	"github.com/jdfalk/book-library/internal/scanner"
	"github.com/jdfalk/book-library/internal/search"
	"github.com/jdfalk/book-library/internal/server/middleware"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// BookLookup resolves ISBNs and cover images. metadata.Lookup satisfies it.
type BookLookup interface {
	SearchByISBN(ctx context.Context, isbn string) (*models.Book, error)
	SearchBookCovers(ctx context.Context, title, author string) iter.Seq[string]
}

// Deps are the services the HTTP API presents. Index, Hub and Queue may be
// nil; the server then runs its own hub and a single worker queue.
type Deps struct {
	Library *library.Library
	Lookup  BookLookup
	Scanner *scanner.Controller
	Index   *search.Index
	Hub     *realtime.EventHub
	Queue   *operations.OperationQueue
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine

	lib     *library.Library
	lookup  BookLookup
	scan    *scanner.Controller
	index   *search.Index
	hub     *realtime.EventHub
	queue   *operations.OperationQueue
	limiter *middleware.IPRateLimiter

	ownsQueue bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port               string
	Host               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int
	MaxBodyBytes       int64
	HeartbeatInterval  time.Duration
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Host:               "localhost",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       0, // SSE streams stay open
		IdleTimeout:        60 * time.Second,
		RateLimitPerMinute: 120,
		MaxBodyBytes:       10 << 20,
		HeartbeatInterval:  30 * time.Second,
	}
}

// NewServer creates a new server instance and wires the hub to library and
// scanner notifications.
func NewServer(deps Deps, cfg ServerConfig) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(RequestLogger())

	metrics.Register()

	if deps.Hub == nil {
		deps.Hub = realtime.NewEventHub()
	}
	ownsQueue := deps.Queue == nil
	if ownsQueue {
		deps.Queue = operations.NewOperationQueue(1, 20)
	}
	s := &Server{
		router:  router,
		lib:     deps.Library,
		lookup:  deps.Lookup,
		scan:    deps.Scanner,
		index:   deps.Index,
		hub:     deps.Hub,
		queue:   deps.Queue,
		limiter: middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, max(cfg.RateLimitPerMinute/6, 1), "/api/health", "/api/v1/health", "/api/events", "/metrics"),

		ownsQueue: ownsQueue,
	}
	s.lib.Subscribe(s.hub.PublishBookChange)
	s.queue.Subscribe(s.hub.PublishOperation)
	if s.scan != nil {
		s.scan.Subscribe(s.hub.PublishScanStatus)
	}

	router.Use(s.limiter.Middleware())
	router.Use(middleware.BasicAuth())
	router.Use(middleware.MaxRequestBodySize(1<<20, cfg.MaxBodyBytes))

	s.setupRoutes()
	return s
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ticker.C:
			s.sendHeartbeat()
		case <-ctx.Done():
			return s.shutdown()
		}
	}
}

func (s *Server) sendHeartbeat() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.hub.SendSystemStatus(map[string]any{
		"books":        s.lib.Len(),
		"memory_alloc": mem.Alloc,
		"goroutines":   runtime.NumGoroutine(),
		"timestamp":    time.Now().Unix(),
	})
}

func (s *Server) shutdown() error {
	log.Println("[INFO] shutting down server...")
	s.hub.Broadcast(&realtime.Event{
		Type:      "system.shutdown",
		Timestamp: time.Now(),
		Data:      map[string]any{"message": "server is shutting down"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.Close()
	log.Println("[INFO] server exited")
	return nil
}

// Close stops the operation queue when the server created it.
func (s *Server) Close() {
	if !s.ownsQueue {
		return
	}
	if err := s.queue.Shutdown(10 * time.Second); err != nil {
		log.Printf("[WARN] operation queue: %v", err)
	}
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	s.router.GET("/api/events", s.hub.HandleSSE)

	api := s.router.Group("/api/v1")
	{
		api.GET("/books", s.listBooks)
		api.POST("/books", s.createBook)
		api.GET("/books/export", s.exportBooks)
		api.POST("/books/import", s.importBooks)
		api.POST("/books/import-isbns", s.importISBNs)
		api.GET("/books/stats", s.getStats)
		api.GET("/books/suggest", s.suggestTitles)
		api.GET("/books/:id", s.getBook)
		api.PUT("/books/:id", s.updateBook)
		api.DELETE("/books/:id", s.deleteBook)
		api.GET("/genres", s.listGenres)

		api.GET("/lookup/isbn/:isbn", s.lookupISBN)
		api.GET("/lookup/covers", s.lookupCovers)

		api.GET("/scan", s.getScanStatus)
		api.POST("/scan/start", s.startScan)
		api.POST("/scan/stop", s.stopScan)
		api.POST("/scan/isbn", s.scanISBN)
		api.POST("/scan/simulate", s.simulateScan)
		api.POST("/scan/image", s.scanImage)

		api.GET("/operations", s.listOperations)
		api.GET("/operations/:id", s.getOperation)
		api.DELETE("/operations/:id", s.cancelOperation)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().Unix(),
		Version:      Version,
		DatabaseType: config.AppConfig.DatabaseType,
		Books:        s.lib.Len(),
		Loading:      s.lib.Loading(),
		SSEClients:   s.hub.GetClientCount(),
		Operations:   s.queue.Active(),
	}
	if s.scan != nil {
		resp.Scan = s.scan.Status()
	}
	if resp.Loading {
		resp.Status = "starting"
	}
	c.JSON(http.StatusOK, resp)
}
