package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/byterize/byterize-backend/internal/auth"
	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/handlers"
	"github.com/byterize/byterize-backend/internal/metrics"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	tokens   *auth.TokenIssuer
	metrics  *metrics.Metrics
	httpSrv  *http.Server
}

func New(h *handlers.Handlers, tokens *auth.TokenIssuer, m *metrics.Metrics, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), cors(), m.Middleware())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		tokens:   tokens,
		metrics:  m,
	}

	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handlers.Root)
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/products", s.handlers.ListProducts)
		api.POST("/users/register", s.handlers.Register)
		api.POST("/users/login", s.handlers.Login)
		api.POST("/orders", s.handlers.PlaceOrder)
		api.GET("/orders", auth.Identity(s.tokens), s.handlers.ListOrders)
		api.GET("/orders/:id", s.handlers.GetOrder)
	}

	admin := s.router.Group("/api", auth.RequireAdmin(s.tokens))
	{
		admin.POST("/products", s.handlers.CreateProduct)
		admin.DELETE("/products/:id", s.handlers.DeleteProduct)
		admin.GET("/users", s.handlers.ListUsers)
		admin.POST("/users/:email/approve", s.handlers.ApproveUser)
	}
}

// cors mirrors the permissive allow-all policy the demo frontend expects.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
