package server

import (
	"net/http"
	"time"

	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Server holds the state for the REST API server.
type Server struct {
	svc    *service.MatchService
	router *gin.Engine
	log    *zap.SugaredLogger
}

// NewServer creates a new Server instance.
func NewServer(svc *service.MatchService) *Server {
	r := gin.New()
	s := &Server{
		svc:    svc,
		router: r,
		log:    logger.Named("server"),
	}
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	s.log.Infow("listening", "addr", addr)
	return s.router.Run(addr)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/v1")
	v1.POST("/match", s.handleMatch)
	v1.POST("/grade", s.handleGrade)
	v1.GET("/catalogues", s.handleCatalogues)
	v1.GET("/catalogues/:name", s.handleCatalogue)
	v1.GET("/ontology/:name", s.handleOntology)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// requestLogger tags every request with an id, echoing a caller-supplied one.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logger.FieldRequestID, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		s.log.Debugw("request",
			logger.FieldRequestID, id,
			"method", c.Request.Method,
			logger.FieldPath, c.FullPath(),
			"status", c.Writer.Status(),
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	}
}
