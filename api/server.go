package api

import (
	"sync"
	"time"

	"github.com/CristiGvl/picoSensors/internal/platform"
	"github.com/CristiGvl/picoSensors/internal/registry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

// Server represents the API server
type Server struct {
	app *fiber.App
	log *logrus.Entry

	// mu serializes registry updates, a Registry has a single owner.
	mu            sync.Mutex
	registry      *registry.Registry
	updateTimeout time.Duration
}

// NewServer creates the API server over an open registry.
func NewServer(reg *registry.Registry, updateTimeout time.Duration, log *logrus.Entry) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "picoSensors",
		AppName:               "picoSensors v1.0",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "*",
		MaxAge:       86400, // 24 hours
	}))

	server := &Server{
		app:           app,
		log:           log,
		registry:      reg,
		updateTimeout: updateTimeout,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/sensors", s.getSensors)
	api.Get("/sensors/values", s.getValues)
	// Ids carry spaces and slashes; clients path-escape them.
	api.Get("/sensors/+", s.getSensor)

	// Health check
	api.Get("/health", s.healthCheck)
}

// Start starts the API server
func (s *Server) Start(address string) error {
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Health check endpoint
func (s *Server) healthCheck(c *fiber.Ctx) error {
	s.mu.Lock()
	sensors := s.registry.Len()
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"status":    "ok",
		"platform":  platform.GetOS(),
		"sensors":   sensors,
		"timestamp": time.Now().Unix(),
	})
}
