package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/config"
	"github.com/placenet-simulator/internal/delivery/http/handler"
	"github.com/placenet-simulator/internal/delivery/http/middleware"
	"github.com/placenet-simulator/internal/pkg/errors"
	"github.com/placenet-simulator/internal/pkg/metrics"
	"github.com/placenet-simulator/internal/pkg/utils"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app     *fiber.App
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector

	// Handlers
	simulationHandler *handler.SimulationHandler
}

// NewServer - создание нового HTTP сервера. collector может быть nil, тогда /metrics не публикуется.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	collector *metrics.Collector,
	simulationHandler *handler.SimulationHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "PlaceNet Simulator",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:               app,
		config:            cfg,
		logger:            logger,
		metrics:           collector,
		simulationHandler: simulationHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение, нужно тестам
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger, s.metrics))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Simulation routes
	simulations := api.Group("/simulations")
	simulations.Post("/", s.simulationHandler.RunSimulation)
	simulations.Get("/", s.simulationHandler.ListSimulations)
	simulations.Get("/status", s.simulationHandler.Status)
	simulations.Get("/:id", s.simulationHandler.GetSimulation)
	simulations.Get("/:id/series", s.simulationHandler.GetSeries)
	simulations.Get("/:id/infected-places", s.simulationHandler.GetInfectedPlaces)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			logger.Warn("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", e.Code),
				zap.Error(err),
			)
			return c.Status(e.Code).JSON(utils.ErrorResponse{
				Error: errors.New(codeFor(e.Code), e.Message, e.Code),
			})
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	}
	if status >= fiber.StatusInternalServerError {
		return "INTERNAL_SERVER_ERROR"
	}
	return "INVALID_REQUEST"
}
