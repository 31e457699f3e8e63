package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/neocdt/cdt-bank-api/internal/api/handler"
	"github.com/neocdt/cdt-bank-api/internal/api/middleware"
	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// RouterDeps carries everything the router needs. Services are constructed
// by the process bootstrap and injected; the router owns only transport
// wiring.
type RouterDeps struct {
	Solicitudes ports.SolicitudeService
	Auth        ports.AuthService
	DB          *mongo.Database
	Redis       *redis.Client
	JWTSecret   string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("neocdt"))

	auth := middleware.Auth(deps.JWTSecret)
	reviewers := middleware.RBAC(domain.RoleAgent, domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register)
	e.GET("/auth/me", authHandler.Me, auth)

	// --- Solicitude routes (client self-service) ---
	solHandler := handler.NewSolicitudeHandler(deps.Solicitudes)
	requests := e.Group("/requests", auth)
	requests.POST("", solHandler.Create)
	requests.GET("", solHandler.List)

	// --- Agent review routes ---
	// Registered before the /requests/:id routes so "agent" is never
	// captured as an id.
	agentHandler := handler.NewAgentHandler(deps.Solicitudes)
	agent := requests.Group("/agent", reviewers)
	agent.GET("/pending", agentHandler.Pending)
	agent.PUT("/:id/approve", agentHandler.Approve)
	agent.PUT("/:id/reject", agentHandler.Reject)

	requests.GET("/:id", solHandler.Get)
	requests.PUT("/:id", solHandler.Update)
	requests.PATCH("/:id/estado", solHandler.ChangeState)
	requests.DELETE("/:id", solHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
