package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"nyumbani/internal/handler/api"
	"nyumbani/internal/handler/middleware"
	"nyumbani/internal/pkg/config"
	"nyumbani/internal/pkg/ratelimit"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

// Limiters holds the per-surface rate limiters. Auth and payments get
// separate instances so one surface's burst cannot starve the other.
type Limiters struct {
	Auth     *ratelimit.Limiter
	Payments *ratelimit.Limiter
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	reservationHandler *api.ReservationHandler,
	paymentHandler *api.PaymentHandler,
	authMiddleware *middleware.AuthMiddleware,
	limiters Limiters,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, reservationHandler, paymentHandler, authMiddleware, limiters)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	reservationHandler *api.ReservationHandler,
	paymentHandler *api.PaymentHandler,
	authMiddleware *middleware.AuthMiddleware,
	limiters Limiters,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		auth.Use(middleware.RateLimit(limiters.Auth))
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
			})
		}

		units := apiGroup.Group("/units")
		{
			addRoutes(units, []route{
				{Method: http.MethodGet, Path: "/:id/quote", Handler: reservationHandler.Quote},
				{Method: http.MethodGet, Path: "/:id/availability", Handler: reservationHandler.Availability},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.CreateBooking},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.ListBookings},
				{Method: http.MethodGet, Path: "/:ref", Handler: reservationHandler.GetBooking},
				{Method: http.MethodPost, Path: "/:ref/cancel", Handler: reservationHandler.CancelBooking},
			})
		}

		payments := apiGroup.Group("/payments")
		{
			// The gateway callback carries no bearer token; it is outside
			// both auth and the payer-facing limiter.
			addRoutes(payments, []route{
				{Method: http.MethodPost, Path: "/callback", Handler: paymentHandler.Callback},
			})

			payerFacing := payments.Group("")
			payerFacing.Use(authMiddleware.RequireAuth(), middleware.RateLimit(limiters.Payments))
			addRoutes(payerFacing, []route{
				{Method: http.MethodPost, Path: "", Handler: paymentHandler.Initiate},
				{Method: http.MethodGet, Path: "/:correlationId/status", Handler: paymentHandler.Status},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
