package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/auth"
	"github.com/kingscode/bootcamp-api/internal/courses"
	"github.com/kingscode/bootcamp-api/internal/emaillogs"
	"github.com/kingscode/bootcamp-api/internal/export"
	"github.com/kingscode/bootcamp-api/internal/middleware"
	"github.com/kingscode/bootcamp-api/internal/registrations"
	"github.com/kingscode/bootcamp-api/pkg/response"
)

const rootMessage = "Bootcamp Registration API is running..."

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

type routeDeps struct {
	corsOrigins   string
	staffEnabled  bool
	db            pinger
	jwt           *auth.JWTService
	auth          *auth.Handler
	courses       *courses.Handler
	registrations *registrations.Handler
	emailLogs     *emaillogs.Handler
	export        *export.Handler
}

func newRouter(logger *zap.Logger, d routeDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.CORS(d.corsOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, rootMessage) })
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.db.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/register", d.registrations.Register)
		api.GET("/courses", d.courses.List)
		api.POST("/auth/login", d.auth.Login)
	}

	// Without a staff password hash no token can be legitimately issued, so the staff routes do not exist.
	if !d.staffEnabled {
		return router
	}
	staff := api.Group("/registrations")
	staff.Use(middleware.JWT(d.jwt), middleware.RequireRole(auth.RoleStaff))
	{
		staff.GET("", d.registrations.List)
		staff.GET("/stats", d.registrations.Stats)
		staff.GET("/export", d.export.Registrations)
		staff.GET("/:id", d.registrations.Get)
		staff.GET("/:id/qrcode", d.registrations.QRCode)
		staff.GET("/:id/emails", d.emailLogs.ListByRegistration)
		staff.POST("/:id/emails/resend", d.emailLogs.Resend)
	}

	return router
}
