package rest

import (
	"net/http"

	"github.com/Dhoini/clearpath-signup/internal/api/rest/handlers"
	"github.com/Dhoini/clearpath-signup/internal/api/rest/middleware"
	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/Dhoini/clearpath-signup/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps зависимости HTTP слоя
type Deps struct {
	Sessions  service.SessionService
	Baseline  service.BaselineService
	Dashboard service.DashboardService

	AdminToken     string
	AdminJWTSecret string
	HasStripeKey   bool
	AppEnv         string

	Registry *prometheus.Registry
	Reporter middleware.ErrorCapturer
	Log      *logger.Logger
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(d Deps) *gin.Engine {
	handlers.RegisterValidationRules()

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Подключение middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.LoggerMiddleware(d.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.ReportServerErrors(d.Reporter))
	r.Use(middleware.CORS())

	r.NoMethod(func(c *gin.Context) {
		res.Error(c, http.StatusMethodNotAllowed, string(domain.CodeMethodNotAllowed), "method not allowed", "")
	})
	r.NoRoute(func(c *gin.Context) {
		res.Error(c, http.StatusNotFound, string(domain.CodeNotFound), "route not found", "")
	})

	health := handlers.NewHealthHandler(d.HasStripeKey, d.AdminToken != "", d.AppEnv)
	r.GET("/health", health.HealthCheck)

	// Prometheus метрики
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	sessions := handlers.NewSessionHandler(d.Sessions, d.Log)
	r.POST("/sessions", sessions.CreateSession)
	r.GET("/sessions/:id", sessions.GetSession)

	baseline := handlers.NewBaselineHandler(d.Baseline, d.Log)
	r.POST("/baseline", baseline.SubmitBaseline)
	r.GET("/baseline/:id", baseline.GetBaselineStatus)
	r.POST("/rescan", baseline.RequestRescan)

	auth := middleware.NewAdminAuth(d.AdminToken, d.AdminJWTSecret, d.Log)
	dashboard := handlers.NewDashboardHandler(d.Dashboard, d.Log)
	admin := r.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/dashboard", dashboard.GetDashboard)
	}

	return r
}
