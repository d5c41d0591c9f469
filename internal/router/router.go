package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoiceqc/internal/handler"
	"invoiceqc/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup. Invoice may be nil
// when no database is configured.
type Handlers struct {
	Health     *handler.HealthHandler
	Validation *handler.ValidationHandler
	Invoice    *handler.InvoiceHandler
}

// Options configures the global middleware and the metrics endpoint.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Gatherer backs GET /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Setup configures the Gin engine with all routes and middleware. The API
// is served under /api/v1 and, for existing clients, at the root.
func Setup(h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/health", h.Health.Health)
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	mount(r.Group(""), h)
	mount(r.Group("/api/v1"), h)

	r.NoRoute(func(c *gin.Context) {
		handler.RespondError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return r
}

func mount(g *gin.RouterGroup, h Handlers) {
	g.POST("/validate-json", h.Validation.ValidateJSON)
	g.POST("/extract-and-validate-pdfs", h.Validation.ExtractAndValidatePDFs)

	if h.Invoice == nil {
		return
	}
	invoices := g.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.GET("/:id/validations", h.Invoice.ListValidations)
}
