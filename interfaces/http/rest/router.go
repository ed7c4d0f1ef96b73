package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/panel"
	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/interfaces/http/rest/handlers"
	"github.com/Rysh-29/Neuromap/interfaces/http/rest/middleware"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/observability"
	"github.com/Rysh-29/Neuromap/pkg/ratelimit"
)

// Options toggles optional router features
type Options struct {
	EnableCORS    bool
	EnableMetrics bool
	Debug         bool
	// RateLimitPerMinute caps mutating requests per client; 0 disables it
	RateLimitPerMinute int
}

// Router creates and configures the HTTP router
type Router struct {
	controller *services.CanvasController
	panel      *panel.DetailPanel
	metrics    *observability.Collector
	errors     *pkgerrors.ErrorHandler
	limiter    ratelimit.Limiter
	options    Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	controller *services.CanvasController,
	detailPanel *panel.DetailPanel,
	metrics *observability.Collector,
	options Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &Router{
		controller: controller,
		panel:      detailPanel,
		metrics:    metrics,
		errors:     pkgerrors.NewErrorHandler(logger, options.Debug),
		options:    options,
		logger:     logger,
	}
	if options.RateLimitPerMinute > 0 {
		rt.limiter = ratelimit.NewSlidingWindowLimiter(options.RateLimitPerMinute, time.Minute)
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.options.EnableMetrics && rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.options.EnableMetrics && rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Route("/api/v1", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(middleware.RateLimit(rt.limiter, rt.errors, rt.logger))
		}

		mapHandler := handlers.NewMapHandler(rt.controller, rt.errors, rt.logger)
		r.Get("/map", mapHandler.GetMap)
		r.Put("/selection", mapHandler.SetSelection)
		r.Put("/viewport", mapHandler.SetViewport)
		r.Put("/canvas", mapHandler.SetCanvas)
		r.Post("/clear", mapHandler.RequestClear)

		// Node endpoints
		r.Route("/nodes", func(r chi.Router) {
			nodeHandler := handlers.NewNodeHandler(rt.controller, rt.errors, rt.logger)
			r.Post("/", nodeHandler.CreateNode)
			r.Patch("/{nodeID}", nodeHandler.UpdateNode)
			r.Put("/{nodeID}/position", nodeHandler.MoveNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
		})

		// Edge endpoints
		r.Route("/edges", func(r chi.Router) {
			edgeHandler := handlers.NewEdgeHandler(rt.controller, rt.errors, rt.logger)
			r.Post("/", edgeHandler.CreateEdge)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		r.Route("/confirmations", func(r chi.Router) {
			confirmationHandler := handlers.NewConfirmationHandler(rt.controller, rt.errors, rt.logger)
			r.Post("/{token}", confirmationHandler.Confirm)
			r.Delete("/{token}", confirmationHandler.Cancel)
		})

		if rt.panel != nil {
			r.Route("/panel", func(r chi.Router) {
				panelHandler := handlers.NewPanelHandler(rt.panel, rt.errors, rt.logger)
				r.Get("/", panelHandler.GetPanel)
				r.Put("/label", panelHandler.EditLabel)
				r.Put("/content", panelHandler.EditContent)
				r.Post("/delete", panelHandler.RequestDelete)
				r.Post("/close", panelHandler.Close)
			})
		}

		exportHandler := handlers.NewExportHandler(rt.controller, rt.errors, rt.logger)
		r.Get("/export.png", exportHandler.ExportFormat("png"))
		r.Get("/export.md", exportHandler.ExportFormat("md"))
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"nodes":  len(rt.controller.Map().Nodes),
	})
}
