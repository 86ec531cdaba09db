package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dm-insight-core/server/internal/agent/graph"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/analysis"
)

// maxBodyBytes caps request bodies on every JSON endpoint.
const maxBodyBytes = 1 << 20

// Server exposes the chatbot and analysis endpoints.
type Server struct {
	router   chi.Router
	chat     graph.Runner
	analysis *analysis.Service
}

// NewServer wires the routes. chat may be nil when only the analysis
// endpoints are served.
func NewServer(cfg model.HTTPConfig, chat graph.Runner, svc *analysis.Service) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		chat:     chat,
		analysis: svc,
	}
	s.routes(cfg)
	return s
}

func (s *Server) routes(cfg model.HTTPConfig) {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(WithRequestLogging())
	r.Use(middleware.Recoverer)
	r.Use(WithCORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api/chatbot", func(r chi.Router) {
		r.Post("/response", s.handleChatResponse)
		r.Delete("/sessions/{id}", s.handleSessionReset)
	})

	r.Route("/api/ml", func(r chi.Router) {
		r.Post("/{task}", s.handlePredict)
		r.Get("/{task}", s.handleStats)
	})
}

// Handler returns the router wrapped with server-side tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// ServeHTTP serves requests without the tracing wrapper.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
