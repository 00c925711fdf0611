package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/photo-diary/internal/web/handlers"
	"github.com/kozaktomas/photo-diary/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	configHandler := handlers.NewConfigHandler(s.config, s.deps.Layout.PageWidth, s.deps.Layout.PageHeight)
	calendarHandler := handlers.NewCalendarHandler(s.deps.Calendar)
	exportsHandler := handlers.NewExportsHandler(s.deps.Builder, s.jobManager)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.WithOwner(s.config.Export.DefaultOwner))

		r.Get("/config", configHandler.Get)
		r.Get("/calendar", calendarHandler.Get)

		// Exports (async jobs)
		r.Post("/exports", exportsHandler.Start)
		r.Get("/exports", exportsHandler.List)
		r.Get("/exports/{jobId}", exportsHandler.Status)
		r.Get("/exports/{jobId}/events", exportsHandler.Events)
		r.Get("/exports/{jobId}/pages/{n}", exportsHandler.Page)
		r.Delete("/exports/{jobId}", exportsHandler.Cancel)

		// Synchronous render, bounded like any other request
		r.With(chiMiddleware.Timeout(5*time.Minute)).Post("/exports/render", exportsHandler.Render)
	})
}
