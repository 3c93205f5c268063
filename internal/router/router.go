package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/engiflow/engiflow/internal/handler"    // import the handlers that implement business logic
	"github.com/engiflow/engiflow/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a new
	// access token and leaves the stored refresh token alone.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body or a bearer token (which
	// revokes every session of that user), so it stays outside the
	// protected group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterDocuments wires the document workflow: uploads and views,
// the staged e-sign actions, projects, search and the dashboard.
// Every route requires a valid access token; per-document authority
// (who may approve, comment or even see a document) is resolved from
// the reviewer assignments inside the handlers, not by middleware.
func RegisterDocuments(e *echo.Echo, jwtSecret string,
	d *handler.DocumentHandler, act *handler.ActionHandler,
	p *handler.ProjectHandler, s *handler.SearchHandler,
	dash *handler.DashboardHandler, prof *handler.ProfileHandler,
	col *handler.CollabHandler, extra ...echo.MiddlewareFunc) {

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	for _, m := range extra {
		auth.Use(m)
	}

	// projects
	auth.POST("/projects", p.Create)
	auth.GET("/projects", p.List)
	auth.GET("/projects/:code/documents", d.ListForProject)

	// documents
	auth.POST("/documents", d.Upload)
	auth.GET("/documents", d.List)
	auth.GET("/documents/:id", d.Detail)
	auth.PATCH("/documents/:id/reminder", d.SetReminder)
	auth.PUT("/documents/:id/scratchpad", d.UpdateScratchpad)

	// e-sign confirmation gate
	auth.POST("/documents/:id/actions", act.Stage)
	auth.POST("/actions/confirm", act.Confirm)
	auth.GET("/actions/pending", act.Pending)
	auth.DELETE("/actions/pending", act.Cancel)

	// collaboration signals
	auth.POST("/documents/:id/signals", col.Signal)
	auth.GET("/documents/:id/presence", col.Presence)

	// profile
	auth.GET("/profile", prof.Get)
	auth.PUT("/profile", prof.Update)

	// search and dashboard
	auth.GET("/search/documents", s.Documents)
	auth.GET("/dashboard/summary", dash.Summary)
}
