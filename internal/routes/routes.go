package routes

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vinnodrive/vinnodrive/internal/app"
	"github.com/vinnodrive/vinnodrive/internal/handler"
	"github.com/vinnodrive/vinnodrive/internal/middleware"
)

// SetupRoutes builds the HTTP handler. ctx bounds background work started for
// the routes, such as rate limiter cleanup.
func SetupRoutes(ctx context.Context, app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	files := handler.NewFileHandler(app.FileService, app.UploadService, app.PreviewService, app.Cfg.MaxUploadSize, app.Cfg.AppURL)
	shares := handler.NewShareHandler(app.ShareService)
	dashboard := handler.NewDashboardHandler(app.UsageService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Public links
	mux.HandleFunc("GET /s/{token}", files.PublicDownload)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth(ctx)

	mux.HandleFunc("POST /auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Files
	mux.HandleFunc("GET /api/files", middleware.RequireAuth(files.List))
	mux.HandleFunc("POST /api/files", middleware.RequireAuth(files.Upload))
	mux.HandleFunc("GET /api/folders", middleware.RequireAuth(files.Folders))
	mux.HandleFunc("GET /api/files/{id}/download", middleware.RequireAuth(files.Download))
	mux.HandleFunc("GET /api/files/{id}/preview", middleware.RequireAuth(files.Preview))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(files.Delete))

	// Public link toggle
	mux.HandleFunc("POST /api/files/{id}/public", middleware.RequireAuth(files.EnablePublic))
	mux.HandleFunc("DELETE /api/files/{id}/public", middleware.RequireAuth(files.DisablePublic))

	// Sharing
	mux.HandleFunc("GET /api/files/{id}/shares", middleware.RequireAuth(shares.Grantees))
	mux.HandleFunc("POST /api/files/{id}/shares", middleware.RequireAuth(shares.Grant))
	mux.HandleFunc("DELETE /api/files/{id}/shares/{username}", middleware.RequireAuth(shares.Revoke))
	mux.HandleFunc("GET /api/shared", middleware.RequireAuth(shares.SharedWithMe))

	// Usage
	mux.HandleFunc("GET /api/usage", middleware.RequireAuth(dashboard.Usage))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.AuthMiddleware(app.AuthService), // Before logging so the user id is logged
		middleware.RequestLogging,
		middleware.Metrics(app.Metrics), // Last: reads the route pattern the mux sets on the request
	)

	return handler
}
