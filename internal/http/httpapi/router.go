package httpapi

import (
	stdhttp "net/http"
	"time"

	"metamorphosis/internal/http/handlers"
	appmw "metamorphosis/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App, lookup appmw.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		appmw.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		appmw.Logger(app.Logger),
		appmw.CORS(app.Config.CORSOrigins),
		appmw.Country(lookup),
	)

	limit := appmw.RateLimit(app.Config.RateLimitPerMin, time.Minute)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/designs", func(r chi.Router) {
		r.With(limit).Post("/", app.DesignsCreate)
		r.Get("/", app.DesignsList)
		r.Get("/{id}", app.DesignGet)
		r.With(limit).Post("/{id}/render", app.DesignRender)
		r.Get("/{id}/assets", app.DesignAssets)
		r.Get("/{id}/export", app.DesignExport)
	})

	r.Get("/v1/assets/{id}/download", app.AssetDownload)
	r.Get("/v1/stats", app.Stats)

	r.Get("/", app.UI)

	return r
}
