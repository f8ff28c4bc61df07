package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"metamorphosis/internal/infra"
	"metamorphosis/internal/providers/image"
	"metamorphosis/internal/providers/vision"
	"metamorphosis/internal/storage"
)

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Config     *infra.Config
	Logger     infra.Logger
	SQL        infra.SQLExecutor
	Store      *storage.Store
	Analyzers  map[string]vision.Analyzer
	Generators map[string]image.Generator
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"code":    slug,
			"message": message,
		},
	})
}

func (a *App) assetURL(assetID string) string {
	return fmt.Sprintf("%s/%s/download", strings.TrimRight(a.Config.StorageBaseURL, "/"), assetID)
}
