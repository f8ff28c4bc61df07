package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed web/index.html
var indexHTML []byte

// UI serves the single-page upload and render workbench.
func (a *App) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}
