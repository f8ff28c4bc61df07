package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"metamorphosis/internal/sqlinline"
	"metamorphosis/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// AssetDownload streams a stored asset back with its original content type.
func (a *App) AssetDownload(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectAssetByID, assetID)
	var id, designID, kind, storageKey, mime, provider string
	var size int64
	if err := row.Scan(&id, &designID, &kind, &storageKey, &mime, &size, &provider); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("asset lookup failed")
		}
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	data, err := a.Store.Open(storageKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", id).Msg("asset file missing from store")
		a.error(w, http.StatusNotFound, "not_found", "asset data unavailable")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%s%s", id, storage.ExtensionForMIME(mime)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
