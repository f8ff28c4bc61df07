package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"metamorphosis/internal/domain"
	"metamorphosis/internal/middleware"
	"metamorphosis/internal/providers/image"
	"metamorphosis/internal/providers/vision"
	"metamorphosis/internal/sqlinline"
	"metamorphosis/internal/storage"
	"metamorphosis/pkg/zip"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

const (
	assetKindUpload = "UPLOAD"
	assetKindRender = "RENDER"

	// multipart parse buffer; larger uploads spill to temp files.
	multipartMemory = 8 << 20
)

var allowedUploadMIME = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

type designRecord struct {
	ID        string
	Title     string
	Type      string
	Blueprint []byte
	VisPrompt string
	Provider  string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DesignsCreate accepts a multipart image upload, runs the vision analysis
// synchronously, and persists the resulting blueprint together with the
// uploaded image.
func (a *App) DesignsCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "expected multipart upload with an image field")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "could not read uploaded image")
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if _, ok := allowedUploadMIME[mime]; !ok {
		a.error(w, http.StatusBadRequest, "unsupported_media", fmt.Sprintf("unsupported image type %q", mime))
		return
	}

	analyzer, ok := a.Analyzers[a.Config.VisionProvider]
	if !ok || analyzer == nil {
		a.error(w, http.StatusServiceUnavailable, "vision_unconfigured", "no vision provider configured")
		return
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	bp, err := analyzer.Analyze(r.Context(), vision.AnalyzeRequest{
		ImageData: data,
		MIMEType:  mime,
		RequestID: requestID,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("request_id", requestID).Msg("vision analysis failed")
		a.error(w, http.StatusBadGateway, "analysis_failed", err.Error())
		return
	}

	visPrompt := bp.SplitVisualization()
	blueprintJSON, err := json.Marshal(bp)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode blueprint")
		return
	}

	// Save the upload before the design row so a storage failure leaves
	// nothing half-created in the database.
	storageKey, err := a.Store.Save(data, mime)
	if err != nil {
		a.Logger.Error().Err(err).Str("request_id", requestID).Msg("failed to store upload")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	country := middleware.CountryFromContext(r.Context())
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertDesign,
		bp.Title, string(bp.Type), blueprintJSON, visPrompt, a.Config.VisionProvider, country)
	var designID string
	var createdAt time.Time
	if err := row.Scan(&designID, &createdAt); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to store design")
		return
	}

	uploadAsset, err := a.insertAsset(r.Context(), designID, assetKindUpload, storageKey, mime, int64(len(data)), "")
	if err != nil {
		_, _ = a.SQL.Exec(r.Context(), sqlinline.QDeleteDesign, designID)
		a.error(w, http.StatusInternalServerError, "internal", "failed to record upload asset")
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"id":                   designID,
		"title":                bp.Title,
		"design_type":          bp.Type,
		"blueprint":            json.RawMessage(blueprintJSON),
		"visualization_prompt": visPrompt,
		"vision_provider":      a.Config.VisionProvider,
		"country_code":         country,
		"created_at":           createdAt,
		"upload_asset":         uploadAsset,
	})
}

func (a *App) DesignGet(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	design, err := a.loadDesign(r.Context(), designID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "design not found")
		return
	}
	a.json(w, http.StatusOK, designPayload(design))
}

func (a *App) DesignsList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListDesigns, limit, offset)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load designs")
		return
	}
	defer rows.Close()
	items := []map[string]any{}
	for rows.Next() {
		var rec designRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Type, &rec.Blueprint, &rec.VisPrompt,
			&rec.Provider, &rec.Country, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			continue
		}
		items = append(items, designPayload(&rec))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type renderRequest struct {
	Provider string `json:"provider"`
}

// DesignRender generates a concept image for a stored design from its
// visualization prompt and records the result as a new asset.
func (a *App) DesignRender(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	design, err := a.loadDesign(r.Context(), designID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "design not found")
		return
	}
	if design.VisPrompt == "" {
		a.error(w, http.StatusConflict, "no_prompt", "design has no visualization prompt")
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	provider := req.Provider
	if provider == "" {
		provider = a.Config.ImageProvider
	}
	generator, ok := a.Generators[provider]
	if !ok || generator == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported provider")
		return
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	img, err := generator.Generate(r.Context(), image.GenerateRequest{
		Prompt:    image.RenderPrompt(design.VisPrompt),
		RequestID: requestID,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("request_id", requestID).Str("provider", provider).Msg("image generation failed")
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
		return
	}

	storageKey, err := a.Store.Save(img.Data, img.MIME)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to store render")
		return
	}
	asset, err := a.insertAsset(r.Context(), designID, assetKindRender, storageKey, img.MIME, int64(len(img.Data)), provider)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to record render asset")
		return
	}
	_, _ = a.SQL.Exec(r.Context(), sqlinline.QTouchDesign, designID)

	a.json(w, http.StatusCreated, asset)
}

func (a *App) DesignAssets(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	if _, err := a.loadDesign(r.Context(), designID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "design not found")
		return
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectAssetsByDesign, designID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	defer rows.Close()
	items := []map[string]any{}
	for rows.Next() {
		var id, kind, storageKey, mime, provider string
		var size int64
		var createdAt time.Time
		if err := rows.Scan(&id, &kind, &storageKey, &mime, &size, &provider, &createdAt); err != nil {
			continue
		}
		items = append(items, map[string]any{
			"id":         id,
			"design_id":  designID,
			"kind":       kind,
			"mime":       mime,
			"bytes":      size,
			"provider":   provider,
			"url":        a.assetURL(id),
			"created_at": createdAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DesignExport bundles the blueprint JSON and every stored asset into a zip
// download.
func (a *App) DesignExport(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	design, err := a.loadDesign(r.Context(), designID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "design not found")
		return
	}
	entries := []zip.Entry{{Filename: "blueprint.json", Data: design.Blueprint}}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectAssetsByDesign, designID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var id, kind, storageKey, mime, provider string
		var size int64
		var createdAt time.Time
		if err := rows.Scan(&id, &kind, &storageKey, &mime, &size, &provider, &createdAt); err != nil {
			continue
		}
		data, err := a.Store.Open(storageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("asset_id", id).Msg("skipping unreadable asset in export")
			continue
		}
		entries = append(entries, zip.Entry{
			Filename: fmt.Sprintf("%s-%s%s", kind, id, storage.ExtensionForMIME(mime)),
			Data:     data,
		})
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=design-%s.zip", designID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) insertAsset(ctx context.Context, designID, kind, storageKey, mime string, size int64, provider string) (map[string]any, error) {
	row := a.SQL.QueryRow(ctx, sqlinline.QInsertAsset, designID, kind, storageKey, mime, size, provider)
	var assetID string
	var createdAt time.Time
	if err := row.Scan(&assetID, &createdAt); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":         assetID,
		"design_id":  designID,
		"kind":       kind,
		"mime":       mime,
		"bytes":      size,
		"provider":   provider,
		"url":        a.assetURL(assetID),
		"created_at": createdAt,
	}, nil
}

func (a *App) loadDesign(ctx context.Context, designID string) (*designRecord, error) {
	if designID == "" {
		return nil, domain.ErrNotFound
	}
	row := a.SQL.QueryRow(ctx, sqlinline.QSelectDesignByID, designID)
	var rec designRecord
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Type, &rec.Blueprint, &rec.VisPrompt,
		&rec.Provider, &rec.Country, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func designPayload(rec *designRecord) map[string]any {
	return map[string]any{
		"id":                   rec.ID,
		"title":                rec.Title,
		"design_type":          rec.Type,
		"blueprint":            json.RawMessage(rec.Blueprint),
		"visualization_prompt": rec.VisPrompt,
		"vision_provider":      rec.Provider,
		"country_code":         rec.Country,
		"created_at":           rec.CreatedAt,
		"updated_at":           rec.UpdatedAt,
	}
}
