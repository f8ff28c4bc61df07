package handlers

import (
	"net/http"

	"metamorphosis/internal/sqlinline"
)

// Stats reports aggregate design and render counts plus a per-country
// breakdown of submissions.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	var totalDesigns, totalRenders, designsLast24h int64
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
	if err := row.Scan(&totalDesigns, &totalRenders, &designsLast24h); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}

	byCountry := []map[string]any{}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QStatsByCountry)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var country string
		var count int64
		if err := rows.Scan(&country, &count); err != nil {
			continue
		}
		byCountry = append(byCountry, map[string]any{"country_code": country, "designs": count})
	}

	a.json(w, http.StatusOK, map[string]any{
		"total_designs":    totalDesigns,
		"total_renders":    totalRenders,
		"designs_last_24h": designsLast24h,
		"by_country":       byCountry,
	})
}
