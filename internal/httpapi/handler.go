// Package httpapi exposes the survey dashboard's read API and view controls
// over HTTP. Queries are GETs returning JSON (population and survival also
// stream CSV on request); view mutations are POSTs against /api/v1/view.
package httpapi

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"reefmap/docs/schema"
	"reefmap/docs/schema/openapi"
	"reefmap/internal/core"
	"reefmap/internal/view"
	"reefmap/pkg/domain"
)

// Handler provides HTTP access to the survey service.
type Handler struct {
	Service *core.Service
}

// NewHandler constructs the API handler.
func NewHandler(s *core.Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "survey service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		h.handleHealthz(w)
	case r.Method == http.MethodGet && path == "/openapi.yaml":
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapi.Spec())
	case r.Method == http.MethodGet && path == "/api/v1/dataset":
		h.handleDataset(w, r)
	case r.Method == http.MethodGet && path == "/api/v1/colonies":
		h.handleColonies(w, r)
	case strings.HasPrefix(path, "/api/v1/colonies/"):
		h.handleColony(w, r, strings.TrimPrefix(path, "/api/v1/colonies/"))
	case r.Method == http.MethodGet && path == "/api/v1/marks":
		h.handleMarks(w, r)
	case strings.HasPrefix(path, "/api/v1/stats/"):
		h.handleStats(w, r, strings.TrimPrefix(path, "/api/v1/stats/"))
	case path == "/api/v1/view" || strings.HasPrefix(path, "/api/v1/view/"):
		h.handleView(w, r, strings.TrimPrefix(path, "/api/v1/view"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter) {
	payload := map[string]any{"status": "ok"}
	if version, err := schema.Version(); err == nil {
		payload["schema_version"] = version
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleDataset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dataset": h.Service.Meta()})
}

func (h *Handler) handleColonies(w http.ResponseWriter, r *http.Request) {
	metric, err := queryMetric(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	colonies := h.Service.Colonies(r.Context(), metric)
	writeJSON(w, http.StatusOK, map[string]any{"colonies": colonies})
}

func (h *Handler) handleColony(w http.ResponseWriter, r *http.Request, remainder string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := strconv.Atoi(remainder)
	if err != nil {
		writeError(w, http.StatusBadRequest, "colony id must be an integer")
		return
	}
	colony, err := h.Service.Colony(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"colony": colony})
}

func (h *Handler) handleMarks(w http.ResponseWriter, r *http.Request) {
	metric, err := queryMetric(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	marks := h.Service.Marks(r.Context(), year, metric)
	writeJSON(w, http.StatusOK, map[string]any{"marks": marks})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request, stat string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metric, err := queryMetric(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch stat {
	case "population":
		rows := h.Service.Population(r.Context())
		if wantsCSV(r) {
			streamPopulationCSV(w, rows)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"population": rows})
	case "mean-size":
		year, err := queryInt(r, "year", h.Service.View().CurrentYear())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mean := h.Service.MeanSizeFor(r.Context(), year, metric)
		writeJSON(w, http.StatusOK, map[string]any{"year": year, "metric": metric, "mean": mean})
	case "size-frequency":
		year, err := queryInt(r, "year", h.Service.View().CurrentYear())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bins, err := queryInt(r, "bins", 12)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hist := h.Service.SizeFrequencyFor(r.Context(), year, metric, bins)
		writeJSON(w, http.StatusOK, map[string]any{"year": year, "metric": metric, "bins": hist})
	case "survival":
		curves := h.Service.Survival(r.Context())
		if wantsCSV(r) {
			streamSurvivalCSV(w, curves)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"survival": curves})
	case "summary":
		year, err := queryInt(r, "year", h.Service.View().CurrentYear())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		summaries := h.Service.Summary(r.Context(), year, metric)
		writeJSON(w, http.StatusOK, map[string]any{"year": year, "metric": metric, "summaries": summaries})
	default:
		writeError(w, http.StatusNotFound, "stat endpoint not found")
	}
}

type filterRequest struct {
	ToggleGenera    []string `json:"toggle_genera"`
	ToggleTransects []string `json:"toggle_transects"`
	MinSize         *float64 `json:"min_size"`
	MaxSize         *float64 `json:"max_size"`
	Selected        *[]int   `json:"selected"`
}

type yearRequest struct {
	Year int `json:"year"`
}

type rangeRequest struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request, action string) {
	state := h.Service.View()

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.writeView(w)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch strings.TrimPrefix(action, "/") {
	case "year":
		var req yearRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid year payload")
			return
		}
		state.SetCurrentYear(req.Year)
	case "range":
		var req rangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid range payload")
			return
		}
		if req.Min > req.Max {
			writeError(w, http.StatusBadRequest, "range min exceeds max")
			return
		}
		state.SetYearRange(req.Min, req.Max)
	case "filters":
		var req filterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter payload")
			return
		}
		if err := h.applyFilters(state, req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	case "reset":
		state.Reset()
	case "play":
		h.Service.Animator().Play()
	case "pause":
		h.Service.Animator().Stop()
	default:
		writeError(w, http.StatusNotFound, "view endpoint not found")
		return
	}
	h.writeView(w)
}

func (h *Handler) applyFilters(state *view.FilterState, req filterRequest) error {
	meta := h.Service.Meta()
	for _, raw := range req.ToggleGenera {
		genus, ok := knownGenus(meta, raw)
		if !ok {
			return fmt.Errorf("unknown genus %q", raw)
		}
		state.ToggleGenus(genus)
	}
	for _, raw := range req.ToggleTransects {
		transect, ok := knownTransect(meta, raw)
		if !ok {
			return fmt.Errorf("unknown transect %q", raw)
		}
		state.ToggleTransect(transect)
	}
	if req.MinSize != nil || req.MaxSize != nil {
		snap := state.Snapshot()
		min, max := snap.MinSize, snap.MaxSize
		if req.MinSize != nil {
			min = *req.MinSize
		}
		if req.MaxSize != nil {
			max = *req.MaxSize
		}
		if min < 0 || max < 0 {
			return fmt.Errorf("size bounds must be non-negative")
		}
		state.SetSizeBounds(min, max)
	}
	if req.Selected != nil {
		state.SelectColonies(*req.Selected)
	}
	return nil
}

func knownGenus(meta domain.DatasetMeta, raw string) (domain.Genus, bool) {
	for _, g := range meta.Genera {
		if strings.EqualFold(string(g), raw) {
			return g, true
		}
	}
	return "", false
}

func knownTransect(meta domain.DatasetMeta, raw string) (domain.Transect, bool) {
	for _, t := range meta.Transects {
		if strings.EqualFold(string(t), raw) {
			return t, true
		}
	}
	return "", false
}

func (h *Handler) writeView(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"view":    h.Service.View().Snapshot(),
		"playing": h.Service.Animator().Playing(),
	})
}

func queryMetric(r *http.Request) (domain.SizeMetric, error) {
	raw := strings.ToLower(r.URL.Query().Get("metric"))
	switch raw {
	case "", string(domain.MetricGeoDiam):
		return domain.MetricGeoDiam, nil
	case string(domain.MetricVolume):
		return domain.MetricVolume, nil
	default:
		return "", fmt.Errorf("unknown size metric %q", raw)
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func streamPopulationCSV(w http.ResponseWriter, rows []core.PopulationYear) {
	filename := fmt.Sprintf("population-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"year", "genus", "count", "recruits", "deaths"}); err != nil {
		return
	}
	for _, row := range rows {
		for _, genus := range domain.Genera() {
			cell, ok := row.Genera[genus]
			if !ok {
				continue
			}
			record := []string{
				strconv.Itoa(row.Year),
				string(genus),
				strconv.Itoa(cell.Count),
				strconv.Itoa(cell.Recruits),
				strconv.Itoa(cell.Deaths),
			}
			if err := writer.Write(record); err != nil {
				return
			}
		}
	}
}

func streamSurvivalCSV(w http.ResponseWriter, curves map[domain.Genus][]core.SurvivalPoint) {
	filename := fmt.Sprintf("survival-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"genus", "time", "survival"}); err != nil {
		return
	}
	genera := make([]domain.Genus, 0, len(curves))
	for genus := range curves {
		genera = append(genera, genus)
	}
	sort.Slice(genera, func(i, j int) bool { return genera[i] < genera[j] })
	for _, genus := range genera {
		for _, point := range curves[genus] {
			record := []string{
				string(genus),
				strconv.Itoa(point.Time),
				strconv.FormatFloat(point.Survival, 'g', -1, 64),
			}
			if err := writer.Write(record); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
