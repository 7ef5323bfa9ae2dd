package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/platform/provider"
	"github.com/quarryhq/quarry/internal/store"
)

// defaultRunsLimit bounds GET /api/runs when the client does not pass one.
const defaultRunsLimit = 50

// HealthResponse reports liveness and the active provider.
type HealthResponse struct {
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}

// RegionResponse describes one configured region with its current
// generation progress.
type RegionResponse struct {
	Name           string  `json:"name"`
	Pinyin         string  `json:"pinyin,omitempty"`
	Description    string  `json:"description,omitempty"`
	Questions      int     `json:"questions"`
	Answered       int     `json:"answered"`
	Answers        int     `json:"answers"`
	CompletionRate float64 `json:"completion_rate"`
}

// ProvidersResponse lists the provider names this build can construct and
// which one is active.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
	Active    string   `json:"active"`
}

// Handler serves the read-only admin endpoints.
type Handler struct {
	regions      []domain.Region
	sets         store.RegionStore
	runs         store.RunStore
	providerName string
	logger       *slog.Logger
}

// NewHandler creates the admin handler. runs may be nil when run history
// is disabled; the other dependencies are required.
func NewHandler(regions []domain.Region, sets store.RegionStore, runs store.RunStore, providerName string, logger *slog.Logger) (*Handler, error) {
	if sets == nil {
		return nil, errors.New("region store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Handler{
		regions:      regions,
		sets:         sets,
		runs:         runs,
		providerName: providerName,
		logger:       logger.With("component", "api"),
	}, nil
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Provider:  h.providerName,
		Timestamp: time.Now().UTC(),
	})
}

// ListRegions handles GET /api/regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	out := make([]RegionResponse, 0, len(h.regions))
	for _, region := range h.regions {
		questions, err := h.sets.LoadQuestions(r.Context(), region.Key())
		if err != nil {
			RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load region data", err)
			return
		}
		answers, err := h.sets.LoadAnswers(r.Context(), region.Key())
		if err != nil {
			RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load region data", err)
			return
		}

		answered := domain.CountAnswered(questions)
		rate := 0.0
		if len(questions) > 0 {
			rate = float64(answered) / float64(len(questions))
		}
		out = append(out, RegionResponse{
			Name:           region.Name,
			Pinyin:         region.Pinyin,
			Description:    region.Description,
			Questions:      len(questions),
			Answered:       answered,
			Answers:        len(answers),
			CompletionRate: rate,
		})
	}
	RespondWithJSON(w, r, http.StatusOK, out)
}

// RegionQuestions handles GET /api/regions/{name}/questions.
func (h *Handler) RegionQuestions(w http.ResponseWriter, r *http.Request) {
	region, ok := h.resolveRegion(regionName(r))
	if !ok {
		RespondWithError(w, r, http.StatusNotFound, "Region not found")
		return
	}
	questions, err := h.sets.LoadQuestions(r.Context(), region.Key())
	if err != nil {
		RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load questions", err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, questions)
}

// RegionAnswers handles GET /api/regions/{name}/answers.
func (h *Handler) RegionAnswers(w http.ResponseWriter, r *http.Request) {
	region, ok := h.resolveRegion(regionName(r))
	if !ok {
		RespondWithError(w, r, http.StatusNotFound, "Region not found")
		return
	}
	answers, err := h.sets.LoadAnswers(r.Context(), region.Key())
	if err != nil {
		RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load answers", err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, answers)
}

// ExportRegion handles GET /api/regions/{name}/export. The answered pairs
// of the region are streamed as a download in the requested format;
// fallback placeholder answers are excluded from the dataset.
func (h *Handler) ExportRegion(w http.ResponseWriter, r *http.Request) {
	region, ok := h.resolveRegion(regionName(r))
	if !ok {
		RespondWithError(w, r, http.StatusNotFound, "Region not found")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = ExportFormatJSON
	}
	if !validExportFormat(format) {
		RespondWithError(w, r, http.StatusBadRequest, "Unsupported export format")
		return
	}

	answers, err := h.sets.LoadAnswers(r.Context(), region.Key())
	if err != nil {
		RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load answers", err)
		return
	}

	if err := writeExport(w, region.Key(), format, answers); err != nil {
		// Headers are already written; all that is left is logging.
		h.logger.ErrorContext(r.Context(), "dataset export failed mid-stream",
			"region", region.Name,
			"format", format,
			"error", err)
	}
}

// ListRuns handles GET /api/runs. Run history requires a configured
// database; without one the endpoint reports the store as unavailable.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		RespondWithError(w, r, http.StatusServiceUnavailable, GetSafeErrorMessage(store.ErrStoreDisabled))
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	RespondWithJSON(w, r, http.StatusOK, runs)
}

// ListProviders handles GET /api/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, ProvidersResponse{
		Providers: provider.Names(),
		Active:    h.providerName,
	})
}

// resolveRegion matches a path name against the configured regions by
// display name, pinyin, and storage key.
func (h *Handler) resolveRegion(name string) (domain.Region, bool) {
	for _, region := range h.regions {
		if region.Name == name || region.Pinyin == name || region.Key() == name {
			return region, true
		}
	}
	return domain.Region{}, false
}

// regionName returns the {name} path parameter, percent-decoded. Region
// names are usually Chinese and arrive escaped.
func regionName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
