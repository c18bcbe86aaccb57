package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/conditions"
	"ridewise/internal/core"
	"ridewise/internal/types"
)

// ConditionsService fetches a live reading and scores it.
type ConditionsService interface {
	Conditions(ctx context.Context, lat, lon float64) (*types.RidingConditions, *types.WeatherReading, error)
}

// WeatherReader returns the raw reading for a point.
type WeatherReader interface {
	GetReading(ctx context.Context, lat, lon float64) (*types.WeatherReading, error)
}

// ScoreRecorder receives scores computed from posted readings.
type ScoreRecorder interface {
	RecordRidingScore(suitability types.Suitability, score int)
}

// ConditionsResponse is the body of every scoring endpoint.
type ConditionsResponse struct {
	Conditions  *types.RidingConditions `json:"conditions"`
	WeatherCode types.WeatherCodeInfo   `json:"weather_code"`
	Weather     *types.WeatherReading   `json:"weather,omitempty"`
}

// ConditionsHandler serves scoring and weather-code endpoints.
type ConditionsHandler struct {
	service ConditionsService
	weather WeatherReader
	scores  ScoreRecorder
	logger  *slog.Logger
}

// NewConditionsHandler creates a ConditionsHandler. scores may be nil.
func NewConditionsHandler(svc ConditionsService, weather WeatherReader, scores ScoreRecorder, logger *slog.Logger) *ConditionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConditionsHandler{service: svc, weather: weather, scores: scores, logger: logger}
}

// RegisterRoutes mounts the conditions and weather endpoints.
func (h *ConditionsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/conditions", func(r chi.Router) {
		r.Get("/", h.HandleLive)
		r.Post("/score", h.HandleScore)
	})
	r.Route("/weather", func(r chi.Router) {
		r.Get("/", h.HandleWeather)
		r.Get("/codes", h.HandleListCodes)
		r.Get("/codes/{code}", h.HandleClassify)
	})
}

// HandleScore handles POST /v1/conditions/score. The body is a reading;
// no provider is contacted.
func (h *ConditionsHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var reading types.WeatherReading
	if err := core.DecodeJSON(w, r, &reading); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := types.ValidateReading(&reading); err != nil {
		core.Error(w, r, err)
		return
	}

	rc := conditions.Score(reading)
	if h.scores != nil {
		h.scores.RecordRidingScore(rc.Suitability, rc.Score)
	}

	core.Data(w, r, http.StatusOK, ConditionsResponse{
		Conditions:  &rc,
		WeatherCode: conditions.Classify(reading.WeatherCode),
	})
}

// HandleLive handles GET /v1/conditions?lat=&lon=.
func (h *ConditionsHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parsePoint(r.URL.Query(), "")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rc, reading, err := h.service.Conditions(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", weatherCacheControl)
	core.Data(w, r, http.StatusOK, ConditionsResponse{
		Conditions:  rc,
		WeatherCode: conditions.Classify(reading.WeatherCode),
		Weather:     reading,
	})
}

// HandleWeather handles GET /v1/weather?lat=&lon=.
func (h *ConditionsHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parsePoint(r.URL.Query(), "")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	reading, err := h.weather.GetReading(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", weatherCacheControl)
	core.Data(w, r, http.StatusOK, reading)
}

// HandleClassify handles GET /v1/weather/codes/{code}. Unmapped codes are
// classified as unknown rather than rejected.
func (h *ConditionsHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidCode, "weather code must be an integer", nil))
		return
	}
	core.Data(w, r, http.StatusOK, conditions.Classify(&code))
}

// HandleListCodes handles GET /v1/weather/codes.
func (h *ConditionsHandler) HandleListCodes(w http.ResponseWriter, r *http.Request) {
	codes := conditions.KnownCodes()
	out := make([]types.WeatherCodeInfo, 0, len(codes))
	for _, c := range codes {
		out = append(out, conditions.Classify(&c))
	}
	count := len(out)
	core.DataWithMeta(w, r, http.StatusOK, out, &core.ResponseMeta{Count: &count})
}
