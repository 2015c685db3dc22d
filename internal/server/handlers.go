package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/query"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxAudioBytes       = 10 << 20
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query   models.Query   `json:"query"`
	Count   int            `json:"count"`
	Results []models.Track `json:"results"`
}

// IdentifyResponse is the body of /api/identify.
type IdentifyResponse struct {
	Found  bool                  `json:"found"`
	Result *tasks.IdentifyResult `json:"result"`
}

// RecommendResponse is the body of GET /api/recommend.
type RecommendResponse struct {
	UserID          string                  `json:"user_id"`
	Mood            string                  `json:"mood,omitempty"`
	Signals         models.SignalSet        `json:"signals"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// metricsHandler serves the Prometheus exposition on every method.
type metricsHandler struct {
	http.Handler
}

func (metricsHandler) Routes() []string { return []string{"/metrics"} }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch accepts either q (a search expression or plain title) or the
// individual song, artist, year and platform parameters.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.opts.Search == nil {
		writeServiceError(w, fmt.Errorf("%w: search not configured", shared.ErrServiceUnavailable))
		return
	}

	params := r.URL.Query()
	q := query.ParseOrText(params.Get("q"))
	if v := params.Get("song"); v != "" {
		q.Song = v
	}
	if v := params.Get("artist"); v != "" {
		q.Artist = v
	}
	if v := params.Get("year"); v != "" {
		q.Year = v
	}
	if v := params.Get("platform"); v != "" {
		q.Platform = query.NormalizePlatform(v)
	}
	if strings.TrimSpace(q.Song) == "" && strings.TrimSpace(q.Artist) == "" {
		writeServiceError(w, fmt.Errorf("%w: q, song or artist", shared.ErrMissingArgument))
		return
	}

	tracks := s.opts.Search.SearchAll(r.Context(), nil, q)
	if s.opts.ResultLimit > 0 && len(tracks) > s.opts.ResultLimit {
		tracks = tracks[:s.opts.ResultLimit]
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Count: len(tracks), Results: tracks})
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if s.opts.Identifier == nil {
		writeServiceError(w, fmt.Errorf("%w: identify not configured", shared.ErrServiceUnavailable))
		return
	}

	params := r.URL.Query()
	res, err := s.opts.Identifier.Identify(r.Context(), nil, params.Get("user"), params.Get("title"), params.Get("artist"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IdentifyResponse{Found: res.Found(), Result: res})
}

// handleIdentifyAudio accepts a multipart upload with an "audio" file and an optional "user" field.
func (s *Server) handleIdentifyAudio(w http.ResponseWriter, r *http.Request) {
	if s.opts.Identifier == nil {
		writeServiceError(w, fmt.Errorf("%w: identify not configured", shared.ErrServiceUnavailable))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: audio file", shared.ErrMissingArgument))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	res, err := s.opts.Identifier.IdentifyAudio(r.Context(), nil, r.FormValue("user"), header.Filename, audio)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IdentifyResponse{Found: res.Found(), Result: res})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.opts.Recommender == nil {
		writeServiceError(w, fmt.Errorf("%w: recommendations not configured", shared.ErrServiceUnavailable))
		return
	}

	params := r.URL.Query()
	user := strings.TrimSpace(params.Get("user"))
	if user == "" {
		writeServiceError(w, fmt.Errorf("%w: user", shared.ErrMissingArgument))
		return
	}
	mood := strings.ToLower(strings.TrimSpace(params.Get("mood")))

	recs, signals, err := s.opts.Recommender.ForUser(r.Context(), nil, user, mood)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{UserID: user, Mood: mood, Signals: signals, Recommendations: recs})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeServiceError(w, fmt.Errorf("%w: history not configured", shared.ErrServiceUnavailable))
		return
	}

	params := r.URL.Query()
	user := strings.TrimSpace(params.Get("user"))
	if user == "" {
		writeServiceError(w, fmt.Errorf("%w: user", shared.ErrMissingArgument))
		return
	}
	limit, err := parseLimit(params.Get("limit"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	records, err := s.opts.History.Recent(r.Context(), user, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistoryAdd(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeServiceError(w, fmt.Errorf("%w: history not configured", shared.ErrServiceUnavailable))
		return
	}

	var rec models.HistoryRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&rec); err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if strings.TrimSpace(rec.UserID) == "" || strings.TrimSpace(rec.Title) == "" {
		writeServiceError(w, fmt.Errorf("%w: user_id and song_title are required", shared.ErrInvalidInput))
		return
	}
	rec.ID = ""

	saved, err := s.opts.History.Append(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeServiceError(w, fmt.Errorf("%w: history not configured", shared.ErrServiceUnavailable))
		return
	}

	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		writeServiceError(w, fmt.Errorf("%w: user", shared.ErrMissingArgument))
		return
	}

	stats, err := s.opts.History.Stats(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseLimit(value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidInput)
	}
	return min(n, maxHistoryLimit), nil
}

// writeServiceError maps a sentinel error to a status code and error body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shared.ErrNoHistory):
		writeError(w, http.StatusNotFound, "no_history", "I need to learn your music taste first. Identify some songs!")
	case errors.Is(err, shared.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
	case errors.Is(err, shared.ErrRecognitionFailed):
		writeError(w, http.StatusUnprocessableEntity, "recognition_failed", err.Error())
	case errors.Is(err, shared.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, shared.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
