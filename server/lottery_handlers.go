package server

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/lottery"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type historyResponse struct {
	Success bool                 `json:"success"`
	Data    *lottery.HistoryPage `json:"data"`
}

// HistoryHandler proxies the provider's paginated history feed. An
// upstream "not found" means the window is past the published results
// and maps to an empty page, not an error.
func (s *Server) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxHistoryLimit {
				writeError(w, http.StatusBadRequest, "Invalid limit parameter. Must be a number between 1 and 100")
				return
			}
			limit = parsed
		}

		offset := 0
		if raw := r.URL.Query().Get("offset"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "Invalid offset parameter. Must be a non-negative number")
				return
			}
			offset = parsed
		}

		page, err := s.lottery.History(r.Context(), limit, offset)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				writeJSON(w, http.StatusOK, historyResponse{
					Success: true,
					Data:    &lottery.HistoryPage{Limit: limit, Offset: offset, Items: []lottery.Result{}},
				})
				return
			}
			s.log.Error().Err(err).Msg("history fetch failed")
			writeErrorWithDetail(w, http.StatusInternalServerError, "Failed to fetch lottery history", err.Error())
			return
		}

		if page.Items == nil {
			page.Items = []lottery.Result{}
		}
		writeJSON(w, http.StatusOK, historyResponse{Success: true, Data: page})
	}
}

type latestResponse struct {
	Success bool            `json:"success"`
	Result  *lottery.Result `json:"result"`
}

// LatestHandler returns the most recently published draw.
func (s *Server) LatestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.lottery.Latest(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("latest fetch failed")
			writeErrorWithDetail(w, http.StatusInternalServerError, "Failed to fetch latest lottery result", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, latestResponse{Success: true, Result: result})
	}
}

type dateResponse struct {
	Success bool            `json:"success"`
	Data    *lottery.Result `json:"data"`
}

// DateHandler returns the draw published on a specific date.
func (s *Server) DateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "Date parameter is required (format: YYYY-MM-DD)")
			return
		}
		if !dateFormat.MatchString(date) {
			writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
			return
		}

		result, err := s.lottery.ByDate(r.Context(), date)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "No result found for the specified date")
				return
			}
			s.log.Error().Err(err).Msg("date fetch failed")
			writeErrorWithDetail(w, http.StatusInternalServerError, "Failed to fetch lottery result", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, dateResponse{Success: true, Data: result})
	}
}
