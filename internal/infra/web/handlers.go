package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Issue(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	a, err := s.admin.Analytics(r.Context(), s.adminID)
	if err != nil {
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleUsersList returns a page of users, optionally filtered by segment.
// Accepts 'segment', 'offset' and 'limit' query parameters.
func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.users.ScanAll(ctx)
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	if raw := r.URL.Query().Get("segment"); raw != "" {
		segment, err := model.ParseSegment(raw)
		if err != nil {
			http.Error(w, "Unknown segment", http.StatusBadRequest)
			return
		}
		filtered := all[:0]
		for _, u := range all {
			if segment.Matches(u) {
				filtered = append(filtered, u)
			}
		}
		all = filtered
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, struct {
		Data   []*model.UserRecord `json:"data"`
		Total  int                 `json:"total"`
		Limit  int                 `json:"limit"`
		Offset int                 `json:"offset"`
	}{
		Data:   all[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	tgID, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil {
		http.Error(w, "Telegram ID must be numeric", http.StatusBadRequest)
		return
	}
	u, err := s.users.FindByTelegramID(r.Context(), tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type broadcastRequest struct {
	Segment string `json:"segment"`
	Message string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	segment, err := model.ParseSegment(req.Segment)
	if err != nil || req.Message == "" {
		http.Error(w, "segment and message are required", http.StatusBadRequest)
		return
	}
	res, err := s.admin.Broadcast(r.Context(), s.adminID, segment, req.Message)
	if err != nil {
		http.Error(w, "Broadcast failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		BatchID string  `json:"batch_id"`
		Sent    int     `json:"sent"`
		Failed  int     `json:"failed"`
		Targets []int64 `json:"failed_ids,omitempty"`
	}{
		BatchID: res.BatchID,
		Sent:    res.Sent,
		Failed:  res.Failed,
		Targets: res.FailedIDs,
	})
}

type signalRequest struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Note       string  `json:"note"`
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sig, err := model.NewSignal(req.Symbol, model.SignalAction(req.Action), req.Entry, req.StopLoss, req.TakeProfit, req.Note)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := s.admin.DistributeSignal(r.Context(), s.adminID, sig)
	if err != nil {
		http.Error(w, "Signal distribution failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SignalID string `json:"signal_id"`
		Sent     int    `json:"sent"`
		Teasers  int    `json:"teasers"`
		Failed   int    `json:"failed"`
	}{
		SignalID: sig.ID,
		Sent:     report.Sent,
		Teasers:  report.Teasers,
		Failed:   report.Failed,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users_export.csv"`)
	if _, err := s.admin.ExportCSV(r.Context(), s.adminID, w); err != nil {
		s.log.Error().Err(err).Msg("CSV export failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
