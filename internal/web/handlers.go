package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/history"
)

// maxBodyBytes bounds request bodies; expressions are far smaller
const maxBodyBytes = 64 << 10

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.renderIndex(w, indexView{Title: pageTitle})
}

// handleCalculateForm answers the index form by re-rendering the page
func (s *Server) handleCalculateForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	expr := r.PostForm.Get("expression")
	out := s.calc.Evaluate(r.Context(), history.SourceHTTP, expr)
	s.broadcast(out)

	s.renderIndex(w, indexView{
		Title:      pageTitle,
		Expression: expr,
		Reply:      out.Reply(),
		Answered:   true,
		Failed:     !out.OK(),
	})
}

func (s *Server) renderIndex(w http.ResponseWriter, vm indexView) {
	var buf bytes.Buffer
	if err := s.pages.renderIndex(&buf, vm); err != nil {
		s.log.Error("Template rendering error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	entries, err := s.recent(r)
	if err != nil {
		s.log.Error("Failed to list history: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := historyTable(entries).Render(r.Context(), &buf); err != nil {
		s.log.Error("Failed to render history: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleAPICalculate evaluates a JSON request. Domain errors are part of a
// 200 response; only malformed requests get a 4xx.
func (s *Server) handleAPICalculate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CalculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out := s.calc.Evaluate(r.Context(), history.SourceHTTP, req.Expression)
	s.broadcast(out)
	s.writeJSON(w, http.StatusOK, newCalculateResponse(out))
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := parseLimit(r); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.recent(r)
	if err != nil {
		s.log.Error("Failed to list history: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": s.store != nil,
		"entries": entries,
	})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, &history.Stats{ByError: map[string]int{}})
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error("Failed to aggregate history: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to aggregate history")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// recent lists history for the request's limit; empty when history is off
func (s *Server) recent(r *http.Request) ([]*history.Entry, error) {
	if s.store == nil {
		return []*history.Entry{}, nil
	}
	limit, err := parseLimit(r)
	if err != nil {
		limit = consts.DefaultHistoryLimit
	}
	return s.store.Recent(r.Context(), limit)
}

var errBadLimit = errors.New("limit must be a positive integer")

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return consts.DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errBadLimit
	}
	return limit, nil
}
