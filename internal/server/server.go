// Package server exposes fee lookups over HTTP.
//
// POST /api/search accepts {query, state, nameForMatch, lenient,
// wantHomepage} and answers with the verdict as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/lookup"
	"github.com/pfrederiksen/park-fees/internal/verdict"
)

// SearchPath is the lookup endpoint.
const SearchPath = "/api/search"

const maxRequestBytes = 64 << 10

// Looker performs one fee lookup.
type Looker interface {
	LookupFee(ctx context.Context, req lookup.Request) verdict.Verdict
}

// SearchRequest is the JSON body of POST /api/search.
type SearchRequest struct {
	Query        string `json:"query"`
	State        string `json:"state,omitempty"`
	NameForMatch string `json:"nameForMatch,omitempty"`
	Lenient      bool   `json:"lenient,omitempty"`
	WantHomepage bool   `json:"wantHomepage,omitempty"`
}

// ErrorBody is returned with every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Handler serves the lookup API.
type Handler struct {
	looker Looker
	mux    *http.ServeMux
}

// NewHandler creates the API handler.
func NewHandler(looker Looker) *Handler {
	h := &Handler{looker: looker, mux: http.NewServeMux()}
	h.mux.HandleFunc(SearchPath, h.search)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "POST only"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Invalid request body"})
		return
	}

	var req SearchRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Invalid request body: " + err.Error()})
			return
		}
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Missing query"})
		return
	}

	v := h.looker.LookupFee(r.Context(), lookup.Request{
		Query:           req.Query,
		RegionHint:      strings.TrimSpace(req.State),
		DisplayNameHint: strings.TrimSpace(req.NameForMatch),
		Lenient:         req.Lenient,
		WantHomepage:    req.WantHomepage,
	})
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Error("Failed to marshal response", nil, err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Server runs the handler until its context is cancelled.
type Server struct {
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
}

// New creates a server listening on addr.
func New(addr string, looker Looker) *Server {
	return &Server{
		Addr:            addr,
		Handler:         withRequestLog(NewHandler(looker)),
		ShutdownTimeout: 10 * time.Second,
	}
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", logger.Fields{"addr": s.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", s.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.IncrCounter("server.requests")
		logger.RecordTiming("server.duration", time.Since(start))
		logger.Info("Request handled", logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
