package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
	"intraday-signals/internal/signal"
)

// Deps are the collaborators the HTTP routes read from.
type Deps struct {
	Poller   *Poller
	Engine   *signal.Engine
	Registry *signal.Registry
	Hub      *Hub
	Health   *metrics.HealthStatus
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   *slog.Logger
}

// NewRouter wires the dashboard routes:
//
//	GET  /api/signals           latest snapshot
//	GET  /api/signals/{ticker}  one row of the latest snapshot
//	POST /api/refresh           run a refresh now and return its snapshot
//	GET  /api/config            watchlist and signal configuration
//	GET  /api/indicators        registered indicators with windows
//	GET  /healthz, /metrics, /ws
func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{Deps: d}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.logRequests, corsMiddleware)
	api.HandleFunc("/signals", h.signals).Methods(http.MethodGet)
	api.HandleFunc("/signals/{ticker}", h.signal).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	api.HandleFunc("/config", h.config).Methods(http.MethodGet)
	api.HandleFunc("/indicators", h.indicators).Methods(http.MethodGet)

	if d.Health != nil {
		r.Handle("/healthz", d.Health).Methods(http.MethodGet)
	}
	r.Handle("/metrics", metrics.Handler(d.Gatherer)).Methods(http.MethodGet)
	if d.Hub != nil {
		r.Handle("/ws", d.Hub)
	}
	return r
}

// NewHTTPServer wraps the router in an http.Server with the usual timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type handlers struct {
	Deps
}

func (h *handlers) signals(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.Poller.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no refresh has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) signal(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	snap, ok := h.Poller.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no refresh has completed yet")
		return
	}
	row, ok := snap.Row(ticker)
	if !ok {
		writeError(w, http.StatusNotFound, "ticker "+ticker+" is not on the watchlist")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.Poller.Refresh(ctx))
}

func (h *handlers) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Tickers        []string       `json:"tickers"`
		Interval       model.Interval `json:"interval"`
		RefreshSeconds int            `json:"refresh_seconds"`
		Indicators     []string       `json:"indicators"`
		MaxWindow      int            `json:"max_window"`
		Signal         signal.Config  `json:"signal"`
	}{
		Tickers:        h.Poller.Tickers,
		Interval:       h.Poller.Interval,
		RefreshSeconds: int(h.Poller.Every() / time.Second),
		Indicators:     h.Engine.Indicators(),
		MaxWindow:      h.Engine.MaxWindow(),
		Signal:         h.Engine.Config(),
	})
}

func (h *handlers) indicators(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		signal.RuleWindow
		Enabled bool `json:"enabled"`
	}
	enabled := make(map[string]bool)
	for _, name := range h.Engine.Indicators() {
		enabled[name] = true
	}
	var out []entry
	for _, rw := range h.Registry.Windows(h.Engine.Config().Params) {
		out = append(out, entry{RuleWindow: rw, Enabled: enabled[rw.Name]})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "took", time.Since(start), "remote", r.RemoteAddr)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}
