package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal service.
type Metrics struct {
	// Evaluation
	EvaluationsTotal *prometheus.CounterVec // labels: verdict
	TickerFailures   *prometheus.CounterVec // labels: status
	MalformedBars    prometheus.Counter
	EvalDur          prometheus.Histogram

	// Feed
	FetchDur       *prometheus.HistogramVec // labels: source
	FetchErrors    *prometheus.CounterVec   // labels: source
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ArchivedBars   prometheus.Counter
	SQLiteWriteDur prometheus.Histogram

	// Dashboard
	RefreshCycles prometheus.Counter
	RefreshDur    prometheus.Histogram
	WSClients     prometheus.Gauge
	VerdictFlips  prometheus.Counter

	// Circuit breakers
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	FeedCircuitBreakerState  prometheus.Gauge

	// Market session
	MarketState prometheus.Gauge // 0=closed, 1=open
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_evaluations_total",
			Help: "Ticker evaluations by combined verdict",
		}, []string{"verdict"}),
		TickerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_ticker_unavailable_total",
			Help: "Ticker evaluations without a computed verdict (by status)",
		}, []string{"status"}),
		MalformedBars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_malformed_bars_total",
			Help: "Bars dropped for violating the OHLC invariant or timestamp order",
		}),
		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_evaluation_duration_seconds",
			Help:    "Indicator and signal computation latency per ticker",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signals_feed_fetch_duration_seconds",
			Help:    "Bar fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_feed_fetch_errors_total",
			Help: "Bar fetch failures",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_bar_cache_hits_total",
			Help: "Bar series served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_bar_cache_misses_total",
			Help: "Bar series fetched because the cache was empty or unavailable",
		}),
		ArchivedBars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_archived_bars_total",
			Help: "Bars written to the SQLite archive",
		}),
		SQLiteWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_sqlite_write_duration_seconds",
			Help:    "SQLite archive transaction latency",
			Buckets: prometheus.DefBuckets,
		}),

		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_refresh_cycles_total",
			Help: "Completed dashboard refresh cycles",
		}),
		RefreshDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_refresh_duration_seconds",
			Help:    "Wall time of one refresh cycle across all tickers",
			Buckets: prometheus.DefBuckets,
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		VerdictFlips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_verdict_changes_total",
			Help: "Combined verdict changes between refresh cycles",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		FeedCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_feed_circuit_breaker_state",
			Help: "Feed circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),

		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signals_market_state",
			Help: "Market session state (0=closed, 1=open)",
		}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.TickerFailures,
		m.MalformedBars,
		m.EvalDur,
		m.FetchDur,
		m.FetchErrors,
		m.CacheHits,
		m.CacheMisses,
		m.ArchivedBars,
		m.SQLiteWriteDur,
		m.RefreshCycles,
		m.RefreshDur,
		m.WSClients,
		m.VerdictFlips,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.FeedCircuitBreakerState,
		m.MarketState,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	LastRefresh    time.Time `json:"last_refresh"`
	Tickers        int       `json:"tickers"`
	Unavailable    int       `json:"unavailable"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	ArchiveEnabled bool      `json:"archive_enabled"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`

	staleAfter time.Duration
}

// NewHealthStatus returns a default health status. The service reports
// degraded once no refresh has completed within staleAfter.
func NewHealthStatus(staleAfter time.Duration) *HealthStatus {
	return &HealthStatus{
		StartedAt:  time.Now(),
		staleAfter: staleAfter,
	}
}

// RecordRefresh notes a completed refresh cycle.
func (h *HealthStatus) RecordRefresh(at time.Time, tickers, unavailable int) {
	h.mu.Lock()
	h.LastRefresh = at
	h.Tickers = tickers
	h.Unavailable = unavailable
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisEnabled = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the archive and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.ArchiveEnabled = true
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil clients are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	stale := h.LastRefresh.IsZero() || (h.staleAfter > 0 && time.Since(h.LastRefresh) > h.staleAfter)
	if stale || (h.RedisEnabled && !h.RedisConnected) || (h.ArchiveEnabled && !h.SQLiteOK) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	refreshAge := ""
	if !h.LastRefresh.IsZero() {
		refreshAge = time.Since(h.LastRefresh).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		LastRefresh     string  `json:"last_refresh"`
		RefreshAge      string  `json:"refresh_age"`
		Tickers         int     `json:"tickers"`
		Unavailable     int     `json:"unavailable"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		ArchiveEnabled  bool    `json:"archive_enabled"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		LastRefresh:     h.LastRefresh.Format(time.RFC3339),
		RefreshAge:      refreshAge,
		Tickers:         h.Tickers,
		Unavailable:     h.Unavailable,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		ArchiveEnabled:  h.ArchiveEnabled,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Handler returns the Prometheus exposition handler for g.
// A nil g serves the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Server runs a standalone HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server serving g (nil for the
// default registry).
func NewServer(addr string, health *HealthStatus, g prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
