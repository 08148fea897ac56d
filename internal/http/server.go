package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/middleware/ratelimit"
	"salonledger/internal/middleware/trace"
	"salonledger/internal/services"
)

const maxBodyBytes = 1 << 20

// Ledger is the part of services.LedgerService the API uses.
type Ledger interface {
	Create(ctx context.Context, t core.Transaction, rememberStaff bool) (services.WriteResult, error)
	Update(ctx context.Context, id int64, t core.Transaction) (services.WriteResult, error)
	Delete(ctx context.Context, id int64) (services.ExportReport, error)
	ClearAll(ctx context.Context) (services.ExportReport, error)
	List(ctx context.Context, f services.Filter) ([]core.Transaction, error)
	Summary(ctx context.Context, from, to core.Date) (services.PeriodSummary, error)
	ListStaff(ctx context.Context) ([]string, error)
	AddStaff(ctx context.Context, name string) error
	DeleteStaff(ctx context.Context, name string) error
	ExportAll(ctx context.Context) (services.ExportReport, error)
	ExportFiltered(ctx context.Context, f services.Filter) (string, error)
}

var _ Ledger = (*services.LedgerService)(nil)

type Server struct {
	http.Server
	ledger    Ledger
	exportDir string
	trace     *trace.Middleware
	limiter   *ratelimit.Limiter
	now       func() time.Time

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithWriteLimit caps state-changing requests per client and minute.
// Reads are never limited. A non-positive limit disables it.
func WithWriteLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute <= 0 {
			return
		}
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{Requests: perMinute, Window: time.Minute})
	}
}

// NewServer configures routes, returning a ready-to-run http.Server.
// Exported workbooks under exportDir are served by GET /exports/{file}.
func NewServer(addr string, ledger Ledger, exportDir string, logger *log.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
		ledger:    ledger,
		exportDir: exportDir,
		trace:     trace.NewMiddleware(logger, trace.ClientIP),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /transactions", s.handleClearTransactions)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /staff", s.handleListStaff)
	mux.HandleFunc("POST /staff", s.handleAddStaff)
	mux.HandleFunc("DELETE /staff/{name}", s.handleDeleteStaff)

	mux.HandleFunc("GET /summary", s.handleSummary)

	mux.HandleFunc("POST /exports", s.handleExportAll)
	mux.HandleFunc("POST /exports/filtered", s.handleExportFiltered)
	mux.HandleFunc("GET /exports/{file}", s.handleDownloadExport)

	var handler http.Handler = mux
	if s.limiter != nil {
		handler = s.limiter.Middleware(trace.ClientIP, ratelimit.WritesOnly, handleRateLimited)(handler)
	}
	s.Handler = s.trace.Middleware(withSecurityHeaders(handler))
	return s
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, opRateLimit, errRateLimited)
}

// withSecurityHeaders sets the headers every API response carries.
func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics exposes the request counters gathered by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

// RateLimitMetrics reports rejected writes; zero when no limit is set.
func (s *Server) RateLimitMetrics() ratelimit.Metrics {
	if s.limiter == nil {
		return ratelimit.Metrics{}
	}
	return s.limiter.GetMetrics()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
