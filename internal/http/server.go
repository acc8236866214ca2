// Package http is the JSON API surface of the application.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"marketflow/internal/auth"
	"marketflow/internal/core"
	"marketflow/internal/events"
	"marketflow/internal/importer"
	"marketflow/internal/insight"
	"marketflow/internal/metrics"
	"marketflow/internal/store"
)

// analyst is the slice of the insight package the server calls; tests stub it.
type analyst interface {
	Analyze(ctx context.Context, monthLabel string, month core.PeriodSummary, breakdown []core.CategorySummary, recent []core.Transaction) insight.Analysis
}

// sheetsFetcher pulls rows from a configured spreadsheet range.
type sheetsFetcher interface {
	Fetch(ctx context.Context, createdBy string) (importer.Result, error)
}

type Server struct {
	http.Server

	store     *store.Store
	authn     *auth.PasswordAuthenticator
	tokens    *auth.JWTManager
	analyst   analyst
	sheets    sheetsFetcher
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	rateLimiter *rateLimiter

	// Any mutation purges both caches: a single write can move every
	// aggregate for its year.
	reportCache *lruCache[any]
	listCache   *lruCache[[]core.Transaction]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Options carries the optional collaborators. Nil fields degrade features
// instead of failing: no analyst means canned insight, no publisher means no
// events, no sheets source disables that import path.
type Options struct {
	Analyst   *insight.Analyst
	Sheets    *importer.SheetsSource
	Publisher *events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewServer(addr string, st *store.Store, tokens *auth.JWTManager, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:            st,
		authn:            auth.NewPasswordAuthenticator(st),
		tokens:           tokens,
		publisher:        opts.Publisher,
		metrics:          opts.Metrics,
		logger:           opts.Logger,
		rateLimiter:      newRateLimiter(),
		reportCache:      newLRUCache[any](100, 5*time.Minute),
		listCache:        newLRUCache[[]core.Transaction](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}
	if opts.Analyst != nil {
		s.analyst = opts.Analyst
	}
	if opts.Sheets != nil {
		s.sheets = opts.Sheets
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("POST /api/login", s.secure(s.handleLogin))
	mux.HandleFunc("GET /api/me", s.secure(s.authed(s.handleMe)))

	mux.HandleFunc("GET /api/transactions", s.secure(s.authed(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.secure(s.authed(s.handleAddTransactions)))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.secure(s.authed(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secure(s.authed(s.handleDeleteTransaction)))
	mux.HandleFunc("POST /api/transactions/bulk-delete", s.secure(s.authed(s.handleBulkDelete)))

	mux.HandleFunc("GET /api/categories", s.secure(s.authed(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.secure(s.authed(s.require(core.ActionEditCategory, s.handleAddCategory))))
	mux.HandleFunc("POST /api/categories/rename", s.secure(s.authed(s.require(core.ActionEditCategory, s.handleRenameCategory))))
	mux.HandleFunc("DELETE /api/categories/{name}", s.secure(s.authed(s.require(core.ActionEditCategory, s.handleRemoveCategory))))
	mux.HandleFunc("GET /api/categories/orphans", s.secure(s.authed(s.require(core.ActionEditCategory, s.handleOrphanedCategories))))

	mux.HandleFunc("GET /api/users", s.secure(s.authed(s.require(core.ActionManageUsers, s.handleListUsers))))
	mux.HandleFunc("POST /api/users", s.secure(s.authed(s.require(core.ActionManageUsers, s.handleAddUser))))
	mux.HandleFunc("DELETE /api/users/{id}", s.secure(s.authed(s.require(core.ActionManageUsers, s.handleDeleteUser))))

	mux.HandleFunc("GET /api/reports/month", s.secure(s.authed(s.handleMonthReport)))
	mux.HandleFunc("GET /api/reports/quarters", s.secure(s.authed(s.handleQuartersReport)))
	mux.HandleFunc("GET /api/reports/year", s.secure(s.authed(s.handleYearReport)))
	mux.HandleFunc("GET /api/reports/matrix", s.secure(s.authed(s.handleMatrixReport)))

	mux.HandleFunc("POST /api/import", s.secure(s.authed(s.require(core.ActionManageTransactions, s.handleImport))))
	mux.HandleFunc("POST /api/import/sheets", s.secure(s.authed(s.require(core.ActionManageTransactions, s.handleImportSheets))))
	mux.HandleFunc("GET /api/export.csv", s.secure(s.authed(s.handleExportCSV)))

	mux.HandleFunc("GET /api/backup", s.secure(s.authed(s.require(core.ActionManageUsers, s.handleBackup))))
	mux.HandleFunc("POST /api/restore", s.secure(s.authed(s.require(core.ActionManageUsers, s.handleRestore))))

	mux.HandleFunc("POST /api/insight", s.secure(s.authed(s.handleInsight)))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reports := s.reportCache.CleanExpired()
			lists := s.listCache.CleanExpired()
			if reports > 0 || lists > 0 {
				s.logger.Debug("cache cleanup completed",
					"report_entries_removed", reports,
					"list_entries_removed", lists)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateCaches drops all cached reads after a successful mutation.
func (s *Server) invalidateCaches() {
	s.reportCache.Purge()
	s.listCache.Purge()
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountUsers(r.Context()); err != nil {
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
