package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/enrich"
	"github.com/sells-group/crm-geo/internal/monitoring"
	"github.com/sells-group/crm-geo/internal/reconcile"
	"github.com/sells-group/crm-geo/internal/table"
)

var servePort int

// maxBodyBytes bounds request bodies; datasets travel inline as JSON.
const maxBodyBytes = 64 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, monitoring.NewMetrics())
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, enrichOptions(nil, "", -1), cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// api serves the dataset operations. Enrich and merge mutate the dataset
// they are given and share the geocode cache, so they run one at a time.
type api struct {
	env      *geoEnv
	defaults enrich.Options
	mu       sync.Mutex
}

// buildRouter wires the HTTP routes. defaults supplies the enrichment
// settings a request does not override.
func buildRouter(env *geoEnv, defaults enrich.Options, corsOrigins []string) http.Handler {
	a := &api{env: env, defaults: defaults}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", env.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/assign", a.handleAssign)
		r.Post("/enrich", a.handleEnrich)
		r.Post("/view", a.handleView)
		r.Post("/merge", a.handleMerge)
		r.Post("/summary", a.handleSummary)
	})
	return r
}

type datasetRequest struct {
	Dataset *table.Dataset `json:"dataset"`
}

type enrichRequest struct {
	Dataset *table.Dataset `json:"dataset"`
	Fields  []string       `json:"fields,omitempty"`
	Country string         `json:"country,omitempty"`
	RateMS  *int           `json:"rate_ms,omitempty"`
}

type viewRequest struct {
	Dataset *table.Dataset `json:"dataset"`
	Filters []table.Filter `json:"filters"`
}

type mergeRequest struct {
	Full   *table.Dataset `json:"full"`
	Edited *table.Dataset `json:"edited"`
	Delete []table.RowID  `json:"delete,omitempty"`
}

func (a *api) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decodeRequest(w, r, &req) || !requireDataset(w, req.Dataset, "dataset") {
		return
	}
	if err := table.Assign(req.Dataset); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dataset": req.Dataset})
}

func (a *api) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !decodeRequest(w, r, &req) || !requireDataset(w, req.Dataset, "dataset") {
		return
	}

	opts := a.defaults
	if len(req.Fields) > 0 {
		opts.Fields = req.Fields
	}
	if req.Country != "" {
		opts.CountryBias = req.Country
	}
	if req.RateMS != nil {
		if *req.RateMS < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rate_ms must not be negative"})
			return
		}
		opts.Interval = time.Duration(*req.RateMS) * time.Millisecond
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	report, err := a.env.Pipeline.Run(r.Context(), req.Dataset, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dataset": req.Dataset, "report": report})
}

func (a *api) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decodeRequest(w, r, &req) || !requireDataset(w, req.Dataset, "dataset") {
		return
	}
	if !table.HasIdentity(req.Dataset) {
		writeError(w, &table.SchemaError{Column: table.ColRowID, Row: -1, Reason: "dataset has no row ids; assign first"})
		return
	}
	if err := table.Assign(req.Dataset); err != nil {
		writeError(w, err)
		return
	}
	view := req.Dataset.View(req.Filters...)
	writeJSON(w, http.StatusOK, map[string]any{"dataset": view, "summary": table.Summarize(view)})
}

func (a *api) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeRequest(w, r, &req) || !requireDataset(w, req.Full, "full") || !requireDataset(w, req.Edited, "edited") {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := reconcile.Merge(req.Full, req.Edited,
		reconcile.WithDeletes(req.Delete...),
		reconcile.WithMetrics(a.env.Metrics),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dataset": req.Full, "stats": stats})
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decodeRequest(w, r, &req) || !requireDataset(w, req.Dataset, "dataset") {
		return
	}
	writeJSON(w, http.StatusOK, table.Summarize(req.Dataset))
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func requireDataset(w http.ResponseWriter, ds *table.Dataset, name string) bool {
	if ds == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": name + " is required"})
		return false
	}
	return true
}

// writeError maps typed errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		cfgErr    *enrich.ConfigurationError
		schemaErr *table.SchemaError
		idErr     *reconcile.IdentityError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &cfgErr):
		status = http.StatusServiceUnavailable
	case errors.As(err, &schemaErr), errors.As(err, &idErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
