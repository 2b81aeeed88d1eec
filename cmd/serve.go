package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lender match API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := engine.New()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		opts, err := buildEngineOptions("")
		if err != nil {
			return err
		}
		if err := appendStoredOverrides(ctx, st, &opts); err != nil {
			return err
		}

		api := &apiServer{eng: eng, store: st, opts: opts}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.router(),
		}

		go drainOnCancel(ctx, srv, shutdownTimeout)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// drainOnCancel shuts the server down once ctx is canceled. The shutdown
// itself runs on a fresh context: the signal context is already done at that
// point and would abort the drain before in-flight requests finish.
func drainOnCancel(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")

	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiServer struct {
	eng   *engine.Engine
	store store.Store
	opts  engine.Options
}

func (a *apiServer) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(cfg.Server.RequestsPerSecond, cfg.Server.Burst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/match", a.handleMatch)
	r.Post("/api/records", a.handleSealRecord)
	r.Get("/api/records", a.handleListRecords)
	r.Get("/api/records/{id}", a.handleGetRecord)
	r.Post("/api/records/{id}/void", a.handleVoidRecord)

	return r
}

// rateLimit rejects requests above the configured rate with 429.
func rateLimit(rps, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = rps * 2
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	var raw engine.RawScenario
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := a.opts
	if mode := r.URL.Query().Get("mode"); mode != "" {
		switch model.PresentationMode(mode) {
		case model.ModeSeparateSections, model.ModeFallbackOnly, model.ModeCombinedRanked:
			opts.Mode = model.PresentationMode(mode)
		default:
			writeJSONError(w, http.StatusBadRequest, "unknown presentation mode")
			return
		}
	}

	payload := a.eng.Run(raw, opts)
	writeJSON(w, http.StatusOK, payload)
}

type sealRequest struct {
	Scenario engine.RawScenario `json:"scenario"`
	LenderID string             `json:"lenderId"`
}

func (a *apiServer) handleSealRecord(w http.ResponseWriter, r *http.Request) {
	var req sealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LenderID == "" {
		writeJSONError(w, http.StatusBadRequest, "lenderId is required")
		return
	}

	payload := a.eng.Run(req.Scenario, a.opts)
	selected := findResult(&payload, req.LenderID)
	if selected == nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "lender is not in the eligible results")
		return
	}

	record, err := engine.BuildDecisionRecord(selected, &payload.Scenario, payload.Confidence, time.Now())
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	stored, err := a.store.SaveRecord(r.Context(), record)
	if err != nil {
		zap.L().Error("save decision record failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "save record failed")
		return
	}

	zap.L().Info("decision record sealed",
		zap.String("id", stored.ID),
		zap.String("lender", record.SelectedLenderID),
	)
	writeJSON(w, http.StatusCreated, stored)
}

func (a *apiServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.RecordFilter{
		Status:     model.RecordStatus(q.Get("status")),
		LenderID:   q.Get("lender"),
		DataSource: model.DataSource(q.Get("source")),
	}

	records, err := a.store.ListRecords(r.Context(), filter)
	if err != nil {
		zap.L().Error("list records failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list records failed")
		return
	}
	if records == nil {
		records = []model.StoredRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *apiServer) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := a.store.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (a *apiServer) handleVoidRecord(w http.ResponseWriter, r *http.Request) {
	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		writeJSONError(w, http.StatusBadRequest, "reason is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.store.VoidRecord(r.Context(), id, req.Reason); err != nil {
		writeJSONError(w, http.StatusNotFound, "record not found or already voided")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "voided", "id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
