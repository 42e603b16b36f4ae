package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a read-only status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
			stats, err := st.GetStats(r.Context())
			if err != nil {
				zap.L().Error("stats query failed", zap.Error(err))
				http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(stats)
		})

		mux.HandleFunc("GET /api/businesses", func(w http.ResponseWriter, r *http.Request) {
			filter, err := filterFromQuery(r)
			if err != nil {
				http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
				return
			}

			businesses, err := st.ListBusinesses(r.Context(), filter)
			if err != nil {
				zap.L().Error("business query failed", zap.Error(err))
				http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"count":      len(businesses),
				"businesses": businesses,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// Drain in-flight requests on a fresh context; the signal
			// context is already canceled.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func filterFromQuery(r *http.Request) (store.BusinessFilter, error) {
	q := r.URL.Query()
	filter := store.BusinessFilter{
		Source:   q.Get("source"),
		State:    q.Get("state"),
		City:     q.Get("city"),
		Category: q.Get("category"),
		Limit:    50,
	}

	if s := q.Get("status"); s != "" {
		status := model.BusinessStatus(s)
		if !status.Valid() {
			return filter, eris.Errorf("invalid status %q", s)
		}
		filter.Status = status
	}
	if s := q.Get("has_website"); s != "" {
		has, err := strconv.ParseBool(s)
		if err != nil {
			return filter, eris.Errorf("invalid has_website %q", s)
		}
		filter.HasWebsite = &has
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return filter, eris.Errorf("invalid limit %q", s)
		}
		filter.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, eris.Errorf("invalid offset %q", s)
		}
		filter.Offset = n
	}

	return filter, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
