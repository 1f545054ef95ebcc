package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nwbort/stores-kmart/internal/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Scrape once and serve the records over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("sitemap") {
			cfg.Sitemap.Path, _ = cmd.Flags().GetString("sitemap")
		}

		res, err := runBatch(ctx, cfg.Sitemap.Path)
		if err != nil {
			return err
		}
		zap.L().Info("serving scraped records",
			zap.Int("stores", len(res.Records)),
			zap.Int("failures", len(res.Failures)),
		)

		port := cfg.Server.Port
		if p, _ := cmd.Flags().GetInt("port"); p != 0 {
			port = p
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeHandler(res.Records),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(cmd.Context())
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().String("sitemap", "", "path to the store-location sitemap XML")
	rootCmd.AddCommand(serveCmd)
}

// newServeHandler builds the read-only store API over an in-memory record set.
func newServeHandler(records []model.StoreRecord) http.Handler {
	byID := make(map[string]*model.StoreRecord, len(records))
	for i := range records {
		if records[i].LocationID != nil {
			byID[*records[i].LocationID] = &records[i]
		}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stores", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/stores/{locationID}", func(w http.ResponseWriter, req *http.Request) {
		rec, ok := byID[chi.URLParam(req, "locationID")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "store not found"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
