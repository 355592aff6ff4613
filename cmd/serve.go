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

	"github.com/localvantage/gridscan/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for scan requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := initSERPClient(cfg.SERP)
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/webhook/scan", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				CampaignID string `json:"campaign_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.CampaignID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "campaign_id is required"})
				return
			}

			campaign, err := st.GetCampaign(req.Context(), body.CampaignID)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "campaign not found"})
				return
			}

			// Scans run on the server context, not the request context, so
			// the client disconnecting does not cancel a running scan.
			go func() {
				if _, err := runScan(ctx, st, provider, cfg, campaign, nil); err != nil {
					zap.L().Error("webhook scan failed",
						zap.String("campaign_id", campaign.ID),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":      "accepted",
				"campaign_id": campaign.ID,
			})
		})

		r.Get("/scans/{id}", func(w http.ResponseWriter, req *http.Request) {
			record, err := st.GetScan(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan not found"})
				return
			}
			writeJSON(w, http.StatusOK, record)
		})

		r.Get("/scans/{id}/result", func(w http.ResponseWriter, req *http.Request) {
			result, err := st.GetScanResult(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan result not found"})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/scans/{id}/aggregation", func(w http.ResponseWriter, req *http.Request) {
			agg, err := st.GetAggregation(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "aggregation not found"})
				return
			}
			writeJSON(w, http.StatusOK, agg)
		})

		r.Get("/campaigns/{id}/scans", func(w http.ResponseWriter, req *http.Request) {
			records, err := st.ListScans(req.Context(), store.ScanFilter{
				CampaignID: chi.URLParam(req, "id"),
				Limit:      50,
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list scans failed"})
				return
			}
			writeJSON(w, http.StatusOK, records)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "cmd: server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
