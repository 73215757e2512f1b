package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/export"
	"github.com/sells-group/prospect-crm/internal/filter"
	"github.com/sells-group/prospect-crm/internal/model"
	"github.com/sells-group/prospect-crm/internal/score"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp()
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/companies", handleListCompanies(env))
		r.Post("/companies/{id}/stage", handleMoveStage(env))
		r.Post("/companies/{id}/followups", handleAddFollowUp(env))
		r.Post("/followups/complete", handleCompleteFollowUp(env))
		r.Post("/bulk", handleBulk(env))
		r.Get("/export", handleExport(env))
		r.Get("/notifications", handleNotifications(env))
		r.Post("/scores/refresh", handleRefreshScores(env))
	})

	return r
}

// handleListCompanies returns the collection sorted by priority rank.
// Query parameters narrow the result without touching the store's own
// filter state: status, priority, category, tag (comma-separated),
// min_score, max_score, recent, q.
func handleListCompanies(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := env.Store.Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "corpus not loaded")
			return
		}

		criteria := criteriaFromQuery(r)
		now := time.Now()
		companies := filter.Apply(env.Store.Companies(), criteria, now)
		sort.SliceStable(companies, func(i, j int) bool {
			return score.PriorityRank(companies[i], now) > score.PriorityRank(companies[j], now)
		})

		writeJSON(w, http.StatusOK, map[string]any{
			"companies":    companies,
			"total":        len(companies),
			"last_updated": env.Store.LastUpdated(),
		})
	}
}

func handleMoveStage(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			writeError(w, http.StatusBadRequest, "status is required")
			return
		}

		id := chi.URLParam(r, "id")
		if _, ok := env.Store.Company(id); !ok {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		env.Store.MoveToStage(r.Context(), id, model.Status(req.Status))
		c, _ := env.Store.Company(id)
		writeJSON(w, http.StatusOK, c)
	}
}

func handleAddFollowUp(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type        string     `json:"type"`
			Description string     `json:"description"`
			CustomDate  *time.Time `json:"custom_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(r, "id")
		if _, ok := env.Store.Company(id); !ok {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		typ := model.FollowUpType(req.Type)
		if req.Type == "" {
			typ = model.FollowUpOneWeek
		}
		var custom time.Time
		if req.CustomDate != nil {
			custom = *req.CustomDate
		}

		if err := env.Store.AddFollowUp(r.Context(), id, typ, req.Description, custom); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, _ := env.Store.Company(id)
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleCompleteFollowUp(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyID  string `json:"company_id"`
			FollowUpID string `json:"follow_up_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CompanyID == "" || req.FollowUpID == "" {
			writeError(w, http.StatusBadRequest, "company_id and follow_up_id are required")
			return
		}

		env.Store.CompleteFollowUp(req.CompanyID, req.FollowUpID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleBulk(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var op model.BulkOperation
		if err := json.NewDecoder(r.Body).Decode(&op); err != nil || op.Action == "" {
			writeError(w, http.StatusBadRequest, "action is required")
			return
		}

		env.Store.Bulk(op)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"affected": len(op.CompanyIDs),
		})
	}
}

func handleExport(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies := env.Store.Filtered()

		switch format := r.URL.Query().Get("format"); format {
		case "", "csv":
			out, err := export.CSV(companies)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "export failed")
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="crm-export.csv"`)
			_, _ = w.Write([]byte(out))
		case "json":
			out, err := export.JSON(companies, time.Now())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "export failed")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Disposition", `attachment; filename="crm-export.json"`)
			_, _ = w.Write(out)
		default:
			writeError(w, http.StatusBadRequest, "unknown format: "+format)
		}
	}
}

func handleNotifications(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": env.Notifier.History(),
		})
	}
}

func handleRefreshScores(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		env.Store.RefreshScores()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func criteriaFromQuery(r *http.Request) model.FilterCriteria {
	q := r.URL.Query()
	var criteria model.FilterCriteria

	for _, s := range splitParam(q.Get("status")) {
		criteria.Statuses = append(criteria.Statuses, model.Status(s))
	}
	for _, s := range splitParam(q.Get("priority")) {
		criteria.Priorities = append(criteria.Priorities, model.Priority(s))
	}
	for _, s := range splitParam(q.Get("category")) {
		criteria.Categories = append(criteria.Categories, model.Category(s))
	}
	criteria.Tags = splitParam(q.Get("tag"))

	if v, err := strconv.Atoi(q.Get("min_score")); err == nil && q.Get("min_score") != "" {
		criteria.MinScore = &v
	}
	if v, err := strconv.Atoi(q.Get("max_score")); err == nil && q.Get("max_score") != "" {
		criteria.MaxScore = &v
	}
	criteria.HasRecentActivity = q.Get("recent") == "true"
	criteria.SearchQuery = q.Get("q")

	return criteria
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
