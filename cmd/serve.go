package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docintel/internal/model"
	"github.com/sells-group/docintel/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		a, err := initApp(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(a, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// maxBodyBytes caps POST /v1/extract request bodies.
const maxBodyBytes = 10 << 20

type extractBody struct {
	Text    string   `json:"text"`
	DocType string   `json:"doc_type"`
	Fields  []string `json:"fields"`
	Runs    int      `json:"runs"`
	Source  string   `json:"source"`
}

// buildRouter wires the HTTP routes. Extraction routes under /v1/extractions
// exist only when a store is configured.
func buildRouter(a *app, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/extract", func(w http.ResponseWriter, req *http.Request) {
		var body extractBody
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		er := extractRequest{
			Source: body.Source,
			Text:   body.Text,
			Runs:   body.Runs,
			Save:   a.Store != nil,
		}
		if body.DocType != "" {
			er.DocType = model.ParseDocumentType(body.DocType)
		}
		for _, f := range body.Fields {
			er.Fields = append(er.Fields, parseFields(f)...)
		}

		res, err := a.resolveText(req.Context(), er)
		if errors.Is(err, ErrEmptyText) {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		if err != nil {
			zap.L().Error("extract request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "extraction failed")
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	if a.Store != nil {
		r.Get("/v1/extractions", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			filter := store.Filter{FlaggedOnly: q.Get("flagged") == "true"}
			if dt := q.Get("doc_type"); dt != "" {
				filter.DocType = model.ParseDocumentType(dt)
			}
			filter.Limit, _ = strconv.Atoi(q.Get("limit"))
			filter.Offset, _ = strconv.Atoi(q.Get("offset"))

			recs, err := a.Store.ListExtractions(req.Context(), filter)
			if err != nil {
				zap.L().Error("list extractions failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "list failed")
				return
			}
			if recs == nil {
				recs = []store.Record{}
			}
			writeJSON(w, http.StatusOK, recs)
		})

		r.Get("/v1/extractions/{id}", func(w http.ResponseWriter, req *http.Request) {
			rec, err := a.Store.GetExtraction(req.Context(), chi.URLParam(req, "id"))
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "extraction not found")
				return
			}
			if err != nil {
				zap.L().Error("get extraction failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "lookup failed")
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
