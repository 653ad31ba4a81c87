// Package api provides the HTTP server for newspulse.
//
// It exposes the analyzer page, the JSON analysis endpoints, stored reports
// with their audio, configuration status and a WebSocket progress stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/store"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
	"github.com/seenimoa/newspulse/web"
)

// Version is reported by /health. The CLI overrides it at startup.
var Version = "dev"

// MsgEmptyCompany is the client-facing error for a blank company name.
const MsgEmptyCompany = "Please enter a company name"

// Analyzer runs analyses and exposes the stores they write to.
// *pipeline.Pipeline satisfies it.
type Analyzer interface {
	Run(ctx context.Context, company string) (*models.Report, error)
	Reports() store.ReportStore
	Artifacts() store.ArtifactStore
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	analyzer  Analyzer
	wsHub     *WSHub
	log       logrus.FieldLogger
	reportCfg report.ReportConfig
	started   time.Time
}

// NewServer creates a configured server. hub may be nil, in which case a
// private hub is created; pass the same hub to the pipeline as its observer
// to stream progress events.
func NewServer(cfg *config.Config, a Analyzer, hub *WSHub, log logrus.FieldLogger) *Server {
	if hub == nil {
		hub = NewWSHub(log)
	}
	s := &Server{
		cfg:       cfg,
		analyzer:  a,
		wsHub:     hub,
		log:       logger.OrDiscard(log),
		reportCfg: report.DefaultReportConfig(),
		started:   time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if t := s.cfg.API.Timeout(); t > 0 {
		return t
	}
	return 120 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Handlers apply the request deadline themselves; the slack lets them
	// answer 504 in their own envelope first.
	r.Use(middleware.Timeout(s.requestTimeout() + 5*time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Page and legacy routes
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/analyze", s.handleLegacyAnalyze)
	r.Get("/audio", s.handleLatestAudio)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Get("/analyze", s.handleAnalyze)
		r.Post("/analyze", s.handleAnalyze)

		// Reports
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/reports/{id}/audio", s.handleReportAudio)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	CompanyName string `json:"company_name"`
	Format      string `json:"format,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"uptime":     time.Since(s.started).Round(time.Second).String(),
			"time":       utils.FormatDateTime(time.Now()),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

// handleIndex serves the analyzer page. JSON clients get the welcome message.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the News Sentiment Analysis API",
			"usage":   "GET /analyze?company_name=<name>",
		})
		return
	}

	q := r.URL.Query()
	page := report.Page{Query: q.Get("company_name")}
	status := http.StatusOK
	if q.Has("company_name") {
		rep, err := s.runAnalysis(r.Context(), page.Query)
		if err != nil {
			status, page.Error = errorStatus(err)
		} else {
			page.Report = rep
		}
	}

	html, err := report.GeneratePage(page, s.reportCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

// handleLegacyAnalyze returns the bare report for ?company_name=.
func (s *Server) handleLegacyAnalyze(w http.ResponseWriter, r *http.Request) {
	rep, err := s.runAnalysis(r.Context(), r.URL.Query().Get("company_name"))
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req := AnalyzeRequest{
		CompanyName: r.URL.Query().Get("company_name"),
		Format:      r.URL.Query().Get("format"),
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	format, err := parseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.runAnalysis(r.Context(), req.CompanyName)
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}
	s.writeReport(w, rep, format)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports := s.analyzer.Reports()
	if reports == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []models.ReportSummary{}})
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	list, err := reports.List(r.Context(), r.URL.Query().Get("company"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []models.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reports := s.analyzer.Reports()
	if reports == nil {
		writeError(w, http.StatusNotFound, "report history is disabled")
		return
	}

	rep, err := reports.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeReport(w, rep, format)
}

func (s *Server) handleReportAudio(w http.ResponseWriter, r *http.Request) {
	artifacts := s.analyzer.Artifacts()
	if artifacts == nil {
		writeError(w, http.StatusNotFound, "audio not available")
		return
	}
	id := chi.URLParam(r, "id")
	audio, err := artifacts.Get(r.Context(), id)
	if err != nil {
		s.audioError(w, err)
		return
	}
	writeAudio(w, id, audio)
}

// handleLatestAudio serves the most recent narration.
func (s *Server) handleLatestAudio(w http.ResponseWriter, r *http.Request) {
	artifacts := s.analyzer.Artifacts()
	if artifacts == nil {
		writeError(w, http.StatusNotFound, "audio not available")
		return
	}
	id, audio, err := artifacts.Latest(r.Context())
	if err != nil {
		s.audioError(w, err)
		return
	}
	writeAudio(w, id, audio)
}

func (s *Server) audioError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	s.log.WithError(err).Warn("audio lookup failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

// ============================================================
// Helpers
// ============================================================

// runAnalysis applies the request deadline and runs the analyzer.
func (s *Server) runAnalysis(ctx context.Context, company string) (*models.Report, error) {
	if strings.TrimSpace(company) == "" {
		return nil, pipeline.ErrEmptyCompany
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()
	return s.analyzer.Run(ctx, company)
}

// errorStatus maps a pipeline error to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyCompany):
		return http.StatusBadRequest, MsgEmptyCompany
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "analysis timed out"
	case errors.Is(err, context.Canceled):
		// client went away; status is for the logs only
		return 499, "request cancelled"
	}
	return http.StatusInternalServerError, err.Error()
}

func parseFormat(s string) (report.Format, error) {
	if s == "" {
		return report.FormatJSON, nil
	}
	return report.ParseFormat(s)
}

// writeReport sends rep in the envelope (json) or as a rendered document.
func (s *Server) writeReport(w http.ResponseWriter, rep *models.Report, format report.Format) {
	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
		return
	}
	body, err := report.Render(rep, format, s.reportCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func contentType(f report.Format) string {
	switch f {
	case report.FormatHTML:
		return "text/html; charset=utf-8"
	case report.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case report.FormatJSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeAudio(w http.ResponseWriter, id string, audio []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.mp3"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
