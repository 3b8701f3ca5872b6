package server

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/twgrab/internal/config"
	"github.com/avolkov/twgrab/internal/database/repository"
	"github.com/avolkov/twgrab/internal/extractor"
	"github.com/avolkov/twgrab/internal/notify"
	"github.com/avolkov/twgrab/internal/storage"
	"github.com/avolkov/twgrab/internal/task"
)

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	store    *task.Store
	files    *storage.Local
	history  *repository.DownloadRepository
	notifier notify.Notifier
	sem      chan struct{}

	// extractorFor is swapped for a stub in tests
	extractorFor func(url string) (extractor.Extractor, error)
}

// New creates a Server.
func New(cfg *config.Config, store *task.Store, files *storage.Local,
	history *repository.DownloadRepository, notifier notify.Notifier) *Server {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Server{
		cfg:          cfg,
		store:        store,
		files:        files,
		history:      history,
		notifier:     notifier,
		sem:          make(chan struct{}, cfg.MaxConcurrent),
		extractorFor: extractor.For,
	}
}

// Routes builds the HTTP handler with CORS applied to every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /video_info", s.handleVideoInfo)
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("GET /progress/{id}", s.handleProgress)
	mux.HandleFunc("DELETE /progress/{id}", s.handleCancel)
	mux.HandleFunc("GET /download_file/{filename}", s.handleDownloadFile)
	mux.HandleFunc("GET /downloads", s.handleListDownloads)
	mux.HandleFunc("GET /stats", s.handleStats)

	return cors(mux)
}

// cors permits requests from any origin; the service is consumed by a
// browser extension running on arbitrary pages.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
