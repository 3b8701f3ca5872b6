package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avolkov/twgrab/internal/database/models"
	"github.com/avolkov/twgrab/internal/extractor"
	"github.com/avolkov/twgrab/internal/task"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "twgrab video downloader API",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type videoInfoRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	ext, err := s.extractorFor(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	info, err := ext.GetInfo(ctx, req.URL)
	if err != nil {
		log.Printf("[API] video_info failed for %s: %v", req.URL, err)
		writeError(w, extractionStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"title":     info.Title,
		"uploader":  info.Uploader,
		"duration":  info.Duration,
		"thumbnail": info.Thumbnail,
		"qualities": info.Qualities,
	})
}

type downloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if req.FormatID == "" {
		writeError(w, http.StatusBadRequest, "format_id is required")
		return
	}

	ext, err := s.extractorFor(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DownloadTimeout)

	t, created := s.store.Create(req.URL, req.FormatID, cancel)
	if !created {
		// An identical download is already running; hand back its id
		cancel()
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"task_id": t.ID,
		})
		return
	}

	go s.runDownload(ctx, cancel, ext, t)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"task_id": t.ID,
	})
}

// runDownload executes one download on its own goroutine, bounded by the
// concurrency semaphore.
func (s *Server) runDownload(ctx context.Context, cancel context.CancelFunc, ext extractor.Extractor, t task.Task) {
	defer cancel()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.store.Fail(t.ID, ctx.Err())
		return
	}

	log.Printf("[API] Starting download %s (%s, format %s)", t.ID, t.URL, t.FormatID)
	s.store.SetProgress(t.ID, 0)

	filename, err := ext.Download(ctx, t.URL, t.FormatID, s.files.BasePath(), func(percent float64) {
		s.store.SetProgress(t.ID, percent)
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			// Task was canceled through the API; the record is already gone
			log.Printf("[API] Download %s canceled", t.ID)
			return
		}
		log.Printf("[API] Download %s failed: %v", t.ID, err)
		s.store.Fail(t.ID, err)
		if failed, ok := s.store.Get(t.ID); ok {
			s.notifier.Failed(failed)
		}
		return
	}

	s.store.Complete(t.ID, filename)
	log.Printf("[API] Download %s completed: %s", t.ID, filename)

	s.recordHistory(ext.Name(), t, filename)

	if done, ok := s.store.Get(t.ID); ok {
		s.notifier.Downloaded(done, titleFromFilename(filename))
	}
}

func (s *Server) recordHistory(source string, t task.Task, filename string) {
	if s.history == nil {
		return
	}

	var size int64
	if info, err := s.files.Stat(filename); err == nil {
		size = info.Size()
	}

	err := s.history.Record(&models.Download{
		TaskID:        t.ID,
		Source:        source,
		VideoURL:      t.URL,
		VideoTitle:    titleFromFilename(filename),
		FormatID:      t.FormatID,
		Filename:      filename,
		FileSizeBytes: size,
		DownloadedAt:  time.Now(),
	})
	if err != nil {
		log.Printf("[API] Failed to record history for %s: %v", t.ID, err)
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	t, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.store.Cancel(id) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	path, err := s.files.Path(filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "History disabled")
		return
	}

	total, err := s.history.TotalCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	popular, err := s.history.MostDownloaded(10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_downloads": total,
		"popular":         popular,
	})
}

// extractionStatus maps extractor errors onto HTTP statuses: bad input is the
// client's fault, unavailable content is an upstream problem.
func extractionStatus(err error) int {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedURL):
		return http.StatusBadRequest
	case errors.Is(err, extractor.ErrNoVideo), errors.Is(err, extractor.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusUnprocessableEntity
	}
}

func titleFromFilename(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return strings.ReplaceAll(name, "_", " ")
}
