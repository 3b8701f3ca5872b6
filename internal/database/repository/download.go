package repository

import (
	"database/sql"
	"fmt"

	"github.com/avolkov/twgrab/internal/database/models"
)

// DownloadRepository handles download history persistence
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record stores a completed download
func (r *DownloadRepository) Record(download *models.Download) error {
	query := `
		INSERT INTO downloads
		(task_id, source, video_url, video_title, format_id, filename, file_size_bytes, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		download.TaskID,
		download.Source,
		download.VideoURL,
		download.VideoTitle,
		download.FormatID,
		download.Filename,
		download.FileSizeBytes,
		download.DownloadedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	return nil
}

// TotalCount returns the total number of recorded downloads
func (r *DownloadRepository) TotalCount() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM downloads").Scan(&count)
	return count, err
}

// PopularVideo represents a video with its download count
type PopularVideo struct {
	VideoURL      string `json:"url"`
	VideoTitle    string `json:"title"`
	DownloadCount int64  `json:"count"`
}

// MostDownloaded returns the most downloaded videos (top N)
func (r *DownloadRepository) MostDownloaded(limit int) ([]PopularVideo, error) {
	query := `
		SELECT video_url, video_title, COUNT(*) as download_count
		FROM downloads
		GROUP BY video_url
		ORDER BY download_count DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular videos: %w", err)
	}
	defer rows.Close()

	var videos []PopularVideo
	for rows.Next() {
		var video PopularVideo
		var title sql.NullString
		if err := rows.Scan(&video.VideoURL, &title, &video.DownloadCount); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		video.VideoTitle = title.String
		videos = append(videos, video)
	}

	return videos, rows.Err()
}
