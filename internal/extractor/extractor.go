package extractor

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds reported by extractors. Handlers map these onto HTTP statuses.
var (
	// ErrUnsupportedURL means no extractor recognises the URL.
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrNoVideo means the URL resolved but contains no downloadable video.
	ErrNoVideo = errors.New("no video content")

	// ErrExtraction means the upstream source failed or the content is unavailable.
	ErrExtraction = errors.New("extraction failed")

	// ErrBadFormat means the requested format_id does not exist for the video.
	ErrBadFormat = errors.New("requested format not available")

	// ErrDownload means the transfer itself failed (network or disk).
	ErrDownload = errors.New("download failed")
)

// Quality describes one selectable variant of a video.
type Quality struct {
	Label    string `json:"label"`
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bitrate  int    `json:"bitrate,omitempty"`
	FileSize int64  `json:"filesize,omitempty"`
}

// VideoInfo is the metadata returned for a video URL.
// Qualities are ordered best-first (height, then bitrate, descending).
type VideoInfo struct {
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader"`
	Duration  int       `json:"duration"`
	Thumbnail string    `json:"thumbnail"`
	Qualities []Quality `json:"qualities"`
}

// ProgressFunc receives download progress as a percentage in [0,100].
type ProgressFunc func(percent float64)

// Extractor resolves a video URL into metadata and downloads a chosen variant.
type Extractor interface {
	// Name identifies the extractor in logs and history records.
	Name() string

	// Match reports whether this extractor handles the given URL.
	Match(url string) bool

	// GetInfo fetches title, thumbnail and the available quality variants.
	GetInfo(ctx context.Context, url string) (*VideoInfo, error)

	// Download fetches the variant identified by formatID into destDir and
	// returns the name of the written file. Progress updates are delivered
	// through fn on the download's own goroutine.
	Download(ctx context.Context, url, formatID, destDir string, fn ProgressFunc) (string, error)
}

// registry holds all known extractors, checked in order.
var registry = []Extractor{
	NewTwitter(),
	NewYouTube(),
}

// For returns the extractor handling the given URL.
func For(url string) (Extractor, error) {
	for _, e := range registry {
		if e.Match(url) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
}
