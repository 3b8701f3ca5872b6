package models

import "time"

// Download represents a completed download record
type Download struct {
	ID            int64
	TaskID        string
	Source        string
	VideoURL      string
	VideoTitle    string
	FormatID      string
	Filename      string
	FileSizeBytes int64
	DownloadedAt  time.Time
}
