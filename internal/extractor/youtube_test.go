package extractor

import (
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestYouTubeMatch(t *testing.T) {
	yt := NewYouTube()

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", true},
		{"https://x.com/user/status/123", false},
		{"https://youtube.com/", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := yt.Match(tt.url); got != tt.expected {
				t.Errorf("Match(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestUsableFormats(t *testing.T) {
	video := &youtube.Video{
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: "video/mp4", QualityLabel: "360p", Height: 360, AudioChannels: 2, Bitrate: 500000},
			{ItagNo: 22, MimeType: "video/mp4", QualityLabel: "720p", Height: 720, AudioChannels: 2, Bitrate: 1500000},
			{ItagNo: 137, MimeType: "video/mp4", QualityLabel: "1080p", Height: 1080, AudioChannels: 0, Bitrate: 4000000},
			{ItagNo: 248, MimeType: "video/webm", QualityLabel: "1080p", Height: 1080, AudioChannels: 2, Bitrate: 3000000},
			{ItagNo: 140, MimeType: "audio/mp4", QualityLabel: "", AudioChannels: 2, Bitrate: 128000},
		},
	}

	formats := usableFormats(video)

	// webm and audio-only are dropped; mp4 formats survive
	labels := make(map[string]bool)
	for _, f := range formats {
		labels[f.QualityLabel] = true
	}
	if !labels["360p"] || !labels["720p"] {
		t.Errorf("expected 360p and 720p to survive, got %v", labels)
	}

	// Formats are ordered best-first
	for i := 1; i < len(formats); i++ {
		if formats[i].Height > formats[i-1].Height {
			t.Errorf("formats not ordered best-first: %d before %d",
				formats[i-1].Height, formats[i].Height)
		}
	}
}

func TestUsableFormatsPrefersAudio(t *testing.T) {
	video := &youtube.Video{
		Formats: youtube.FormatList{
			{ItagNo: 22, MimeType: "video/mp4", QualityLabel: "720p", Height: 720, AudioChannels: 2, Bitrate: 1500000},
			{ItagNo: 136, MimeType: "video/mp4", QualityLabel: "720p", Height: 720, AudioChannels: 0, Bitrate: 2000000},
		},
	}

	formats := usableFormats(video)
	if len(formats) != 1 {
		t.Fatalf("expected 1 format per label, got %d", len(formats))
	}
	if formats[0].AudioChannels == 0 {
		t.Error("expected the format with audio to win")
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://x.com/user/status/123456", "twitter"},
		{"https://twitter.com/user/status/123456", "twitter"},
		{"https://youtu.be/dQw4w9WgXcQ", "youtube"},
	}

	for _, tt := range tests {
		e, err := For(tt.url)
		if err != nil {
			t.Errorf("For(%q) failed: %v", tt.url, err)
			continue
		}
		if e.Name() != tt.expected {
			t.Errorf("For(%q) = %s, want %s", tt.url, e.Name(), tt.expected)
		}
	}
}

func TestForUnsupported(t *testing.T) {
	_, err := For("https://example.com/video.mp4")
	if !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("expected ErrUnsupportedURL, got %v", err)
	}
}
