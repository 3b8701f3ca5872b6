package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/avolkov/twgrab/internal/storage"
)

var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?.*v=[\w-]{11}`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/[\w-]{11}`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]{11}`),
}

// YouTube extracts videos through the kkdai/youtube client.
type YouTube struct {
	client youtube.Client
}

// NewYouTube creates a YouTube extractor.
func NewYouTube() *YouTube {
	return &YouTube{client: youtube.Client{}}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Match(url string) bool {
	for _, p := range youtubeURLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

func (y *YouTube) GetInfo(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	formats := usableFormats(video)
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: no mp4 formats with audio", ErrNoVideo)
	}

	info := &VideoInfo{
		Title:    video.Title,
		Uploader: video.Author,
		Duration: int(video.Duration.Seconds()),
	}
	if len(video.Thumbnails) > 0 {
		info.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	for _, f := range formats {
		info.Qualities = append(info.Qualities, Quality{
			Label:    f.QualityLabel,
			FormatID: strconv.Itoa(f.ItagNo),
			Ext:      "mp4",
			Width:    f.Width,
			Height:   f.Height,
			Bitrate:  f.Bitrate,
			FileSize: f.ContentLength,
		})
	}
	return info, nil
}

func (y *YouTube) Download(ctx context.Context, url, formatID, destDir string, fn ProgressFunc) (string, error) {
	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadFormat, formatID)
	}

	var selected *youtube.Format
	formats := usableFormats(video)
	for i := range formats {
		if formats[i].ItagNo == itag {
			selected = &formats[i]
			break
		}
	}
	if selected == nil {
		return "", fmt.Errorf("%w: %s", ErrBadFormat, formatID)
	}

	stream, size, err := y.client.GetStreamContext(ctx, video, selected)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer stream.Close()

	filename := storage.SanitizeFilename(video.Author+"_"+video.Title, video.ID, "mp4")
	destPath := filepath.Join(destDir, filename)

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer out.Close()

	pw := newProgressWriter(out, size, fn)
	if _, err := io.Copy(pw, stream); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	return filename, nil
}

// usableFormats returns mp4 formats with an audio track, best quality first.
// One format per quality label; formats with audio win over muted ones.
func usableFormats(video *youtube.Video) []youtube.Format {
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		formats = video.Formats
	}

	byLabel := make(map[string]youtube.Format)
	for _, f := range formats {
		if !strings.Contains(f.MimeType, "video/mp4") {
			continue
		}
		if f.QualityLabel == "" {
			continue
		}
		existing, ok := byLabel[f.QualityLabel]
		if ok && existing.AudioChannels > 0 && f.AudioChannels == 0 {
			continue
		}
		byLabel[f.QualityLabel] = f
	}

	result := make([]youtube.Format, 0, len(byLabel))
	for _, f := range byLabel {
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Height != result[j].Height {
			return result[i].Height > result[j].Height
		}
		return result[i].Bitrate > result[j].Bitrate
	})
	return result
}
