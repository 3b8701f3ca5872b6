package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/twgrab/internal/storage"
)

var tweetURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?twitter\.com/\w+/status/(\d+)`),
	regexp.MustCompile(`^https?://(?:www\.)?x\.com/\w+/status/(\d+)`),
}

var shortTweetURL = regexp.MustCompile(`^https?://t\.co/\w+`)

var resolutionPattern = regexp.MustCompile(`/(\d+)x(\d+)/`)

// Twitter extracts videos from tweets through the public syndication endpoint.
type Twitter struct {
	client  *http.Client
	apiBase string
}

// NewTwitter creates a Twitter/X extractor.
func NewTwitter() *Twitter {
	return &Twitter{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiBase: "https://cdn.syndication.twimg.com/tweet-result",
	}
}

func (t *Twitter) Name() string { return "twitter" }

func (t *Twitter) Match(url string) bool {
	for _, p := range tweetURLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return shortTweetURL.MatchString(url)
}

// syndication response, trimmed to the fields we use
type syndicationTweet struct {
	Text string `json:"text"`
	User struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	Video struct {
		Poster string `json:"poster"`
	} `json:"video"`
	MediaDetails []struct {
		Type          string `json:"type"`
		MediaURLHTTPS string `json:"media_url_https"`
		VideoInfo     struct {
			DurationMillis int `json:"duration_millis"`
			Variants       []struct {
				Bitrate     int    `json:"bitrate"`
				ContentType string `json:"content_type"`
				URL         string `json:"url"`
			} `json:"variants"`
		} `json:"video_info"`
	} `json:"mediaDetails"`
}

// mp4Variant is one downloadable rendition of a tweet video.
type mp4Variant struct {
	url     string
	bitrate int
	width   int
	height  int
}

func (t *Twitter) GetInfo(ctx context.Context, url string) (*VideoInfo, error) {
	tweet, err := t.fetchTweet(ctx, url)
	if err != nil {
		return nil, err
	}

	variants := tweetVariants(tweet)
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: tweet has no video media", ErrNoVideo)
	}

	info := &VideoInfo{
		Title:     tweetTitle(tweet),
		Uploader:  tweet.User.Name,
		Thumbnail: tweetThumbnail(tweet),
		Qualities: make([]Quality, 0, len(variants)),
	}
	for _, m := range tweet.MediaDetails {
		if m.Type == "video" {
			info.Duration = m.VideoInfo.DurationMillis / 1000
			break
		}
	}

	for _, v := range variants {
		info.Qualities = append(info.Qualities, Quality{
			Label:    variantLabel(v),
			FormatID: variantFormatID(v),
			Ext:      "mp4",
			Width:    v.width,
			Height:   v.height,
			Bitrate:  v.bitrate,
		})
	}
	return info, nil
}

func (t *Twitter) Download(ctx context.Context, url, formatID, destDir string, fn ProgressFunc) (string, error) {
	tweet, err := t.fetchTweet(ctx, url)
	if err != nil {
		return "", err
	}

	variants := tweetVariants(tweet)
	if len(variants) == 0 {
		return "", fmt.Errorf("%w: tweet has no video media", ErrNoVideo)
	}

	var selected *mp4Variant
	for i := range variants {
		if variantFormatID(variants[i]) == formatID {
			selected = &variants[i]
			break
		}
	}
	if selected == nil {
		return "", fmt.Errorf("%w: %s", ErrBadFormat, formatID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, selected.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: media returned status %d", ErrDownload, resp.StatusCode)
	}

	filename := storage.SanitizeFilename(
		tweet.User.ScreenName+"_"+tweetTitle(tweet), tweetID(url), "mp4")
	destPath := filepath.Join(destDir, filename)

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer out.Close()

	pw := newProgressWriter(out, resp.ContentLength, fn)
	if _, err := io.Copy(pw, resp.Body); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	return filename, nil
}

// fetchTweet resolves the tweet id and queries the syndication endpoint.
func (t *Twitter) fetchTweet(ctx context.Context, url string) (*syndicationTweet, error) {
	id := tweetID(url)
	if id == "" {
		resolved, err := t.resolveShortURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		if id = tweetID(resolved); id == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
		}
	}

	endpoint := fmt.Sprintf("%s?id=%s&token=%s&lang=en", t.apiBase, id, syndicationToken(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: tweet not found, it might have been deleted", ErrExtraction)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: syndication endpoint returned status %d", ErrExtraction, resp.StatusCode)
	}

	var tweet syndicationTweet
	if err := json.NewDecoder(resp.Body).Decode(&tweet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return &tweet, nil
}

// resolveShortURL follows t.co redirects to the canonical tweet URL.
func (t *Twitter) resolveShortURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Request.URL.String(), nil
}

func tweetID(url string) string {
	for _, p := range tweetURLPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func tweetVariants(tweet *syndicationTweet) []mp4Variant {
	var variants []mp4Variant
	for _, m := range tweet.MediaDetails {
		if m.Type != "video" {
			continue
		}
		for _, v := range m.VideoInfo.Variants {
			if v.ContentType != "video/mp4" {
				continue
			}
			mv := mp4Variant{url: v.URL, bitrate: v.Bitrate}
			if res := resolutionPattern.FindStringSubmatch(v.URL); res != nil {
				mv.width, _ = strconv.Atoi(res[1])
				mv.height, _ = strconv.Atoi(res[2])
			}
			variants = append(variants, mv)
		}
		break // first video only, as the source service did
	}

	sort.Slice(variants, func(i, j int) bool {
		if variants[i].height != variants[j].height {
			return variants[i].height > variants[j].height
		}
		return variants[i].bitrate > variants[j].bitrate
	})
	return variants
}

func variantLabel(v mp4Variant) string {
	if v.height > 0 {
		return fmt.Sprintf("%dp", v.height)
	}
	return fmt.Sprintf("%dkbps", v.bitrate/1000)
}

func variantFormatID(v mp4Variant) string {
	return fmt.Sprintf("mp4-%d", v.bitrate)
}

func tweetTitle(tweet *syndicationTweet) string {
	title := strings.TrimSpace(tweet.Text)
	if idx := strings.IndexAny(title, "\n"); idx > 0 {
		title = title[:idx]
	}
	if title == "" {
		title = "twitter_video"
	}
	return title
}

func tweetThumbnail(tweet *syndicationTweet) string {
	if tweet.Video.Poster != "" {
		return tweet.Video.Poster
	}
	for _, m := range tweet.MediaDetails {
		if m.Type == "video" {
			return m.MediaURLHTTPS
		}
	}
	return ""
}

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// syndicationToken derives the access token the syndication endpoint expects
// from the numeric tweet id: (id / 1e15 * pi) in base 36 with zeros and the
// radix point stripped.
func syndicationToken(id string) string {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return ""
	}
	v := n / 1e15 * math.Pi

	intPart := int64(v)
	s := strconv.FormatInt(intPart, 36)

	frac := v - float64(intPart)
	for i := 0; i < 8 && frac > 0; i++ {
		frac *= 36
		d := int(frac)
		s += string(base36Digits[d])
		frac -= float64(d)
	}

	return strings.ReplaceAll(s, "0", "")
}
