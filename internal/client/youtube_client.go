package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/askvideo/api/internal/config"
)

// ErrVideoNotFound signals that the referenced video does not exist or is
// private/unavailable. Surfaced to the submission path, never to the worker.
var ErrVideoNotFound = errors.New("video not found or private")

// ErrInvalidVideoURL signals that no video ID could be extracted from the
// submitted URL.
var ErrInvalidVideoURL = errors.New("invalid video URL")

// MetadataResolver resolves display metadata and duration for a video URL.
type MetadataResolver interface {
	ResolveVideo(ctx context.Context, videoURL string) (*VideoMetadata, error)
}

// VideoMetadata is the resolved metadata for a video. DurationSeconds is nil
// when the lookup path cannot determine it (oEmbed fallback).
type VideoMetadata struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	DurationSeconds *int64 `json:"durationSeconds,omitempty"`
}

// YouTubeClient resolves video metadata through the Data API v3 when an API
// key is configured, falling back to the public oEmbed endpoint otherwise.
// Successful lookups are cached in Redis.
type YouTubeClient struct {
	httpClient *http.Client
	redis      *redis.Client
	apiKey     string
	apiBaseURL string
	oembedURL  string
}

const metadataCacheTTL = 24 * time.Hour

// NewYouTubeClient creates a new metadata resolver. redisClient may be nil,
// in which case caching is disabled.
func NewYouTubeClient(cfg *config.YouTubeConfig, redisClient *redis.Client) *YouTubeClient {
	return &YouTubeClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		redis:      redisClient,
		apiKey:     cfg.APIKey,
		apiBaseURL: cfg.APIBaseURL,
		oembedURL:  cfg.OEmbedURL,
	}
}

// ResolveVideo extracts the video ID from the URL and resolves its metadata.
func (c *YouTubeClient) ResolveVideo(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	if meta := c.cacheGet(ctx, videoID); meta != nil {
		return meta, nil
	}

	var meta *VideoMetadata
	if c.apiKey != "" {
		meta, err = c.resolveViaDataAPI(ctx, videoID)
	} else {
		meta, err = c.resolveViaOEmbed(ctx, videoID)
	}
	if err != nil {
		return nil, err
	}

	c.cacheSet(ctx, videoID, meta)
	return meta, nil
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID pulls the 11-character video ID out of the common YouTube
// URL forms (watch, youtu.be, shorts, embed, live).
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVideoURL, err)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.TrimPrefix(u.Path, "/live/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	id = strings.TrimSuffix(id, "/")
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: could not extract video ID from %q", ErrInvalidVideoURL, rawURL)
	}
	return id, nil
}

// videosListResponse is the Data API videos.list response
type videosListResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *YouTubeClient) resolveViaDataAPI(ctx context.Context, videoID string) (*VideoMetadata, error) {
	endpoint := fmt.Sprintf("%s/videos?part=snippet,contentDetails&id=%s&key=%s",
		c.apiBaseURL, url.QueryEscape(videoID), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var listResp videosListResponse
	if err := json.Unmarshal(respBody, &listResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(listResp.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := listResp.Items[0]
	meta := &VideoMetadata{
		ID:      videoID,
		Title:   item.Snippet.Title,
		Channel: item.Snippet.ChannelTitle,
	}
	if seconds, err := parseISO8601Duration(item.ContentDetails.Duration); err == nil {
		meta.DurationSeconds = &seconds
	}
	return meta, nil
}

// oembedResponse is the subset of the oEmbed payload we care about
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (c *YouTubeClient) resolveViaOEmbed(ctx context.Context, videoID string) (*VideoMetadata, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	endpoint := fmt.Sprintf("%s?url=%s&format=json", c.oembedURL, url.QueryEscape(watchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// oEmbed answers 400/401/404 for private, removed, or nonexistent videos.
	if resp.StatusCode != http.StatusOK {
		return nil, ErrVideoNotFound
	}

	var oembed oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}

	return &VideoMetadata{
		ID:      videoID,
		Title:   oembed.Title,
		Channel: oembed.AuthorName,
	}, nil
}

var iso8601DurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISO8601Duration converts the Data API duration format (PT1H2M3S) to
// seconds.
func parseISO8601Duration(s string) (int64, error) {
	m := iso8601DurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unsupported duration format %q", s)
	}
	var total int64
	units := []int64{86400, 3600, 60, 1}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, err
		}
		total += n * unit
	}
	return total, nil
}

func (c *YouTubeClient) cacheGet(ctx context.Context, videoID string) *VideoMetadata {
	if c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, "ytmeta:"+videoID).Bytes()
	if err != nil {
		return nil
	}
	var meta VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}

func (c *YouTubeClient) cacheSet(ctx context.Context, videoID string, meta *VideoMetadata) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, "ytmeta:"+videoID, data, metadataCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache video metadata: %v", err)
	}
}
