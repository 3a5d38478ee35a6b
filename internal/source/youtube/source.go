package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"video_importer/internal/domain"
)

const (
	SourceID   = "youtube"
	SourceName = "YouTube Data API v3"

	kindVideo = "youtube#video"
)

// Config holds YouTube source configuration.
type Config struct {
	BaseURL    string
	MaxResults int64
	Timeout    time.Duration
}

// Client lists channel uploads and fetches video details. The API key is
// supplied per call because it may change between runs.
type Client struct {
	transport  http.RoundTripper
	baseURL    string
	maxResults int64
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a new YouTube client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		transport:  http.DefaultTransport,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout,
		logger:     logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// ListRecent returns the newest uploads of the channel, newest first, in the
// order supplied by the API. Items that are not videos are logged and dropped.
func (c *Client) ListRecent(ctx context.Context, creds domain.Credentials) ([]domain.VideoCandidate, error) {
	svc, err := c.service(ctx, creds.APIKey)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Search.List([]string{"snippet", "id"}).
		ChannelId(creds.ChannelID).
		Order("date").
		MaxResults(c.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	c.logger.Debug("search response", "channel_id", creds.ChannelID, "items", len(resp.Items))

	candidates := make([]domain.VideoCandidate, 0, len(resp.Items))
	for i, item := range resp.Items {
		if item == nil || item.Id == nil {
			return nil, fmt.Errorf("%w: search item %d has no id", domain.ErrDecode, i)
		}
		if item.Id.Kind != kindVideo {
			c.logger.Info("item is not a video", "kind", item.Id.Kind, "position", i)
			continue
		}

		candidate, err := toCandidate(item)
		if err != nil {
			return nil, fmt.Errorf("search item %d: %w", i, err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// FetchDetail returns the long-form description of a single video.
func (c *Client) FetchDetail(ctx context.Context, apiKey, videoID string) (*domain.VideoDetail, error) {
	svc, err := c.service(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("videos: %w", err)
	}

	if len(resp.Items) == 0 || resp.Items[0] == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrVideoNotFound, videoID)
	}
	snippet := resp.Items[0].Snippet
	if snippet == nil {
		return nil, fmt.Errorf("%w: video %s has no snippet", domain.ErrDecode, videoID)
	}

	return &domain.VideoDetail{
		ID:          videoID,
		Description: snippet.Description,
	}, nil
}

func (c *Client) service(ctx context.Context, apiKey string) (*yt.Service, error) {
	httpClient := &http.Client{
		Timeout:   c.timeout,
		Transport: &transport.APIKey{Key: apiKey, Transport: c.transport},
	}

	svc, err := yt.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(c.baseURL),
		option.WithUserAgent("VideoImporter/1.0"),
	)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

func toCandidate(item *yt.SearchResult) (domain.VideoCandidate, error) {
	if item.Id.VideoId == "" {
		return domain.VideoCandidate{}, fmt.Errorf("%w: missing id.videoId", domain.ErrDecode)
	}
	s := item.Snippet
	if s == nil {
		return domain.VideoCandidate{}, fmt.Errorf("%w: video %s: missing snippet", domain.ErrDecode, item.Id.VideoId)
	}
	if s.Title == "" || s.PublishedAt == "" {
		return domain.VideoCandidate{}, fmt.Errorf("%w: video %s: missing title or publishedAt", domain.ErrDecode, item.Id.VideoId)
	}
	if s.Thumbnails == nil || s.Thumbnails.High == nil || s.Thumbnails.High.Url == "" {
		return domain.VideoCandidate{}, fmt.Errorf("%w: video %s: missing thumbnails.high.url", domain.ErrDecode, item.Id.VideoId)
	}

	return domain.VideoCandidate{
		ID:           item.Id.VideoId,
		Title:        s.Title,
		ThumbnailURL: s.Thumbnails.High.Url,
		PublishedAt:  s.PublishedAt,
	}, nil
}
