package resource

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// Quality thresholds for YouTube results.
const (
	minViews             = 1000
	minLikes             = 10
	minDescriptionLength = 50
)

// YouTubeClient searches YouTube Data API v3 for medium-length tutorial videos.
type YouTubeClient struct {
	svc           *youtube.Service
	qualityFilter bool
	timeout       time.Duration
}

// YouTubeOption configures a YouTubeClient.
type YouTubeOption func(*youtubeSettings)

type youtubeSettings struct {
	clientOpts    []option.ClientOption
	qualityFilter bool
	timeout       time.Duration
}

// WithClientOptions passes extra options to the generated API client, e.g.
// option.WithEndpoint in tests.
func WithClientOptions(opts ...option.ClientOption) YouTubeOption {
	return func(s *youtubeSettings) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithoutQualityFilter keeps every hit regardless of views, likes or description.
func WithoutQualityFilter() YouTubeOption {
	return func(s *youtubeSettings) {
		s.qualityFilter = false
	}
}

// WithSearchTimeout bounds each Search call.
func WithSearchTimeout(d time.Duration) YouTubeOption {
	return func(s *youtubeSettings) {
		s.timeout = d
	}
}

// NewYouTubeClient creates a client authenticated with an API key.
func NewYouTubeClient(ctx context.Context, apiKey string, opts ...YouTubeOption) (*YouTubeClient, error) {
	s := youtubeSettings{qualityFilter: true, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&s)
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, s.clientOpts...)
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeClient{svc: svc, qualityFilter: s.qualityFilter, timeout: s.timeout}, nil
}

func (c *YouTubeClient) Search(ctx context.Context, query string, limit int) ([]Resource, error) {
	if limit <= 0 {
		return nil, nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	search, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoDuration("medium").
		Order("relevance").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := c.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube video details: %w", err)
	}

	// videos.list does not promise search order.
	byID := make(map[string]*youtube.Video, len(videos.Items))
	for _, v := range videos.Items {
		byID[v.Id] = v
	}

	out := make([]Resource, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok || v.Snippet == nil {
			continue
		}
		if c.qualityFilter && !passesQuality(v) {
			continue
		}
		r := Resource{
			Kind:        KindVideo,
			Title:       v.Snippet.Title,
			URL:         youtubeWatchURL + id,
			Description: v.Snippet.Description,
			Source:      "YouTube · " + v.Snippet.ChannelTitle,
		}
		if v.ContentDetails != nil {
			if d, err := ParseISODuration(v.ContentDetails.Duration); err == nil {
				r.Duration = FormatDuration(d)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func passesQuality(v *youtube.Video) bool {
	if v.Statistics == nil {
		return false
	}
	return v.Statistics.ViewCount > minViews &&
		v.Statistics.LikeCount > minLikes &&
		!strings.Contains(strings.ToLower(v.Snippet.Title), "shorts") &&
		len(v.Snippet.Description) > minDescriptionLength
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration parses the ISO 8601 durations YouTube returns, e.g. "PT1H2M3S".
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, u := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		d += time.Duration(n) * u
	}
	return d, nil
}

// FormatDuration renders a video length for display: "45 sec", "12 min", "1 hr 5 min".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d sec", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d min", int(d.Round(time.Minute).Minutes()))
	}
	h := int(d.Hours())
	m := int((d - time.Duration(h)*time.Hour).Round(time.Minute).Minutes())
	if m == 60 {
		h, m = h+1, 0
	}
	if m == 0 {
		return fmt.Sprintf("%d hr", h)
	}
	return fmt.Sprintf("%d hr %d min", h, m)
}
