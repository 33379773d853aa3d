package resource_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/p-n-ai/learnly/internal/resource"
)

const longDescription = "A complete walkthrough of the language fundamentals with runnable examples."

func youtubeServer(t *testing.T, videos []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			q := r.URL.Query()
			if q.Get("type") != "video" || q.Get("videoDuration") != "medium" || q.Get("order") != "relevance" {
				t.Errorf("unexpected search params: %s", r.URL.RawQuery)
			}
			items := make([]map[string]any, 0, len(videos))
			for _, v := range videos {
				items = append(items, map[string]any{"id": map[string]any{"kind": "youtube#video", "videoId": v["id"]}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		case strings.HasSuffix(r.URL.Path, "/videos"):
			// Answer in reverse to check that search order is preserved.
			items := make([]map[string]any, 0, len(videos))
			for i := len(videos) - 1; i >= 0; i-- {
				items = append(items, videos[i])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func video(id, title, desc, views, likes, duration string) map[string]any {
	return map[string]any{
		"id":             id,
		"snippet":        map[string]any{"title": title, "description": desc, "channelTitle": "Chan"},
		"contentDetails": map[string]any{"duration": duration},
		"statistics":     map[string]any{"viewCount": views, "likeCount": likes},
	}
}

func newYouTube(t *testing.T, srv *httptest.Server, opts ...resource.YouTubeOption) *resource.YouTubeClient {
	t.Helper()
	opts = append(opts, resource.WithClientOptions(
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	))
	c, err := resource.NewYouTubeClient(context.Background(), "test-key", opts...)
	if err != nil {
		t.Fatalf("NewYouTubeClient() error = %v", err)
	}
	return c
}

func TestYouTubeClient_Search(t *testing.T) {
	srv := youtubeServer(t, []map[string]any{
		video("good1", "Go Tutorial for Beginners", longDescription, "150000", "4000", "PT12M3S"),
		video("shorts", "Go in 60s #shorts", longDescription, "150000", "4000", "PT59S"),
		video("unpopular", "Go basics", longDescription, "12", "1", "PT20M"),
		video("terse", "Go crash course", "short", "90000", "900", "PT30M"),
		video("good2", "Concurrency in Go", longDescription, "5000", "50", "PT1H5M"),
	})
	defer srv.Close()

	got, err := newYouTube(t, srv).Search(context.Background(), "go tutorial", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d videos, want 2 after quality filter: %+v", len(got), got)
	}
	if got[0].URL != "https://www.youtube.com/watch?v=good1" || got[1].URL != "https://www.youtube.com/watch?v=good2" {
		t.Errorf("URLs = %q, %q", got[0].URL, got[1].URL)
	}
	if got[0].Duration != "12 min" || got[1].Duration != "1 hr 5 min" {
		t.Errorf("durations = %q, %q", got[0].Duration, got[1].Duration)
	}
	if got[0].Kind != resource.KindVideo || got[0].Source != "YouTube · Chan" {
		t.Errorf("resource = %+v", got[0])
	}
}

func TestYouTubeClient_WithoutQualityFilter(t *testing.T) {
	srv := youtubeServer(t, []map[string]any{
		video("a", "Go #shorts", "x", "1", "0", "PT30S"),
	})
	defer srv.Close()

	got, err := newYouTube(t, srv, resource.WithoutQualityFilter()).Search(context.Background(), "go", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Duration != "30 sec" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestYouTubeClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	}))
	defer srv.Close()

	c := newYouTube(t, srv)
	if _, err := c.Search(context.Background(), "go", 5); err == nil {
		t.Fatal("Search() should fail on API error")
	}

	// Through BestEffort the failure becomes an empty, degraded result.
	res, degraded := resource.BestEffort(context.Background(), c, "go", 5)
	if !degraded || len(res) != 0 {
		t.Errorf("BestEffort() = %v, %v; want empty and degraded", res, degraded)
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"PT12M3S", 12*time.Minute + 3*time.Second, false},
		{"PT1H", time.Hour, false},
		{"PT45S", 45 * time.Second, false},
		{"P1DT2H", 26 * time.Hour, false},
		{"PT", 0, true},
		{"12:03", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := resource.ParseISODuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseISODuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseISODuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45 sec"},
		{12*time.Minute + 3*time.Second, "12 min"},
		{time.Hour, "1 hr"},
		{time.Hour + 5*time.Minute, "1 hr 5 min"},
		{2*time.Hour + 59*time.Minute + 50*time.Second, "3 hr"},
	}
	for _, tt := range tests {
		if got := resource.FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
