package resource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/learnly/internal/resource"
)

var (
	videoA = resource.Resource{Kind: resource.KindVideo, Title: "Go tutorial", URL: "https://youtu.be/a"}
	readB  = resource.Resource{Kind: resource.KindArticle, Title: "Effective Go", URL: "https://go.dev/doc/effective_go"}
	doC    = resource.Resource{Kind: resource.KindPractice, Title: "Go tour", URL: "https://go.dev/tour"}
)

func failing(err error) resource.Client {
	return resource.ClientFunc(func(context.Context, string, int) ([]resource.Resource, error) {
		return nil, err
	})
}

func TestBestEffort(t *testing.T) {
	tests := []struct {
		name         string
		client       resource.Client
		want         []resource.Resource
		wantDegraded bool
	}{
		{"results", resource.Static{videoA, readB}, []resource.Resource{videoA, readB}, false},
		{"empty is not degraded", resource.Static{}, []resource.Resource{}, false},
		{"failure degrades", failing(errors.New("quota exceeded")), nil, true},
		{"nil client", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, degraded := resource.BestEffort(context.Background(), tt.client, "go tutorial", 20)
			if degraded != tt.wantDegraded {
				t.Errorf("degraded = %v, want %v", degraded, tt.wantDegraded)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resources mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStatic_Limit(t *testing.T) {
	got, err := resource.Static{videoA, readB, doC}.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[1] != readB {
		t.Errorf("Search() = %+v, want first two", got)
	}
}

func TestMulti(t *testing.T) {
	t.Run("concatenates in client order", func(t *testing.T) {
		m := resource.Multi{resource.Static{videoA}, resource.Static{readB, doC}}
		got, err := m.Search(context.Background(), "q", 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if diff := cmp.Diff([]resource.Resource{videoA, readB, doC}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("partial failure is tolerated", func(t *testing.T) {
		m := resource.Multi{failing(errors.New("down")), resource.Static{doC}}
		got, err := m.Search(context.Background(), "q", 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0] != doC {
			t.Errorf("Search() = %+v", got)
		}
	})

	t.Run("all failing errors", func(t *testing.T) {
		first := errors.New("first down")
		m := resource.Multi{failing(first), failing(errors.New("second down"))}
		if _, err := m.Search(context.Background(), "q", 10); !errors.Is(err, first) {
			t.Errorf("Search() error = %v, want joined errors", err)
		}
	})
}

func TestParseKind(t *testing.T) {
	tests := map[string]resource.Kind{
		"video":       resource.KindVideo,
		"watch":       resource.KindVideo,
		"practice":    resource.KindPractice,
		"interactive": resource.KindPractice,
		"article":     resource.KindArticle,
		"course":      resource.KindArticle,
		"":            resource.KindArticle,
	}
	for in, want := range tests {
		if got := resource.ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}
