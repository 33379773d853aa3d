package resource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/resource"
)

func TestSuggestionClient_Search(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		limit     int
		wantCount int
		wantKinds []resource.Kind
	}{
		{
			name: "wrapped object",
			response: `{"resources":[
				{"type":"article","title":"Effective Go","url":"https://go.dev/doc/effective_go"},
				{"type":"practice","title":"Exercism Go","url":"https://exercism.org/tracks/go","source":"Exercism"}
			]}`,
			limit:     5,
			wantCount: 2,
			wantKinds: []resource.Kind{resource.KindArticle, resource.KindPractice},
		},
		{
			name:      "bare array in prose",
			response:  `Sure! [{"type":"documentation","title":"Go spec","url":"https://go.dev/ref/spec"}] Happy learning.`,
			limit:     5,
			wantCount: 1,
			wantKinds: []resource.Kind{resource.KindArticle},
		},
		{
			name: "drops entries without url or title and honours limit",
			response: `{"resources":[
				{"type":"article","title":"","url":"https://a"},
				{"type":"article","title":"No link","url":"n/a"},
				{"type":"video","title":"One","url":"https://one"},
				{"type":"video","title":"Two","url":"https://two"}
			]}`,
			limit:     1,
			wantCount: 1,
			wantKinds: []resource.Kind{resource.KindVideo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := ai.NewMockProvider(tt.response)
			got, err := resource.NewSuggestionClient(mock).Search(context.Background(), "Go tutorial", tt.limit)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("Search() = %d resources, want %d: %+v", len(got), tt.wantCount, got)
			}
			for i, k := range tt.wantKinds {
				if got[i].Kind != k {
					t.Errorf("resource %d kind = %q, want %q", i, got[i].Kind, k)
				}
			}
			if mock.LastRequest.Task != ai.TaskResources || !mock.LastRequest.JSON {
				t.Errorf("request = %+v, want resources task in JSON mode", mock.LastRequest)
			}
		})
	}
}

func TestSuggestionClient_Errors(t *testing.T) {
	if _, err := resource.NewSuggestionClient(ai.NewMockProvider("I can't help with that.")).
		Search(context.Background(), "Go", 5); err == nil {
		t.Error("Search() should fail when no JSON is returned")
	}

	boom := errors.New("provider down")
	if _, err := resource.NewSuggestionClient(&ai.MockProvider{Err: boom}).
		Search(context.Background(), "Go", 5); !errors.Is(err, boom) {
		t.Errorf("Search() error = %v, want wrapped provider error", err)
	}
}
