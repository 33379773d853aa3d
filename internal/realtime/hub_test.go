package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/realtime"
)

func TestHub_StreamsDeltas(t *testing.T) {
	hub := realtime.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("learner"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?learner=ana"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	waitFor(t, func() bool { return hub.Subscribers("ana") == 1 })

	hub.Publish("ben", progress.Delta{LearnerID: "ben", XPGained: 1})
	hub.Publish("ana", progress.Delta{LearnerID: "ana", XPGained: 50, TotalXP: 50})

	var got progress.Delta
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.LearnerID != "ana" || got.XPGained != 50 {
		t.Errorf("received %+v", got)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	waitFor(t, func() bool { return hub.Subscribers("ana") == 0 })
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := realtime.NewHub(realtime.WithBuffer(1))
	hub.Publish("nobody", progress.Delta{XPGained: 10})
	if hub.Subscribers("nobody") != 0 {
		t.Error("Publish should not create subscribers")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
