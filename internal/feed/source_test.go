package feed_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/armystay/hotels/internal/feed"
)

func TestHTTPSource_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantItems int
		wantErr   bool
		wantUnav  bool
	}{
		{
			name:      "recommendations",
			status:    http.StatusOK,
			body:      `{"top_recommendations":[{"id":"1"},{"id":"2"}]}`,
			wantItems: 2,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     "boom",
			wantErr:  true,
			wantUnav: true,
		},
		{
			name:    "bad json",
			status:  http.StatusOK,
			body:    "{not json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("t")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := feed.NewHTTPSource("test", srv.URL+"/concert_recommendations.json", time.Second)
			doc, err := src.Fetch(context.Background())

			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantUnav && !errors.Is(err, feed.ErrUnavailable) {
				t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
			}
			if gotQuery == "" {
				t.Error("request carried no cache-busting parameter")
			}
			if !tt.wantErr && len(doc.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(doc.Items), tt.wantItems)
			}
		})
	}
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := feed.NewHTTPSource("gone", url, time.Second).Fetch(context.Background())
	if !errors.Is(err, feed.ErrUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
	}
}

type failingSource struct {
	calls atomic.Int32
}

func (s *failingSource) Name() string { return "failing" }

func (s *failingSource) Fetch(context.Context) (*feed.Document, error) {
	s.calls.Add(1)
	return nil, feed.ErrUnavailable
}

func TestBreakerSource_Opens(t *testing.T) {
	src := &failingSource{}
	var transitions []gobreaker.State

	b := feed.NewBreakerSource(src, feed.BreakerSettings{
		Failures: 2,
		Timeout:  time.Minute,
		OnStateChange: func(_ string, _, to gobreaker.State) {
			transitions = append(transitions, to)
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 2; i++ {
		if _, err := b.Fetch(context.Background()); !errors.Is(err, feed.ErrUnavailable) {
			t.Fatalf("Fetch() #%d error = %v, want ErrUnavailable", i, err)
		}
	}

	if _, err := b.Fetch(context.Background()); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Fetch() error = %v, want ErrOpenState", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2", got)
	}
	if b.State() != gobreaker.StateOpen {
		t.Errorf("State() = %v, want open", b.State())
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestBreakerSource_PassesThrough(t *testing.T) {
	doc := feed.Bundled()
	b := feed.NewBreakerSource(feed.NewStaticSource("static", doc), feed.BreakerSettings{Failures: 1, Timeout: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != doc {
		t.Error("Fetch() returned a different document")
	}
	if b.Name() != "static" {
		t.Errorf("Name() = %q, want static", b.Name())
	}
}
