package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func lrclibHandler(t *testing.T, calls *int32, byDuration map[string]lrclibTrack) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		track, ok := byDuration[r.URL.Query().Get("duration")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(track)
	}
}

func TestSource_SyncedFromPrimary(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(lrclibHandler(t, &calls, map[string]lrclibTrack{
		"180": {SyncedLyrics: "[00:10.00]Hello world\n[00:13.00]Next"},
	}))
	defer srv.Close()

	src := NewSource(NewLRCLibClient(srv.URL), nil, nil)
	defer src.Close()

	doc, err := src.Lookup(context.Background(), "Artist", "Title", 180000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !doc.Synced {
		t.Error("expected synced document")
	}
	if len(doc.Lines) != 2 {
		t.Errorf("got %d lines, want 2", len(doc.Lines))
	}
}

func TestSource_RetriesWithoutDuration(t *testing.T) {
	var calls int32
	// Only the duration-less query matches.
	srv := httptest.NewServer(lrclibHandler(t, &calls, map[string]lrclibTrack{
		"": {SyncedLyrics: "[00:10.00]Found without duration"},
	}))
	defer srv.Close()

	src := NewSource(NewLRCLibClient(srv.URL), nil, nil)
	defer src.Close()

	doc, err := src.Lookup(context.Background(), "Artist", "Title", 200000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.Empty() {
		t.Fatal("got empty document")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("provider called %d times, want 2 (with then without duration)", n)
	}
}

func TestSource_PlainTextFallback(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(lrclibHandler(t, &calls, map[string]lrclibTrack{
		"60": {PlainLyrics: "Just plain text\nSecond line"},
	}))
	defer srv.Close()

	src := NewSource(NewLRCLibClient(srv.URL), nil, nil)
	defer src.Close()

	doc, err := src.Lookup(context.Background(), "Artist", "Title", 60000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.Synced {
		t.Error("plain-only lyrics marked synced")
	}
	if len(doc.Lines) != 2 {
		t.Errorf("got %d lines, want 2", len(doc.Lines))
	}
}

func TestSource_SecondaryProviderFallback(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch r.URL.Path {
		case "/track.search":
			body = `{"track_list":[{"track":{"track_id":77,"track_name":"Title"}}]}`
		case "/track.lyrics.get":
			if r.URL.Query().Get("track_id") != "77" {
				t.Errorf("lyrics fetched for track %q, want 77", r.URL.Query().Get("track_id"))
			}
			body = `{"lyrics":{"lyrics_body":"Secondary lyric line"}}`
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"message":{"header":{"status_code":200},"body":` + body + `}}`))
	}))
	defer secondary.Close()

	src := NewSource(
		NewLRCLibClient(primary.URL),
		NewMusixmatchClient("test-key", secondary.URL),
		nil,
	)
	defer src.Close()

	doc, err := src.Lookup(context.Background(), "Artist", "Title", 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.Empty() || doc.Lines[0].Text != "Secondary lyric line" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestSource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := NewSource(NewLRCLibClient(srv.URL), nil, nil)
	defer src.Close()

	if _, err := src.Lookup(context.Background(), "Nobody", "Nothing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSource_CachesBySessionLifetime(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(lrclibHandler(t, &calls, map[string]lrclibTrack{
		"": {SyncedLyrics: "[00:10.00]Cached line"},
	}))
	defer srv.Close()

	src := NewSource(NewLRCLibClient(srv.URL), nil, nil)
	defer src.Close()

	for i := 0; i < 3; i++ {
		// Case-insensitive key: mixed casing must share one entry.
		if _, err := src.Lookup(context.Background(), "ARTist", "TItle", 0); err != nil {
			t.Fatalf("Lookup %d failed: %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}

	src.ClearCache()
	if _, err := src.Lookup(context.Background(), "Artist", "Title", 0); err != nil {
		t.Fatalf("Lookup after ClearCache failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("provider called %d times after clear, want 2", n)
	}
}

func TestMusixmatchClient_NoKeyDisabled(t *testing.T) {
	if c := NewMusixmatchClient("", ""); c != nil {
		t.Error("client constructed without an API key; provider must stay opt-in")
	}
}
