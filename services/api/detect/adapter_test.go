package detect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_ProbeDecidesMode(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer healthy.Close()

	adapter := New(context.Background(), Options{
		BaseURL:       healthy.URL,
		ProbeTimeout:  time.Second,
		DetectTimeout: time.Second,
		Confidence:    0.25,
		IoU:           0.45,
	})
	require.Equal(t, ModeRemote, adapter.Mode())
}

func TestNew_UnreachableServerPinsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	adapter := New(context.Background(), Options{
		BaseURL:       srv.URL,
		ProbeTimeout:  time.Second,
		DetectTimeout: time.Second,
	})
	require.Equal(t, ModeFallback, adapter.Mode())
}

func TestNew_EmptyURLSkipsProbe(t *testing.T) {
	adapter := New(context.Background(), Options{ProbeTimeout: time.Second, DetectTimeout: time.Second})
	require.Equal(t, ModeFallback, adapter.Mode())
}

func TestAdapter_RemoteFailureFallsBackPerCall(t *testing.T) {
	// Healthy at probe time, broken afterwards.
	var probed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			probed.Store(true)
			w.Write([]byte(`{"status": "healthy"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := New(context.Background(), Options{
		BaseURL:       srv.URL,
		ProbeTimeout:  time.Second,
		DetectTimeout: time.Second,
	})
	require.True(t, probed.Load())
	require.Equal(t, ModeRemote, adapter.Mode())

	detections := adapter.Detect(context.Background(), []byte("img"), 640, 640)
	require.GreaterOrEqual(t, len(detections), 15)
	require.LessOrEqual(t, len(detections), 40)

	// The cached mode is not re-validated by a failed call.
	require.Equal(t, ModeRemote, adapter.Mode())
}

func TestAdapter_FallbackModeNeverDialsRemote(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(&http.Client{Timeout: time.Second}, srv.URL, 0.25, 0.45)
	adapter := NewWithMode(ModeFallback, client, NewGenerator(11))

	detections := adapter.Detect(context.Background(), []byte("img"), 640, 640)
	require.NotEmpty(t, detections)
	require.Zero(t, calls.Load())
}

func TestAdapter_RemoteModeUsesServerResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "detections": [{"class": "good", "confidence": 0.9, "bbox": {"x1": 1, "y1": 1, "width": 5, "height": 5}}]}`))
	}))
	defer srv.Close()

	client := NewClient(&http.Client{Timeout: time.Second}, srv.URL, 0.25, 0.45)
	adapter := NewWithMode(ModeRemote, client, NewGenerator(11))

	detections := adapter.Detect(context.Background(), []byte("img"), 640, 640)
	require.Len(t, detections, 1)
}
