package detect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrovision/grainloss/services/api/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&http.Client{Timeout: 2 * time.Second}, baseURL, 0.25, 0.45)
}

func TestClient_DetectTranslatesClasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		require.Equal(t, "0.25", r.FormValue("confidence"))
		require.Equal(t, "0.45", r.FormValue("iou"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"detections": [
				{"class": "good", "confidence": 0.91, "bbox": {"x1": 10, "y1": 20, "x2": 40, "y2": 50, "width": 30, "height": 30}},
				{"class": "bad", "confidence": 0.84, "bbox": {"x1": 5, "y1": 5, "width": 12, "height": 14}},
				{"class": "impurity", "confidence": 0.77, "bbox": {"x1": 0, "y1": 0, "width": 8, "height": 8}},
				{"class": "unknown_3", "confidence": 0.71, "bbox": {"x1": 1, "y1": 2, "width": 3, "height": 4}}
			],
			"statistics": {"total_grains": 4, "quality_grade": "D"}
		}`))
	}))
	defer srv.Close()

	detections, err := newTestClient(srv.URL).Detect(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, detections, 4)

	require.Equal(t, models.ClassHealthy, detections[0].Class)
	require.Equal(t, models.BBox{X: 10, Y: 20, Width: 30, Height: 30}, detections[0].BBox)
	require.Equal(t, models.ClassDamaged, detections[1].Class)
	require.Equal(t, models.ClassImpurity, detections[2].Class)
	// Unrecognized class names map to impurity instead of being dropped.
	require.Equal(t, models.ClassImpurity, detections[3].Class)
}

func TestClient_DetectFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": tru`))
			},
		},
		{
			name: "success flag false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": false, "detections": []}`))
			},
		},
		{
			name: "missing detections",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true}`))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"))
			require.Error(t, err)
		})
	}
}

func TestClient_DetectConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	_, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"))
	require.Error(t, err)
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).Ping(context.Background()))
}

func TestClient_PingUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	require.Error(t, newTestClient(srv.URL).Ping(context.Background()))
}
