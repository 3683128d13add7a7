package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/agrovision/grainloss/services/api/models"
)

// remoteBBox matches the bbox object of the inference server response. The
// server also sends x2/y2 and center coordinates; only the origin and size
// are consumed.
type remoteBBox struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type remoteDetection struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       remoteBBox `json:"bbox"`
}

// detectResponse models the envelope returned by POST /detect. The server
// includes its own statistics block; it is ignored on purpose — the loss
// formula depends on local physical parameters the server does not know.
type detectResponse struct {
	Success    bool              `json:"success"`
	Detections []remoteDetection `json:"detections"`
}

// Client talks to the remote inference server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	confidence float64
	iou        float64
}

// NewClient builds an inference client. The http.Client must carry a bounded
// timeout; there is no per-call retry.
func NewClient(httpClient *http.Client, baseURL string, confidence, iou float64) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		confidence: confidence,
		iou:        iou,
	}
}

// Ping checks GET /health. A 2xx status marks the server reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe: unexpected status %s", resp.Status)
	}
	return nil
}

// Detect posts the image to /detect and returns the translated detection
// list. Any transport, status, or envelope problem is returned as an error;
// a response without success=true is treated as a total failure, never as a
// partial detection list.
func (c *Client) Detect(ctx context.Context, image []byte) ([]models.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "capture.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := writer.WriteField("confidence", strconv.FormatFloat(c.confidence, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("iou", strconv.FormatFloat(c.iou, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("detect request: unexpected status %s", resp.Status)
	}

	var payload detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode detect payload: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("detect request: server reported failure")
	}
	if payload.Detections == nil {
		return nil, fmt.Errorf("detect request: payload has no detections field")
	}

	detections := make([]models.Detection, 0, len(payload.Detections))
	for _, rd := range payload.Detections {
		detections = append(detections, models.Detection{
			Class:      TranslateClass(rd.Class),
			Confidence: rd.Confidence,
			BBox: models.BBox{
				X:      rd.BBox.X1,
				Y:      rd.BBox.Y1,
				Width:  rd.BBox.Width,
				Height: rd.BBox.Height,
			},
		})
	}
	return detections, nil
}

// TranslateClass maps the server's class names onto the canonical three-way
// classification. Unknown names count as impurity so no detection is ever
// dropped.
func TranslateClass(remote string) models.GrainClass {
	switch remote {
	case "good":
		return models.ClassHealthy
	case "bad":
		return models.ClassDamaged
	case "impurity":
		return models.ClassImpurity
	default:
		return models.ClassImpurity
	}
}
