package detect

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/agrovision/grainloss/services/api/models"
)

// Mode selects the detection source for the session.
type Mode string

const (
	// ModeRemote forwards images to the inference server.
	ModeRemote Mode = "remote"
	// ModeFallback serves synthetic detections without touching the network.
	ModeFallback Mode = "fallback"
)

// Adapter normalizes detections from either the remote inference server or
// the synthetic generator into the canonical detection list. The mode is
// decided once, by the construction-time reachability probe, and is not
// re-validated afterwards: a remote call that still fails falls back
// per-call regardless of the cached mode.
type Adapter struct {
	mode      Mode
	client    *Client
	generator *Generator
}

// Options configures New.
type Options struct {
	BaseURL       string
	ProbeTimeout  time.Duration
	DetectTimeout time.Duration
	Confidence    float64
	IoU           float64
	GeneratorSeed int64
}

// New probes the inference server once and returns an adapter pinned to the
// probed mode. An empty BaseURL skips the probe entirely and pins fallback
// mode.
func New(ctx context.Context, opts Options) *Adapter {
	a := &Adapter{
		mode:      ModeFallback,
		generator: NewGenerator(opts.GeneratorSeed),
	}

	if opts.BaseURL == "" {
		log.Printf("detect: no inference URL configured, using fallback mode")
		return a
	}

	a.client = NewClient(&http.Client{Timeout: opts.DetectTimeout}, opts.BaseURL, opts.Confidence, opts.IoU)

	probeCtx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
	defer cancel()

	if err := a.client.Ping(probeCtx); err != nil {
		log.Printf("detect: inference server unreachable, using fallback mode: %v", err)
		return a
	}

	a.mode = ModeRemote
	log.Printf("detect: inference server reachable at %s", opts.BaseURL)
	return a
}

// NewWithMode builds an adapter pinned to an explicit mode. Used by tests and
// by callers that already know the server state.
func NewWithMode(mode Mode, client *Client, generator *Generator) *Adapter {
	return &Adapter{mode: mode, client: client, generator: generator}
}

// Mode reports the cached session mode.
func (a *Adapter) Mode() Mode {
	return a.mode
}

// Detect returns the detection list for one image. Inference failure is
// recovered locally by the generator and never propagates to the caller:
// availability wins over accuracy here so the analysis flow keeps working
// offline. Width and height bound the synthetic boxes when the fallback
// path runs.
func (a *Adapter) Detect(ctx context.Context, image []byte, width, height int) []models.Detection {
	if a.mode == ModeRemote && a.client != nil {
		detections, err := a.client.Detect(ctx, image)
		if err == nil {
			return detections
		}
		log.Printf("detect: remote call failed, falling back to synthetic detections: %v", err)
	}
	return a.generator.Generate(width, height)
}
