package detect

import (
	"math/rand"

	"github.com/agrovision/grainloss/services/api/models"
)

// Synthetic generation bounds. The distribution roughly matches a typical
// post-harvest sample: half healthy grain, a third damaged, the rest impurity.
const (
	fallbackMinDetections = 15
	fallbackMaxDetections = 40
	fallbackMinConfidence = 0.7
	fallbackMinBoxSide    = 12
	fallbackMaxBoxSide    = 48
)

// Generator produces plausible detection lists when the inference server is
// unreachable, so an analysis never blocks on the network.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator. A fixed seed makes the output reproducible
// in tests.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns 15–40 synthetic detections with bounding boxes inside the
// width x height pixel space and confidence in [0.7, 1.0).
func (g *Generator) Generate(width, height int) []models.Detection {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 640
	}

	count := fallbackMinDetections + g.rng.Intn(fallbackMaxDetections-fallbackMinDetections+1)
	detections := make([]models.Detection, 0, count)

	for i := 0; i < count; i++ {
		boxW := float64(fallbackMinBoxSide + g.rng.Intn(fallbackMaxBoxSide-fallbackMinBoxSide+1))
		boxH := float64(fallbackMinBoxSide + g.rng.Intn(fallbackMaxBoxSide-fallbackMinBoxSide+1))
		if boxW > float64(width) {
			boxW = float64(width)
		}
		if boxH > float64(height) {
			boxH = float64(height)
		}

		detections = append(detections, models.Detection{
			Class:      g.pickClass(),
			Confidence: fallbackMinConfidence + g.rng.Float64()*(1.0-fallbackMinConfidence),
			BBox: models.BBox{
				X:      g.rng.Float64() * (float64(width) - boxW),
				Y:      g.rng.Float64() * (float64(height) - boxH),
				Width:  boxW,
				Height: boxH,
			},
		})
	}
	return detections
}

// pickClass draws from the 50/30/20 healthy/damaged/impurity split.
func (g *Generator) pickClass() models.GrainClass {
	switch v := g.rng.Float64(); {
	case v < 0.5:
		return models.ClassHealthy
	case v < 0.8:
		return models.ClassDamaged
	default:
		return models.ClassImpurity
	}
}
