package models

// GrainClass is the canonical three-way classification of a detected object.
type GrainClass string

const (
	ClassHealthy  GrainClass = "healthy"
	ClassDamaged  GrainClass = "damaged"
	ClassImpurity GrainClass = "impurity"
)

// BBox locates a detection in the pixel space of the source image.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one classified, localized object found in an analyzed image.
type Detection struct {
	Class      GrainClass `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       BBox       `json:"bbox"`
}

// Statistics is the derived loss/health record for one analysis.
type Statistics struct {
	HealthyCount     int     `json:"healthy_count"`
	BadCount         int     `json:"bad_count"`
	ImpurityCount    int     `json:"impurity_count"`
	TotalLossKgPerHa float64 `json:"total_loss_kg_per_ha"`
	HealthyPercent   float64 `json:"healthy_percent"`
	BadPercent       float64 `json:"bad_percent"`
	ImpurityPercent  float64 `json:"impurity_percent"`
	QualityGrade     string  `json:"quality_grade"`
}

// MeasurementRecord is the persisted unit: one saved analysis.
// ID is zero before the store assigns it on save.
type MeasurementRecord struct {
	ID               int64       `json:"id"`
	ImageURI         string      `json:"image_uri"`
	Detections       []Detection `json:"detections"`
	Timestamp        int64       `json:"timestamp"` // milliseconds since epoch, set at capture
	FieldName        *string     `json:"field_name,omitempty"`
	CombineOperator  *string     `json:"combine_operator,omitempty"`
	GrainWeightGrams *float64    `json:"grain_weight_grams,omitempty"`
	PhotoAreaM2      *float64    `json:"photo_area_m2,omitempty"`
	Statistics       Statistics  `json:"statistics"`
}

// Filter narrows measurement queries. A nil field imposes no constraint on
// that dimension; date bounds are inclusive.
type Filter struct {
	StartDate       *int64  // milliseconds since epoch
	EndDate         *int64
	FieldName       *string
	CombineOperator *string
}

// AggregatedFieldRecord is a per-field rollup, computed fresh on every query.
type AggregatedFieldRecord struct {
	FieldName         string  `json:"field_name"`
	TotalMeasurements int     `json:"total_measurements"`
	AverageLoss       float64 `json:"average_loss"`
	AverageBadPercent float64 `json:"average_bad_percent"`
	TotalHealthy      int     `json:"total_healthy"`
	TotalBad          int     `json:"total_bad"`
	TotalImpurity     int     `json:"total_impurity"`
}

// UnspecifiedField buckets measurements saved without a field name.
const UnspecifiedField = "unspecified"

// Summary is the KPI rollup over a filtered measurement set.
type Summary struct {
	Count             int     `json:"count"`
	AverageLoss       float64 `json:"average_loss"`
	AverageBadPercent float64 `json:"average_bad_percent"`
	TotalHealthy      int     `json:"total_healthy"`
	TotalBad          int     `json:"total_bad"`
}

// SeriesPoint is one entry of the loss trend projection.
type SeriesPoint struct {
	Timestamp int64   `json:"timestamp"`
	Loss      float64 `json:"loss"`
	Date      string  `json:"date"`
}
