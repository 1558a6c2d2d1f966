package engine

import (
	"math"

	"plant_telemetry/internal/models"
)

// Series names a chart series with a display range.
type Series string

const (
	SeriesMoisture    Series = "moisture"
	SeriesTemperature Series = "temperature"
	SeriesLight       Series = "light"
	SeriesPrediction  Series = "prediction"
)

// Range is a display range [Min, Max].
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RangeSpec describes how a series is padded and quantized. A non-nil Fixed
// range bypasses computation.
type RangeSpec struct {
	PaddingRatio float64
	MinPadding   float64
	Bucket       float64
	ClampZero    bool
	Default      Range
	Fixed        *Range
}

var (
	LightRangeSpec       = RangeSpec{PaddingRatio: 0.2, MinPadding: 50, Bucket: 50, ClampZero: true, Default: Range{0, 1000}}
	TemperatureRangeSpec = RangeSpec{PaddingRatio: 0.15, MinPadding: 5, Bucket: 5, Default: Range{60, 80}}
	PredictionRangeSpec  = RangeSpec{PaddingRatio: 0.1, MinPadding: 6, Bucket: 12, ClampZero: true, Default: Range{0, 168}}
	MoistureRangeSpec    = RangeSpec{Fixed: &Range{0, 100}}
)

// ComputeRange pads the extremes of values:
// [floor(min-pad), ceil(max+pad)] with pad = max(ratio*(max-min), minPadding),
// the lower bound clamped at 0 when spec.ClampZero is set.
func ComputeRange(values []float64, spec RangeSpec) Range {
	if spec.Fixed != nil {
		return *spec.Fixed
	}
	lo, hi, ok := extremes(values)
	if !ok {
		return spec.Default
	}
	pad := math.Max(spec.PaddingRatio*(hi-lo), spec.MinPadding)
	r := Range{Min: math.Floor(lo - pad), Max: math.Ceil(hi + pad)}
	if spec.ClampZero {
		r.Min = math.Max(0, r.Min)
	}
	return r
}

func extremes(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}

// bucketKey quantizes the extremes outward: the minimum rounds down and the
// maximum rounds up, so drift toward the middle of a bucket keeps the key.
type bucketKey struct {
	empty  bool
	lo, hi int64
}

// keyFor rounds the low extreme down and the high extreme up. Flooring the
// high side too would put 150 and 148 in different 50-wide buckets, and a
// light series whose max drifts from 150 to 148 would recompute its range.
func keyFor(values []float64, bucket float64) bucketKey {
	lo, hi, ok := extremes(values)
	if !ok {
		return bucketKey{empty: true}
	}
	if bucket <= 0 {
		bucket = 1
	}
	return bucketKey{
		lo: int64(math.Floor(lo / bucket)),
		hi: int64(math.Ceil(hi / bucket)),
	}
}

// RangeStabilizer memoizes a series range and only recomputes when the
// quantized extremes move to another bucket. Version increases each time the
// exposed range changes.
type RangeStabilizer struct {
	spec    RangeSpec
	primed  bool
	key     bucketKey
	current Range
	version uint64
}

func NewRangeStabilizer(spec RangeSpec) *RangeStabilizer {
	return &RangeStabilizer{spec: spec, current: initialRange(spec)}
}

func initialRange(spec RangeSpec) Range {
	if spec.Fixed != nil {
		return *spec.Fixed
	}
	return spec.Default
}

// Dirty reports whether values fall into different buckets than the last update.
func (s *RangeStabilizer) Dirty(values []float64) bool {
	if s.spec.Fixed != nil {
		return !s.primed
	}
	return !s.primed || keyFor(values, s.spec.Bucket) != s.key
}

// Update recomputes the range if Dirty and returns the current range and
// whether it changed.
func (s *RangeStabilizer) Update(values []float64) (Range, bool) {
	if !s.Dirty(values) {
		return s.current, false
	}
	s.primed = true
	s.key = keyFor(values, s.spec.Bucket)
	next := ComputeRange(values, s.spec)
	if next == s.current && s.version > 0 {
		return s.current, false
	}
	s.current = next
	s.version++
	return s.current, true
}

func (s *RangeStabilizer) Current() Range  { return s.current }
func (s *RangeStabilizer) Version() uint64 { return s.version }

// Series extraction helpers; absent values are skipped.

func MoistureValues(h []models.SensorReading) []float64 {
	return collect(h, func(r models.SensorReading) *float64 { return r.Moisture })
}

func TemperatureValues(h []models.SensorReading) []float64 {
	return collect(h, func(r models.SensorReading) *float64 { return r.Temperature })
}

func LightValues(h []models.SensorReading) []float64 {
	return collect(h, func(r models.SensorReading) *float64 { return r.Light })
}

// PredictionValues keeps only samples in mode; hours and days do not share
// an axis.
func PredictionValues(samples []models.PredictionSample, mode models.PredictionMode) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Mode == mode {
			out = append(out, s.Value)
		}
	}
	return out
}

func collect(h []models.SensorReading, pick func(models.SensorReading) *float64) []float64 {
	out := make([]float64, 0, len(h))
	for _, r := range h {
		if v := pick(r); v != nil {
			out = append(out, *v)
		}
	}
	return out
}
