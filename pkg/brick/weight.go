package brick

// Aspect-ratio thresholds of the default weight table.
const (
	RatioPanorama  = 16.0 / 9.0 // wider than 16:9
	RatioLandscape = 3.0 / 2.0  // wider than 3:2
	RatioSquare    = 1.0        // wider than square
)

// Weights classifies an aspect ratio into a block cost. A ratio strictly
// greater than a threshold gets that threshold's weight; the thresholds are
// checked from widest to narrowest and anything at or below RatioSquare
// costs Portrait.
type Weights struct {
	Panorama  float64 `json:"panorama" toml:"panorama"`
	Landscape float64 `json:"landscape" toml:"landscape"`
	Wide      float64 `json:"wide" toml:"wide"`
	Portrait  float64 `json:"portrait" toml:"portrait"`

	PanoramaRatio  float64 `json:"panorama_ratio" toml:"panorama_ratio"`
	LandscapeRatio float64 `json:"landscape_ratio" toml:"landscape_ratio"`
	WideRatio      float64 `json:"wide_ratio" toml:"wide_ratio"`
}

// DefaultWeights returns the standard table: >16:9 costs 6, >3:2 costs 3,
// >1 costs 2.5, everything else 1.
func DefaultWeights() Weights {
	return Weights{
		Panorama:       6,
		Landscape:      3,
		Wide:           2.5,
		Portrait:       1,
		PanoramaRatio:  RatioPanorama,
		LandscapeRatio: RatioLandscape,
		WideRatio:      RatioSquare,
	}
}

// Of returns the block weight of an aspect ratio.
func (w Weights) Of(ratio float64) float64 {
	switch {
	case ratio > w.PanoramaRatio:
		return w.Panorama
	case ratio > w.LandscapeRatio:
		return w.Landscape
	case ratio > w.WideRatio:
		return w.Wide
	default:
		return w.Portrait
	}
}

// OfSize returns the block weight of a natural size.
func (w Weights) OfSize(s Size) float64 { return w.Of(s.AspectRatio()) }

// IsZero reports whether the table is unset.
func (w Weights) IsZero() bool { return w == Weights{} }
