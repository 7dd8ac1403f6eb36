// Package world provides the regional danger field that raises threat severity
// around some locations. The field is a seeded noise map, so the same location
// always carries the same danger for a given seed.
package world

import (
	"hash/fnv"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// MaxDanger is the largest severity bonus a region can add.
const MaxDanger = 10

// Regions maps location ids onto a smooth danger field.
type Regions struct {
	noise opensimplex.Noise
}

// NewRegions creates a danger field from seed.
func NewRegions(seed int64) *Regions {
	return &Regions{noise: opensimplex.NewNormalized(seed)}
}

// Danger returns the severity bonus in [0, MaxDanger] for a location.
// A nil Regions is a peaceful world.
func (r *Regions) Danger(locationID string) int {
	if r == nil || locationID == "" {
		return 0
	}
	x, y := locationCoord(locationID)
	v := octaveNoise(r.noise, x, y, 3, 0.05, 0.5)
	d := int(math.Round(v * MaxDanger))
	if d < 0 {
		return 0
	}
	if d > MaxDanger {
		return MaxDanger
	}
	return d
}

// locationCoord spreads a location id over the noise plane.
func locationCoord(id string) (float64, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum64()
	return float64(sum&0xffff) / 16, float64((sum>>16)&0xffff) / 16
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
