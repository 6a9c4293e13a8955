// Package material defines the closed set of cell materials and their
// immutable per-kind properties (opacity, tint, emission, scatter...).
package material

import "image/color"

// Kind is a stable ordinal identifying a material. The ordering matters:
// it is read by neural sensory flattening (brain package) and must never
// be reordered once assigned.
type Kind uint8

const (
	Air Kind = iota
	Dirt
	Leaf
	Metal
	Root
	Sand
	Seed
	Wall
	Water
	Wood

	count
)

// Invalid marks an unset render-override on a Cell.
const Invalid Kind = count

// DensityClass orders materials by relative weight for pressure stacking
// and swap comparisons; higher sinks through lower.
type DensityClass uint8

const (
	DensityNone DensityClass = iota
	DensityLight
	DensityMedium
	DensityHeavy
)

// Properties holds the immutable per-material data looked up by ordinal.
// Contents are never mutated after init.
type Properties struct {
	Opacity       float32
	Tint          color.RGBA
	Emission      float32
	EmissionColor color.RGBA
	Scatter       float32
	Saturation    float32
	Density       DensityClass
	IsSolid       bool
	IsLiquid      bool
}

var table = [count]Properties{
	Air: {
		Opacity: 0, Tint: color.RGBA{0, 0, 0, 0}, Emission: 0, Scatter: 0,
		Saturation: 0, Density: DensityNone, IsSolid: false, IsLiquid: false,
	},
	Dirt: {
		Opacity: 0.95, Tint: color.RGBA{92, 64, 42, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.6, Density: DensityHeavy, IsSolid: true, IsLiquid: false,
	},
	Leaf: {
		Opacity: 0.6, Tint: color.RGBA{58, 130, 54, 255}, Emission: 0, Scatter: 0.1,
		Saturation: 0.7, Density: DensityLight, IsSolid: true, IsLiquid: false,
	},
	Metal: {
		Opacity: 1.0, Tint: color.RGBA{150, 150, 160, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.1, Density: DensityHeavy, IsSolid: true, IsLiquid: false,
	},
	Root: {
		Opacity: 0.9, Tint: color.RGBA{110, 80, 55, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.5, Density: DensityMedium, IsSolid: true, IsLiquid: false,
	},
	Sand: {
		Opacity: 0.85, Tint: color.RGBA{210, 190, 130, 255}, Emission: 0, Scatter: 0.05,
		Saturation: 0.4, Density: DensityMedium, IsSolid: true, IsLiquid: false,
	},
	Seed: {
		Opacity: 0.7, Tint: color.RGBA{120, 90, 40, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.5, Density: DensityMedium, IsSolid: true, IsLiquid: false,
	},
	Wall: {
		Opacity: 1.0, Tint: color.RGBA{60, 60, 60, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.0, Density: DensityHeavy, IsSolid: true, IsLiquid: false,
	},
	Water: {
		Opacity: 0.05, Tint: color.RGBA{215, 235, 255, 255}, Emission: 0, Scatter: 0.2,
		Saturation: 0.8, Density: DensityMedium, IsSolid: false, IsLiquid: true,
	},
	Wood: {
		Opacity: 1.0, Tint: color.RGBA{110, 70, 35, 255}, Emission: 0, Scatter: 0,
		Saturation: 0.6, Density: DensityHeavy, IsSolid: true, IsLiquid: false,
	},
}

// Props looks up the static properties of k. Panics on an out-of-range
// kind, matching the array-index lookup pattern for closed enums.
func Props(k Kind) Properties {
	return table[k]
}

// Valid reports whether k is one of the ten concrete kinds (excludes Invalid).
func (k Kind) Valid() bool {
	return k < count
}

func (k Kind) String() string {
	switch k {
	case Air:
		return "Air"
	case Dirt:
		return "Dirt"
	case Leaf:
		return "Leaf"
	case Metal:
		return "Metal"
	case Root:
		return "Root"
	case Sand:
		return "Sand"
	case Seed:
		return "Seed"
	case Wall:
		return "Wall"
	case Water:
		return "Water"
	case Wood:
		return "Wood"
	default:
		return "Invalid"
	}
}

// DensityWeight returns the gravity weighting used by the physics stepper's
// gravity and column-stacking pressure passes.
func DensityWeight(k Kind) float32 {
	switch Props(k).Density {
	case DensityLight:
		return 0.4
	case DensityMedium:
		return 1.0
	case DensityHeavy:
		return 1.8
	default:
		return 0
	}
}

// Count returns the number of concrete material kinds.
func Count() int { return int(count) }
