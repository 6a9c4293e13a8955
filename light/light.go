// Package light implements the multi-pass radiance pipeline:
// ambient sky-access, sunlight, emissive materials/overlay, point/spot/
// rotating lights with DDA ray tracing, neighbor diffusion, and a final
// material-tint pass. It operates on a *grid.Grid in lockstep with the
// physics stepper, the same relationship the renderer/light.go
// has to its terrain buffer, generalized from a GPU blend shader to a
// server-side CPU radiance computation.
package light

import (
	"image/color"
	"math"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// RGB is an HDR color accumulator; channels clamp to [0,2] on accumulation
// and to [0,1] on display conversion.
type RGB struct {
	R, G, B float32
}

func (c RGB) Add(o RGB) RGB {
	return RGB{clampHDR(c.R + o.R), clampHDR(c.G + o.G), clampHDR(c.B + o.B)}
}

func (c RGB) Mul(o RGB) RGB {
	return RGB{c.R * o.R, c.G * o.G, c.B * o.B}
}

func (c RGB) Scale(s float32) RGB {
	return RGB{c.R * s, c.G * s, c.B * s}
}

func clampHDR(v float32) float32 {
	if v > 2.0 {
		return 2.0
	}
	if v < 0 {
		return 0
	}
	return v
}

// Lerp interpolates between a and b by t in [0,1].
func Lerp(a, b RGB, t float32) RGB {
	return RGB{
		a.R + (b.R-a.R)*t,
		a.G + (b.G-a.G)*t,
		a.B + (b.B-a.B)*t,
	}
}

// Brightness is the average channel value, used for ASCII/debug dumps.
func (c RGB) Brightness() float32 {
	return (c.R + c.G + c.B) / 3
}

// ToRGBA32 packs a display-clamped RGB into a 32-bit RGBA word, alpha
// opaque.
func (c RGB) ToRGBA32() uint32 {
	r := uint32(clamp01(c.R) * 255)
	g := uint32(clamp01(c.G) * 255)
	b := uint32(clamp01(c.B) * 255)
	return r<<24 | g<<16 | b<<8 | 0xFF
}

func clamp01(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// FromRGBAColor converts a packed color.RGBA material tint into an RGB in
// [0,1] per channel.
func FromRGBAColor(c color.RGBA) RGB {
	return RGB{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// White is the neutral lerp endpoint used by tint/saturation blending.
var White = RGB{1, 1, 1}

// Grid is the parallel lighting buffer set: per-cell
// HDR colors, the packed raw-light output consumed by entity lighting, a
// scenario-writable emissive overlay, and the ray-tracer's optical buffer.
type Grid struct {
	Width, Height int

	Colors          []RGB
	RawLight        []uint32
	EmissiveOverlay []RGB
	OpticalBuffer   []RGB

	lightBuffer []RGB // ping-pong scratch for diffusion
}

// New allocates a lighting grid matching a width x height world.
func New(width, height int) *Grid {
	n := width * height
	return &Grid{
		Width: width, Height: height,
		Colors:          make([]RGB, n),
		RawLight:        make([]uint32, n),
		EmissiveOverlay: make([]RGB, n),
		OpticalBuffer:   make([]RGB, n),
		lightBuffer:     make([]RGB, n),
	}
}

func (g *Grid) index(x, y int) int { return y*g.Width + x }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// SetEmissive writes a scenario-controlled overlay contribution at (x,y).
func (g *Grid) SetEmissive(x, y int, c RGB) {
	if g.inBounds(x, y) {
		g.EmissiveOverlay[g.index(x, y)] = c
	}
}

// ClearAllEmissive zeroes the entire overlay buffer.
func (g *Grid) ClearAllEmissive() {
	for i := range g.EmissiveOverlay {
		g.EmissiveOverlay[i] = RGB{}
	}
}

// At returns the display-ready color at (x,y).
func (g *Grid) At(x, y int) RGB {
	if !g.inBounds(x, y) {
		return RGB{}
	}
	return g.Colors[g.index(x, y)]
}

// LightKind is the closed discriminated union of localized light variants:
// stable ordinals, no open polymorphism.
type LightKind uint8

const (
	KindPoint LightKind = iota
	KindSpot
	KindRotating
)

// Light is a localized point/spot/rotating light source. Spot-only fields
// (Direction, ArcWidth, Focus) are ignored for KindPoint.
type Light struct {
	Kind        LightKind
	X, Y        float32 // sub-cell position
	Color       color.RGBA
	Intensity   float32
	Radius      float32
	Attenuation float32
	Direction   float32 // radians, spot/rotating only
	ArcWidth    float32 // radians
	Focus       float32
}

// Calculator runs the fixed 9-pass pipeline over a grid.Grid
// into a light.Grid, driven by config.LightConfig.
type Calculator struct{}

// Calculate runs every pass in the spec's fixed order.
func (Calculator) Calculate(g *grid.Grid, lg *Grid, cfg config.LightConfig, lights []Light) {
	clear(lg)
	applyAmbient(g, lg, cfg)
	if cfg.SunEnabled {
		applySunlight(g, lg, cfg)
	}
	applyEmissiveCells(g, lg)
	applyEmissiveOverlay(lg)
	applyLights(g, lg, lights)
	applyDiffusion(g, lg, cfg)
	storeRawLight(lg)
	applyMaterialTint(g, lg)
}

func clear(lg *Grid) {
	for i := range lg.Colors {
		lg.Colors[i] = RGB{}
	}
}

func attenuate(g *grid.Grid, x, y int, falloff float32) float32 {
	c, err := g.At(x, y)
	if err != nil {
		return 1
	}
	a := 1 - material.Props(c.Material).Opacity*c.FillRatio*falloff
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

func applyAmbient(g *grid.Grid, lg *Grid, cfg config.LightConfig) {
	base := FromRGBAColor(rgbaFromFloats(cfg.AmbientColor)).Scale(cfg.AmbientIntensity)
	base.R += cfg.AmbientBoost
	base.G += cfg.AmbientBoost
	base.B += cfg.AmbientBoost

	w, h := lg.Width, lg.Height

	if !cfg.SkyAccessEnabled {
		for i := range lg.Colors {
			lg.Colors[i] = lg.Colors[i].Add(base)
		}
		return
	}

	if cfg.MultiDirectional {
		prevV := make([]float32, w)
		prevUL := make([]float32, w)
		prevUR := make([]float32, w)
		currV := make([]float32, w)
		currUL := make([]float32, w)
		currUR := make([]float32, w)
		for x := 0; x < w; x++ {
			prevV[x], prevUL[x], prevUR[x] = 1, 1, 1
			lg.Colors[lg.index(x, 0)] = lg.Colors[lg.index(x, 0)].Add(base)
		}
		for y := 1; y < h; y++ {
			for x := 0; x < w; x++ {
				currV[x] = prevV[x] * attenuate(g, x, y-1, cfg.SkyAccessFalloff)
				if x == 0 {
					currUL[x] = 1
				} else {
					currUL[x] = prevUL[x-1] * attenuate(g, x-1, y-1, cfg.SkyAccessFalloff)
				}
				if x == w-1 {
					currUR[x] = 1
				} else {
					currUR[x] = prevUR[x+1] * attenuate(g, x+1, y-1, cfg.SkyAccessFalloff)
				}
				skyFactor := 0.5*currV[x] + 0.25*currUL[x] + 0.25*currUR[x]
				idx := lg.index(x, y)
				lg.Colors[idx] = lg.Colors[idx].Add(base.Scale(skyFactor))
			}
			prevV, currV = currV, prevV
			prevUL, currUL = currUL, prevUL
			prevUR, currUR = currUR, prevUR
		}
		return
	}

	// Single-directional: vertical-only transmittance, column-major sweep.
	for x := 0; x < w; x++ {
		skyFactor := float32(1.0)
		for y := 0; y < h; y++ {
			idx := lg.index(x, y)
			lg.Colors[idx] = lg.Colors[idx].Add(base.Scale(skyFactor))
			skyFactor *= attenuate(g, x, y, cfg.SkyAccessFalloff)
		}
	}
}

func rgbaFromFloats(c [3]float32) color.RGBA {
	return color.RGBA{R: uint8(c[0] * 255), G: uint8(c[1] * 255), B: uint8(c[2] * 255), A: 255}
}

func applySunlight(g *grid.Grid, lg *Grid, cfg config.LightConfig) {
	scaledSun := FromRGBAColor(rgbaFromFloats(cfg.SunColor)).Scale(cfg.SunIntensity)
	for x := 0; x < lg.Width; x++ {
		sun := scaledSun
		for y := 0; y < lg.Height; y++ {
			idx := lg.index(x, y)
			lg.Colors[idx] = lg.Colors[idx].Add(sun)

			c, _ := g.At(x, y)
			props := material.Props(c.Material)
			fill := c.FillRatio
			transmittance := 1 - props.Opacity*fill
			sun = sun.Scale(transmittance)
			tint := Lerp(White, FromRGBAColor(props.Tint), fill)
			sun = sun.Mul(tint)
		}
	}
}

func applyEmissiveCells(g *grid.Grid, lg *Grid) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		props := material.Props(c.Material)
		if props.Emission <= 0 {
			return
		}
		idx := lg.index(x, y)
		emitted := FromRGBAColor(props.EmissionColor).Scale(props.Emission)
		lg.Colors[idx] = lg.Colors[idx].Add(emitted)
	})
}

func applyEmissiveOverlay(lg *Grid) {
	for i, c := range lg.EmissiveOverlay {
		if c.R > 0 || c.G > 0 || c.B > 0 {
			lg.Colors[i] = lg.Colors[i].Add(c)
		}
	}
}

func buildOpticalBuffer(g *grid.Grid, lg *Grid) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		props := material.Props(c.Material)
		fill := c.FillRatio
		tinted := Lerp(White, FromRGBAColor(props.Tint), fill)
		lg.OpticalBuffer[lg.index(x, y)] = tinted.Scale(1 - props.Opacity*fill)
	})
}

// traceRay walks a DDA grid line from the light's sub-cell position to the
// target cell, multiplying color by the optical buffer at each traversed
// cell, early-exiting when the accumulated color drops below threshold.
func traceRay(lg *Grid, x0, y0 float32, x1, y1 int, c RGB) RGB {
	dx := (float32(x1) + 0.5) - x0
	dy := (float32(y1) + 0.5) - y0

	if absf(dx) < 0.001 && absf(dy) < 0.001 {
		return c
	}

	const epsilon = 1e-5
	x0adj, y0adj := x0, y0
	if dx >= 0 {
		x0adj += epsilon
	} else {
		x0adj -= epsilon
	}
	if dy >= 0 {
		y0adj += epsilon
	} else {
		y0adj -= epsilon
	}

	cellX := int(math.Floor(float64(x0adj)))
	cellY := int(math.Floor(float64(y0adj)))

	stepX, stepY := 1, 1
	if dx <= 0 {
		stepX = -1
	}
	if dy <= 0 {
		stepY = -1
	}

	tDeltaX := bigIfZero(absf(1 / dx))
	tDeltaY := bigIfZero(absf(1 / dy))

	tMaxX := rayTMax(dx, x0adj)
	tMaxY := rayTMax(dy, y0adj)

	maxSteps := absInt(x1-cellX) + absInt(y1-cellY) + 2
	for step := 0; step < maxSteps; step++ {
		if cellX == x1 && cellY == y1 {
			break
		}
		if cellX < 0 || cellX >= lg.Width || cellY < 0 || cellY >= lg.Height {
			return RGB{}
		}
		c = c.Mul(lg.OpticalBuffer[lg.index(cellX, cellY)])
		if c.R < 0.001 && c.G < 0.001 && c.B < 0.001 {
			return RGB{}
		}
		if tMaxX < tMaxY {
			tMaxX += tDeltaX
			cellX += stepX
		} else {
			tMaxY += tDeltaY
			cellY += stepY
		}
	}
	return c
}

func rayTMax(d, coordAdj float32) float32 {
	if d > 0 {
		return (float32(math.Floor(float64(coordAdj))) + 1 - coordAdj) / d
	}
	if d < 0 {
		return (coordAdj - float32(math.Floor(float64(coordAdj)))) / -d
	}
	return 1e9
}

func bigIfZero(v float32) float32 {
	if math.IsInf(float64(v), 0) {
		return 1e9
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// spotAngularFactor returns 0 outside the spot's arc, otherwise a
// pow(1-norm_angle, focus) falloff toward the arc edges.
func spotAngularFactor(lightX, lightY, direction, arcWidth, focus, targetX, targetY float32) float32 {
	toTargetX, toTargetY := targetX-lightX, targetY-lightY
	targetAngle := float32(math.Atan2(float64(toTargetY), float64(toTargetX)))

	diff := targetAngle - direction
	for diff > math.Pi {
		diff -= 2 * math.Pi
	}
	for diff < -math.Pi {
		diff += 2 * math.Pi
	}

	halfArc := arcWidth / 2
	absDiff := absf(diff)
	if absDiff > halfArc {
		return 0
	}
	normAngle := absDiff / halfArc
	return float32(math.Pow(float64(1-normAngle), float64(focus)))
}

func applyLights(g *grid.Grid, lg *Grid, lights []Light) {
	if len(lights) == 0 {
		return
	}
	buildOpticalBuffer(g, lg)
	for _, l := range lights {
		applyLight(lg, l)
	}
}

func applyLight(lg *Grid, l Light) {
	lightCellX, lightCellY := int(l.X), int(l.Y)
	if lightCellX < 0 || lightCellX >= lg.Width || lightCellY < 0 || lightCellY >= lg.Height {
		return
	}
	radiusInt := int(math.Ceil(float64(l.Radius)))
	radiusSq := l.Radius * l.Radius
	lightColor := FromRGBAColor(l.Color).Scale(l.Intensity)

	minX, maxX := maxInt(0, lightCellX-radiusInt), minInt(lg.Width-1, lightCellX+radiusInt)
	minY, maxY := maxInt(0, lightCellY-radiusInt), minInt(lg.Height-1, lightCellY+radiusInt)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := (float32(x) + 0.5) - l.X
			dy := (float32(y) + 0.5) - l.Y
			distSq := dx*dx + dy*dy
			if distSq > radiusSq {
				continue
			}
			falloff := 1 / (1 + distSq*l.Attenuation)
			if l.Kind == KindSpot || l.Kind == KindRotating {
				angular := spotAngularFactor(l.X, l.Y, l.Direction, l.ArcWidth, l.Focus, float32(x)+0.5, float32(y)+0.5)
				if angular <= 0 {
					continue
				}
				falloff *= angular
			}
			received := traceRay(lg, l.X, l.Y, x, y, lightColor)
			idx := lg.index(x, y)
			lg.Colors[idx] = lg.Colors[idx].Add(received.Scale(falloff))
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func applyDiffusion(g *grid.Grid, lg *Grid, cfg config.LightConfig) {
	if cfg.DiffusionIterations <= 0 || cfg.DiffusionRate <= 0 {
		return
	}
	const diagWeight = 0.7071067811865476
	const totalWeight = 4.0 + 4.0*diagWeight
	const invTotal = 1.0 / totalWeight

	for iter := 0; iter < cfg.DiffusionIterations; iter++ {
		copy(lg.lightBuffer, lg.Colors)
		for y := 1; y < lg.Height-1; y++ {
			for x := 1; x < lg.Width-1; x++ {
				var scatter float32
				if g.EmptyBitmap().IsSet(x, y) {
					if cfg.AirScatterRate <= 0 {
						continue
					}
					scatter = cfg.AirScatterRate
				} else {
					c, _ := g.At(x, y)
					scatter = material.Props(c.Material).Scatter
					if scatter <= 0 {
						continue
					}
				}

				up := lg.lightBuffer[lg.index(x, y-1)]
				down := lg.lightBuffer[lg.index(x, y+1)]
				left := lg.lightBuffer[lg.index(x-1, y)]
				right := lg.lightBuffer[lg.index(x+1, y)]
				nw := lg.lightBuffer[lg.index(x-1, y-1)]
				ne := lg.lightBuffer[lg.index(x+1, y-1)]
				sw := lg.lightBuffer[lg.index(x-1, y+1)]
				se := lg.lightBuffer[lg.index(x+1, y+1)]

				avg := RGB{
					R: (up.R + down.R + left.R + right.R + diagWeight*(nw.R+ne.R+sw.R+se.R)) * invTotal,
					G: (up.G + down.G + left.G + right.G + diagWeight*(nw.G+ne.G+sw.G+se.G)) * invTotal,
					B: (up.B + down.B + left.B + right.B + diagWeight*(nw.B+ne.B+sw.B+se.B)) * invTotal,
				}

				idx := lg.index(x, y)
				lg.Colors[idx] = Lerp(lg.lightBuffer[idx], avg, scatter*cfg.DiffusionRate)
			}
		}
	}
}

func storeRawLight(lg *Grid) {
	for i, c := range lg.Colors {
		lg.RawLight[i] = c.ToRGBA32()
	}
}

func applyMaterialTint(g *grid.Grid, lg *Grid) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		mat := c.Material
		if c.RenderAs.Valid() {
			mat = c.RenderAs
		}
		props := material.Props(mat)
		blended := Lerp(White, FromRGBAColor(props.Tint), props.Saturation)
		idx := lg.index(x, y)
		lg.Colors[idx] = lg.Colors[idx].Mul(blended)
	})
}
