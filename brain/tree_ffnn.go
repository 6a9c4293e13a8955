package brain

import (
	"fmt"
	"math/rand"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/organism"
)

// Tree brain fixed topology: 2264 -> 48 (ReLU) -> 232, split
// into 7 command logits and 225 position logits. The topology is fixed
// (not evolved) so that weight vectors are byte-exact and genome-portable;
// this mirrors the FFNN (neural/ffnn.go) generalized from its
// 28->...->3 turn/thrust/bite topology to this fixed shape.
const (
	TreeInputSize     = TreeSensoryLength
	TreeHiddenSize    = 48
	TreeCommandLogits = 7
	TreePositionLogits = TreeWindowSize * TreeWindowSize
	TreeOutputSize    = TreeCommandLogits + TreePositionLogits

	// TreeGenomeLength is the canonical flattened weight-vector length:
	// W_ih (hidden x input) ‖ b_h (hidden) ‖ W_ho (output x hidden) ‖ b_o
	// (output), in that order.
	TreeGenomeLength = TreeInputSize*TreeHiddenSize + TreeHiddenSize + TreeHiddenSize*TreeOutputSize + TreeOutputSize
)

// TreeBrain is the canonical fixed-topology feed-forward tree brain.
type TreeBrain struct {
	Wih [TreeHiddenSize][TreeInputSize]float32
	Bh  [TreeHiddenSize]float32
	Who [TreeOutputSize][TreeHiddenSize]float32
	Bo  [TreeOutputSize]float32
}

// NewTreeBrain builds a brain with Xavier-scaled random weights, matching
// the NewFFNN initialization style.
func NewTreeBrain(rng *rand.Rand) *TreeBrain {
	b := &TreeBrain{}
	scaleH := xavierScale(TreeInputSize)
	for j := 0; j < TreeHiddenSize; j++ {
		for k := 0; k < TreeInputSize; k++ {
			b.Wih[j][k] = float32(rng.NormFloat64()) * scaleH
		}
	}
	scaleO := xavierScale(TreeHiddenSize)
	for j := 0; j < TreeOutputSize; j++ {
		for k := 0; k < TreeHiddenSize; k++ {
			b.Who[j][k] = float32(rng.NormFloat64()) * scaleO
		}
	}
	return b
}

func xavierScale(fanIn int) float32 {
	return float32(1.0) / sqrtf(float32(fanIn)) * sqrtf(2.0)
}

func sqrtf(x float32) float32 {
	// Newton's method avoids a float64 round-trip for a single scalar,
	// matching the float32-only math discipline.
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 8; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// ToGenome flattens the brain into the canonical weight vector.
func (b *TreeBrain) ToGenome() []float32 {
	out := make([]float32, 0, TreeGenomeLength)
	for j := 0; j < TreeHiddenSize; j++ {
		out = append(out, b.Wih[j][:]...)
	}
	out = append(out, b.Bh[:]...)
	for j := 0; j < TreeOutputSize; j++ {
		out = append(out, b.Who[j][:]...)
	}
	out = append(out, b.Bo[:]...)
	return out
}

// FromGenome loads a canonical weight vector into a brain.
func FromGenome(weights []float32) (*TreeBrain, error) {
	if len(weights) != TreeGenomeLength {
		return nil, fmt.Errorf("tree genome length = %d, want %d", len(weights), TreeGenomeLength)
	}
	b := &TreeBrain{}
	i := 0
	for j := 0; j < TreeHiddenSize; j++ {
		copy(b.Wih[j][:], weights[i:i+TreeInputSize])
		i += TreeInputSize
	}
	copy(b.Bh[:], weights[i:i+TreeHiddenSize])
	i += TreeHiddenSize
	for j := 0; j < TreeOutputSize; j++ {
		copy(b.Who[j][:], weights[i:i+TreeHiddenSize])
		i += TreeHiddenSize
	}
	copy(b.Bo[:], weights[i:i+TreeOutputSize])
	return b, nil
}

func relu(x float32) float32 {
	if x < 0 {
		return 0
	}
	return x
}

// forward runs the fixed 2264->48->232 network, returning raw logits (no
// output activation — the decoder argmaxes them directly).
func (b *TreeBrain) forward(input [TreeInputSize]float32) [TreeOutputSize]float32 {
	var hidden [TreeHiddenSize]float32
	for j := 0; j < TreeHiddenSize; j++ {
		sum := b.Bh[j]
		for k := 0; k < TreeInputSize; k++ {
			sum += b.Wih[j][k] * input[k]
		}
		hidden[j] = relu(sum)
	}
	var out [TreeOutputSize]float32
	for j := 0; j < TreeOutputSize; j++ {
		sum := b.Bo[j]
		for k := 0; k < TreeHiddenSize; k++ {
			sum += b.Who[j][k] * hidden[k]
		}
		out[j] = sum
	}
	return out
}

// Decide runs inference on sensory and decodes it into a command,
// deterministic for a given brain and sensory input.
func (b *TreeBrain) Decide(sensory TreeSensory) organism.Command {
	input := sensory.Flatten()
	logits := b.forward(input)

	cmdIdx := argmax(logits[:TreeCommandLogits])
	kind := organism.CommandKind(cmdIdx)

	if kind == organism.CmdWait || kind == organism.CmdCancel {
		return organism.Command{Kind: kind}
	}

	posIdx := argmax(logits[TreeCommandLogits:])
	nx := posIdx % TreeWindowSize
	ny := posIdx / TreeWindowSize
	target := grid.Coord{
		X: sensory.WorldOffset.X + int(sensory.Scale)*nx,
		Y: sensory.WorldOffset.Y + int(sensory.Scale)*ny,
	}
	return organism.Command{Kind: kind, Target: target}
}

func argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// Mutate applies the canonical evolution mutation rule: per
// weight, with probability resetRate replace with a fresh N(0, 2*sigma)
// sample (grounded on original_source Mutation.cpp's noise(rng)*2.0); else
// with probability rate add N(0, sigma); else leave unchanged.
func Mutate(weights []float32, rng *rand.Rand, rate, sigma, resetRate float64) []float32 {
	out := make([]float32, len(weights))
	copy(out, weights)
	for i := range out {
		roll := rng.Float64()
		switch {
		case roll < resetRate:
			out[i] = float32(rng.NormFloat64()*sigma) * 2.0
		case roll < resetRate+rate:
			out[i] += float32(rng.NormFloat64() * sigma)
		}
	}
	return out
}
