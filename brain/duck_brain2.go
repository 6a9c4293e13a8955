package brain

import (
	"fmt"
	"math/rand"

	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/aortez/dirtsim/organism"
)

// DuckBrain2 is a NEAT-genome duck controller. Unlike the tree
// brain, ducks are not bound to a byte-exact fixed-topology weight vector,
// so NEAT's variable topology is legal here. Modeled on a
// neural/brain.go BrainController wrapping a goNEAT genome and phenotype
// network.
type DuckBrain2 struct {
	Genome  *genetics.Genome
	network *network.Network
}

// DuckBrain2Inputs/Outputs size the NEAT genome's sensor/effector layers.
const (
	DuckBrain2Inputs  = DuckSensoryLength
	DuckBrain2Outputs = 2 // move in [-1,1], jump threshold
)

// NewDuckBrain2 wraps a goNEAT genome, building its phenotype network.
func NewDuckBrain2(genome *genetics.Genome) (*DuckBrain2, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("duckbrain2: genesis: %w", err)
	}
	return &DuckBrain2{Genome: genome, network: phenotype}, nil
}

// Think implements DuckDecider.
func (b *DuckBrain2) Think(sensory DuckSensory, dt float32) organism.Input {
	inputs := sensory.Flatten()
	raw := make([]float64, len(inputs))
	for i, v := range inputs {
		raw[i] = float64(v)
	}
	if err := b.network.LoadSensors(raw); err != nil {
		return organism.Input{}
	}
	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5
	}
	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return organism.Input{}
		}
	}
	outputs := b.network.ReadOutputs()
	_, _ = b.network.Flush()

	if len(outputs) < DuckBrain2Outputs {
		return organism.Input{}
	}
	move := clamp32(float32(outputs[0])*2-1, -1, 1)
	jump := outputs[1] > 0.5
	return organism.Input{Move: move, Jump: jump}
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewDuckBrain2Genome creates a fresh, fully-connected starting genome for
// DuckBrain2, mirroring the CreateMinimalBrainGenome.
func NewDuckBrain2Genome(id int, rng *rand.Rand) *genetics.Genome {
	nodes := make([]*network.NNode, 0, DuckBrain2Inputs+DuckBrain2Outputs)
	for i := 1; i <= DuckBrain2Inputs; i++ {
		n := network.NewNNode(i, network.InputNeuron)
		n.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, n)
	}
	for i := 1; i <= DuckBrain2Outputs; i++ {
		n := network.NewNNode(DuckBrain2Inputs+i, network.OutputNeuron)
		n.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, n)
	}

	genes := make([]*genetics.Gene, 0, DuckBrain2Inputs*DuckBrain2Outputs)
	innov := int64(1)
	for i := 0; i < DuckBrain2Inputs; i++ {
		for j := 0; j < DuckBrain2Outputs; j++ {
			weight := rng.Float64()*2 - 1
			gene := genetics.NewGeneWithTrait(nil, weight, nodes[i], nodes[DuckBrain2Inputs+j], false, innov, 0)
			genes = append(genes, gene)
			innov++
		}
	}
	return genetics.NewGenome(id, nil, nodes, genes)
}
