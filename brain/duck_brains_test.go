package brain

import (
	"math/rand"
	"testing"

	"github.com/aortez/dirtsim/grid"
)

func TestWallBouncingBrainReversesOnContact(t *testing.T) {
	g := grid.New(10, 10)
	b := NewWallBouncingBrain()
	open := GatherDuck(g, grid.Coord{X: 5, Y: 5}, 0, 0, 1, true)

	in := b.Think(open, 0.1)
	if in.Move != 1 {
		t.Fatalf("expected initial rightward move, got %v", in.Move)
	}

	blocked := open
	blocked.Occupancy[2][3] = 1 // wall appears immediately ahead
	in2 := b.Think(blocked, 0.1)
	if in2.Move != -1 {
		t.Fatalf("expected brain to reverse after detecting a wall, got %v", in2.Move)
	}
}

func TestPlayerDuckBrainRelaysLatestInput(t *testing.T) {
	b := &PlayerDuckBrain{}
	b.SetInput(ExternalInput{Move: 0.5, Jump: true})
	out := b.Think(DuckSensory{}, 0.1)
	if out.Move != 0.5 || !out.Jump {
		t.Fatalf("got %+v, want relayed input", out)
	}
}

func TestRandomDuckBrainRetargetsWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := NewRandomDuckBrain(rng)
	for i := 0; i < 50; i++ {
		in := b.Think(DuckSensory{OnGround: 1}, 0.05)
		if in.Move < -1 || in.Move > 1 {
			t.Fatalf("move out of range: %v", in.Move)
		}
	}
}

func TestDuckSensoryFlattenLength(t *testing.T) {
	g := grid.New(10, 10)
	s := GatherDuck(g, grid.Coord{X: 5, Y: 5}, 0, 0, 1, true)
	if len(s.Flatten()) != DuckSensoryLength {
		t.Fatalf("flatten length = %d, want %d", len(s.Flatten()), DuckSensoryLength)
	}
}
