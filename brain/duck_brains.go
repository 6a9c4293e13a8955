package brain

import (
	"math/rand"

	"github.com/aortez/dirtsim/organism"
)

// DuckDecider is the capability every duck brain exposes: think(sensory,
// dt) -> DuckInput.
type DuckDecider interface {
	Think(sensory DuckSensory, dt float32) organism.Input
}

// RandomDuckBrain picks a random walk direction, occasionally jumping.
// Grounded on RandomDuckBrain (DuckBrain.h).
type RandomDuckBrain struct {
	rng           *rand.Rand
	moveTarget    float32
	retargetTimer float32
}

// NewRandomDuckBrain constructs a RandomDuckBrain seeded from rng.
func NewRandomDuckBrain(rng *rand.Rand) *RandomDuckBrain {
	return &RandomDuckBrain{rng: rng}
}

// Think implements DuckDecider.
func (b *RandomDuckBrain) Think(sensory DuckSensory, dt float32) organism.Input {
	b.retargetTimer -= dt
	if b.retargetTimer <= 0 {
		b.moveTarget = b.rng.Float32()*2 - 1
		b.retargetTimer = 0.5 + b.rng.Float32()
	}
	jump := sensory.OnGround > 0 && b.rng.Float32() < 0.01
	return organism.Input{Move: b.moveTarget, Jump: jump}
}

// WallBouncingBrain walks toward a target wall, reverses on arrival or
// collision, and jumps over obstacles. Modeled on a WallBouncingBrain
// (DuckBrain.h): run_target_cells_, target_wall_, average_run_time_,
// jump_timer_ fields are folded into this struct.
type WallBouncingBrain struct {
	direction   float32
	jumpTimer   float32
	blockedLast bool
}

// NewWallBouncingBrain constructs a WallBouncingBrain walking right
// initially.
func NewWallBouncingBrain() *WallBouncingBrain {
	return &WallBouncingBrain{direction: 1}
}

// Think implements DuckDecider: walk in the current direction; if the
// window shows a wall immediately ahead, reverse; jump periodically to
// clear low obstacles.
func (b *WallBouncingBrain) Think(sensory DuckSensory, dt float32) organism.Input {
	center := DuckWindowSize / 2
	aheadX := center + sign(b.direction)
	blocked := aheadX >= 0 && aheadX < DuckWindowSize && sensory.Occupancy[center][aheadX] > 0
	if blocked && !b.blockedLast {
		b.direction = -b.direction
	}
	b.blockedLast = blocked

	b.jumpTimer -= dt
	jump := false
	if blocked && sensory.OnGround > 0 && b.jumpTimer <= 0 {
		jump = true
		b.jumpTimer = organism.DuckJumpCooldown + 0.1
	}
	return organism.Input{Move: b.direction, Jump: jump}
}

func sign(v float32) int {
	if v >= 0 {
		return 1
	}
	return -1
}

// ExternalInput is the gamepad-polled intent handed to PlayerDuckBrain by
// the out-of-scope input collaborator each tick.
type ExternalInput struct {
	Move float32
	Jump bool
}

// PlayerDuckBrain relays externally supplied gamepad input; gamepad
// polling itself is out of scope.
type PlayerDuckBrain struct {
	Latest ExternalInput
}

// Think implements DuckDecider by returning the most recently supplied
// external input.
func (b *PlayerDuckBrain) Think(sensory DuckSensory, dt float32) organism.Input {
	return organism.Input{Move: b.Latest.Move, Jump: b.Latest.Jump}
}

// SetInput is called by the external input collaborator to update the
// player's latest intent.
func (b *PlayerDuckBrain) SetInput(in ExternalInput) {
	b.Latest = in
}
