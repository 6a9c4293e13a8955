package organism

import "math"

// Duck tuning constants.
const (
	DuckWalkForce      = 18.0
	DuckJumpForce      = 7.5
	DuckJumpCooldown   = 0.35 // seconds
	DuckAirSteerSame   = 0.15
	DuckAirSteerOppose = 0.30

	DuckLightShutoffAngle  = math.Pi / 3
	DuckLightRecoveryAngle = math.Pi / 6
)

// Sparkle is one particle in a duck's sparkle system.
type Sparkle struct {
	X, Y       float32
	VelX, VelY float32
	Age        float32
}

// HandheldLight tracks a duck's carried spot light pitch dynamics,
// including shutoff/recovery hysteresis.
type HandheldLight struct {
	Present      bool
	Pitch        float32 // radians, clamped to +/- pi/2
	AngularVel   float32
	On           bool
}

// Update advances the handheld light's damped rotational dynamics for one
// tick: gravity torque, acceleration pseudo-force, corrective torque
// toward horizontal, angular damping, then hysteresis on/off.
func (h *HandheldLight) Update(accelX float32, dt float32) {
	if !h.Present {
		return
	}
	const gravityTorque = 1.2
	const corrective = 0.8
	const damping = 0.85

	h.AngularVel += gravityTorque * dt
	h.AngularVel += -accelX * 0.3 * dt
	h.AngularVel += -corrective * h.Pitch * dt
	h.AngularVel *= damping

	h.Pitch += h.AngularVel * dt
	if h.Pitch > math.Pi/2 {
		h.Pitch = math.Pi / 2
		h.AngularVel = 0
	}
	if h.Pitch < -math.Pi/2 {
		h.Pitch = -math.Pi / 2
		h.AngularVel = 0
	}

	abs := h.Pitch
	if abs < 0 {
		abs = -abs
	}
	if h.On && abs > DuckLightShutoffAngle {
		h.On = false
	} else if !h.On && abs < DuckLightRecoveryAngle {
		h.On = true
	}
}

// DuckState is the ark component holding a duck's physical/behavioral
// bookkeeping between ticks.
type DuckState struct {
	OnGround     bool
	JumpCooldown float32
	Facing       float32 // +1 or -1

	Sparkles []Sparkle
	Light    HandheldLight
}

// Input is what a duck brain returns each tick.
type Input struct {
	Move float32 // in [-1, 1]
	Jump bool
}

// JumpOutcome reports the result of a jump request, used by the cooldown
// boundary-behavior test.
type JumpOutcome uint8

const (
	JumpApplied JumpOutcome = iota
	JumpOnCooldown
	JumpNotGrounded
)

// TryJump applies JUMP_FORCE if grounded and off cooldown, else reports why
// not.
func (d *DuckState) TryJump(gravitySign float32) (JumpOutcome, float32, float32) {
	if !d.OnGround {
		return JumpNotGrounded, 0, 0
	}
	if d.JumpCooldown > 0 {
		return JumpOnCooldown, 0, 0
	}
	d.JumpCooldown = DuckJumpCooldown
	d.OnGround = false
	return JumpApplied, 0, -gravitySign * DuckJumpForce
}

// AirSteerMultiplier returns the asymmetric air-steering multiplier:
// steering opposite facing is twice as responsive as steering with it.
func (d *DuckState) AirSteerMultiplier(move float32) float32 {
	if move == 0 {
		return 0
	}
	sameDir := (move > 0) == (d.Facing > 0)
	if sameDir {
		return DuckAirSteerSame
	}
	return DuckAirSteerOppose
}

// UpdateSparkles advances the particle system: gravity, damping, bounce off
// solids (delegated to the caller via the solid callback), random impulses
// sized from the smoothed acceleration magnitude.
func (d *DuckState) UpdateSparkles(accelMag float32, dt float32, rng func() float32, isSolid func(x, y float32) bool) {
	const floor = 0.05
	const gravity = 9.8
	const damping = 0.96

	target := 0
	if accelMag > floor {
		target = int(accelMag * 6)
		if target > 24 {
			target = 24
		}
	}
	for len(d.Sparkles) < target {
		d.Sparkles = append(d.Sparkles, Sparkle{
			VelX: (rng() - 0.5) * 2, VelY: (rng() - 0.5) * 2,
		})
	}
	if target < len(d.Sparkles) {
		d.Sparkles = d.Sparkles[:target]
	}

	kept := d.Sparkles[:0]
	for _, s := range d.Sparkles {
		s.VelY += gravity * dt
		s.VelX *= damping
		s.VelY *= damping
		nx, ny := s.X+s.VelX*dt, s.Y+s.VelY*dt
		if isSolid(nx, s.Y) {
			s.VelX = -s.VelX * 0.5
			nx = s.X
		}
		if isSolid(s.X, ny) {
			s.VelY = -s.VelY * 0.5
			ny = s.Y
		}
		s.X, s.Y = nx, ny
		s.Age += dt
		if s.Age < 2.0 {
			kept = append(kept, s)
		}
	}
	d.Sparkles = kept
}
