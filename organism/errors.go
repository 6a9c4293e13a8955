package organism

import "errors"

var (
	errInsufficientEnergy = errors.New("insufficient energy for command")
	errTargetNotAir       = errors.New("target cell is not Air")
	errNotAdjacentOrOwned = errors.New("target is not adjacent to an owned cell")
)
