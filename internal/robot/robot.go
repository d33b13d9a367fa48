// Package robot implements the robot's position/orientation and the
// pure step-preview arithmetic the interpreter and condition evaluator
// both need.
package robot

// Facing values, counter-clockwise from North. TurnLeft advances the
// index by one mod 4.
const (
	North = 0
	West  = 1
	South = 2
	East  = 3
)

// Robot holds position, home, and facing. It is replaced wholesale on
// world import and mutated in place by the interpreter's primitives.
type Robot struct {
	X, Y         int
	HomeX, HomeY int
	Facing       int
}

// TurnLeft advances Facing counter-clockwise: d <- (d+1) mod 4.
func (r *Robot) TurnLeft() {
	r.Facing = (r.Facing + 1) % 4
}

// IsHome reports whether the robot stands on its home cell.
func (r *Robot) IsHome() bool {
	return r.X == r.HomeX && r.Y == r.HomeY
}

// PreviewStep returns the cell the robot would enter by stepping
// forward, and whether that cell lies within [0,size)^2. It does not
// mutate the robot.
func (r *Robot) PreviewStep(size int) (x, y int, ok bool) {
	x, y = r.X, r.Y
	switch r.Facing {
	case North:
		y++
	case West:
		x--
	case South:
		y--
	case East:
		x++
	}
	if x < 0 || x >= size || y < 0 || y >= size {
		return 0, 0, false
	}
	return x, y, true
}
