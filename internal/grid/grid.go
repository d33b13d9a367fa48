// Package grid implements the packed nibble storage for a Karel world map.
package grid

// MaxFlags is the highest flag count a cell can hold.
const MaxFlags = 8

// Wall is the nibble value marking a cell the robot cannot enter.
const Wall = 15

// Grid is a square map of side Size, two cells packed per byte in
// row-major order. It is never resized; a world import overwrites it
// wholesale via Reset.
type Grid struct {
	Size  int
	cells []byte
}

// New allocates a Size x Size grid, all cells flag-count zero.
func New(size int) *Grid {
	return &Grid{
		Size:  size,
		cells: make([]byte, (size*size+1)/2),
	}
}

// index returns the byte offset and whether (x,y) occupies the low nibble.
func (g *Grid) index(x, y int) (int, bool) {
	n := x + y*g.Size
	return n / 2, n%2 == 0
}

// Get returns the nibble at (x,y). Caller must range-check; out-of-bounds
// access is undefined.
func (g *Grid) Get(x, y int) byte {
	off, low := g.index(x, y)
	b := g.cells[off]
	if low {
		return b & 0x0f
	}
	return b >> 4
}

// Set writes the nibble at (x,y), leaving the other nibble in the byte
// untouched.
func (g *Grid) Set(x, y int, v byte) {
	off, low := g.index(x, y)
	b := g.cells[off]
	if low {
		g.cells[off] = (b & 0xf0) | (v & 0x0f)
	} else {
		g.cells[off] = (b & 0x0f) | (v << 4)
	}
}

// InBounds reports whether (x,y) lies within [0,Size).
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Size && y >= 0 && y < g.Size
}

// Reset overwrites every cell from a row-major byte slice of length
// Size*Size, translating 255 to the wall nibble and passing 0..MaxFlags
// through unchanged. The caller is responsible for validating input
// values; Reset does not.
func (g *Grid) Reset(cells []byte) {
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			v := cells[x+y*g.Size]
			if v == 255 {
				v = Wall
			}
			g.Set(x, y, v)
		}
	}
}

// Export writes the grid out in the same row-major layout Reset accepts,
// translating the wall nibble back to 255.
func (g *Grid) Export(out []byte) {
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			v := g.Get(x, y)
			if v == Wall {
				v = 255
			}
			out[x+y*g.Size] = v
		}
	}
}
