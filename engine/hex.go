package engine

import "fmt"

// Hex is a cube coordinate on the map. Invariant: S == -(Q+R).
type Hex struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// NewHex constructs a Hex with S derived from Q and R.
func NewHex(q, r int) Hex { return Hex{Q: q, R: r, S: -(q + r)} }

// Normalize returns h with S corrected to -(Q+R). A mismatched S is a client bug
// and is corrected rather than rejected.
func (h Hex) Normalize() Hex { return NewHex(h.Q, h.R) }

// Valid reports whether the cube identity holds.
func (h Hex) Valid() bool { return h.Q+h.R+h.S == 0 }

// Key returns a compact string key suitable for maps and memo tables.
func (h Hex) Key() string { return fmt.Sprintf("%d,%d", h.Q, h.R) }

func (h Hex) String() string { return fmt.Sprintf("(%d,%d,%d)", h.Q, h.R, h.S) }

// evenColumnOffsets and oddColumnOffsets hold the six (dq, dr) neighbor offsets
// for the backend's column-parity layout.
var (
	evenColumnOffsets = [6][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}, {-1, 1}, {1, 1}}
	oddColumnOffsets  = [6][2]int{{0, -1}, {0, 1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}}
)

// Neighbors returns the six adjacent hexes of h, with S normalized.
func (h Hex) Neighbors() [6]Hex {
	offsets := evenColumnOffsets
	if h.Q%2 != 0 {
		offsets = oddColumnOffsets
	}
	var out [6]Hex
	for i, d := range offsets {
		out[i] = NewHex(h.Q+d[0], h.R+d[1])
	}
	return out
}

// AreAdjacent reports whether a and b share an edge. Only Q and R are compared.
func AreAdjacent(a, b Hex) bool {
	for _, n := range a.Neighbors() {
		if n.Q == b.Q && n.R == b.R {
			return true
		}
	}
	return false
}

// SameTile compares two hexes ignoring S.
func SameTile(a, b Hex) bool { return a.Q == b.Q && a.R == b.R }
