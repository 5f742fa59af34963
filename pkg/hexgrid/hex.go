// Package hexgrid provides axial hex coordinates and wormhole connectivity
// for the galaxy map. Tiles are pointy-top hexes addressed by (q, r); each
// tile carries a six-bit wormhole mask indicating which edges have an open
// wormhole after the tile's rotation is applied.
package hexgrid

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// directions lists the six neighbor offsets in edge order 0-5.
var directions = [6]Coord{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

// Neighbors returns the six adjacent coordinates in edge order.
func (c Coord) Neighbors() [6]Coord {
	var n [6]Coord
	for i, d := range directions {
		n[i] = Coord{c.Q + d.Q, c.R + d.R}
	}
	return n
}

// Adjacent reports whether o shares an edge with c.
func (c Coord) Adjacent(o Coord) bool {
	_, ok := Direction(c, o)
	return ok
}

// Direction returns the edge index (0-5) from a to b, or false if the
// coordinates are not adjacent.
func Direction(a, b Coord) (int, bool) {
	dq, dr := b.Q-a.Q, b.R-a.R
	for i, d := range directions {
		if d.Q == dq && d.R == dr {
			return i, true
		}
	}
	return 0, false
}

// Opposite returns the edge index facing back toward d.
func Opposite(d int) int {
	return (d + 3) % 6
}

// WormholeMask is a bitmask over the six tile edges; bit i set means the
// tile has a wormhole on edge i.
type WormholeMask uint8

// Has reports whether the mask has a wormhole on edge d.
func (m WormholeMask) Has(d int) bool {
	return m&(1<<uint(d%6)) != 0
}

// Rotate returns the mask with all edges shifted by rotation steps
// (one step = one sixth of a turn clockwise).
func (m WormholeMask) Rotate(rotation int) WormholeMask {
	rotation %= 6
	if rotation < 0 {
		rotation += 6
	}
	var out WormholeMask
	for d := 0; d < 6; d++ {
		if m.Has(d) {
			out |= 1 << uint((d+rotation)%6)
		}
	}
	return out
}

// MaskOf builds a mask from a list of edge indices.
func MaskOf(edges ...int) WormholeMask {
	var m WormholeMask
	for _, d := range edges {
		m |= 1 << uint(d%6)
	}
	return m
}

// WormholeConnected reports whether two tiles are adjacent and joined by a
// wormhole: tile a must have a wormhole on the edge facing b AND tile b a
// wormhole on the edge facing back. Masks are post-rotation.
func WormholeConnected(a Coord, maskA WormholeMask, b Coord, maskB WormholeMask) bool {
	d, ok := Direction(a, b)
	if !ok {
		return false
	}
	return maskA.Has(d) && maskB.Has(Opposite(d))
}
