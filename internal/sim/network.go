package sim

import (
	"math"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
)

// #region network

// Coord is a planar link coordinate.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Network maps link IDs to coordinates. The harness only needs positions;
// real network topology stays with the external engine.
type Network map[plan.LinkID]Coord

// Beeline returns the straight-line distance between two links in meters.
// Unknown links count as the origin, degrading to zero distance.
func (n Network) Beeline(from, to plan.LinkID) float64 {
	a, b := n[from], n[to]
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// #endregion network
