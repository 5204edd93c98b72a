package sim

import (
	"fmt"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region constants

// Route synthesis parameters for the harness router.
const (
	beelineFactor      = 1.3
	defaultSpeed       = 4.0 / 3.6 // m/s, used when a mode has no teleport speed
	accessWalkDistance = 25.0
	accessWalkSpeed    = 0.83 // m/s
)

// #endregion constants

// #region beeline-router

// BeelineRouter synthesizes routed trip elements from link coordinates and
// per-mode teleport speeds. Network modes get MATSim-style trip structure:
// walk access, interaction, main leg, interaction, walk egress. Teleported
// modes collapse to a single leg.
type BeelineRouter struct {
	cfg     *scenario.Config
	network Network
}

// NewBeelineRouter creates a BeelineRouter.
func NewBeelineRouter(cfg *scenario.Config, network Network) *BeelineRouter {
	return &BeelineRouter{cfg: cfg, network: network}
}

// RouteTrip implements the trip-routing surface the mutator consumes.
func (r *BeelineRouter) RouteTrip(person plan.PersonID, mode string, origin, destination *plan.Activity, departureTime float64) ([]plan.Element, error) {
	if origin == nil || destination == nil {
		return nil, fmt.Errorf("route %s for %s: trip endpoints missing", mode, person)
	}

	distance := r.network.Beeline(origin.Link, destination.Link) * beelineFactor
	speed := defaultSpeed
	if params, ok := r.cfg.Modes[mode]; ok && params.TeleportSpeed > 0 {
		speed = params.TeleportSpeed
	}
	mainTime := distance / speed

	main := &plan.Leg{
		Mode:          mode,
		DepartureTime: departureTime,
		Route:         &plan.Route{Distance: distance, TravelTime: mainTime},
	}

	if !r.cfg.IsNetworkMode(mode) {
		return []plan.Element{main}, nil
	}

	// Vehicle-based modes start and end with a short walk to/from the
	// parked vehicle, bracketed by interaction markers.
	accessTime := accessWalkDistance / accessWalkSpeed
	main.DepartureTime = departureTime + accessTime
	access := &plan.Leg{
		Mode:          "walk",
		DepartureTime: departureTime,
		Route:         &plan.Route{Distance: accessWalkDistance, TravelTime: accessTime},
	}
	egress := &plan.Leg{
		Mode:          "walk",
		DepartureTime: main.DepartureTime + mainTime,
		Route:         &plan.Route{Distance: accessWalkDistance, TravelTime: accessTime},
	}
	return []plan.Element{
		access,
		&plan.Activity{Type: mode + " interaction", Link: origin.Link, StartTime: simtime.Undefined, EndTime: simtime.Undefined},
		main,
		&plan.Activity{Type: mode + " interaction", Link: destination.Link, StartTime: simtime.Undefined, EndTime: simtime.Undefined},
		egress,
	}, nil
}

// #endregion beeline-router
