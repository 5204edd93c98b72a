package replan

import (
	"context"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
)

// #region engine-surface

// Agent is the engine-side view of a simulated traveler handed to the
// replanning hook.
type Agent interface {
	ID() plan.PersonID
	// ExecutedPlan returns the modifiable plan being executed, or nil.
	ExecutedPlan() *plan.Plan
	// CurrentElement returns the plan element the agent is currently at.
	CurrentElement() plan.Element
	// TransitDriver reports whether the agent operates a shared/public
	// transit vehicle. Drivers are never replanned.
	TransitDriver() bool
}

// TripRouter produces a freshly routed element sequence for a trip in the
// given mode. Supplied by the simulation engine.
type TripRouter interface {
	RouteTrip(person plan.PersonID, mode string, origin, destination *plan.Activity, departureTime float64) ([]plan.Element, error)
}

// VehicleProvider is the engine's parked-vehicle registry, injected at
// construction time.
type VehicleProvider interface {
	HasVehicle(vehicleID string) bool
	ParkVehicle(vehicleID, mode string, link plan.LinkID)
}

// Decider answers mode queries. Satisfied by *bridge.Client.
type Decider interface {
	RequestMode(ctx context.Context, obs bridge.Observation) bridge.Decision
}

// #endregion engine-surface

// #region state

// State is the trigger's position in one replanning traversal.
type State int

const (
	StateIdle State = iota
	StateObserving
	StateAwaitingDecision
	StateMutating
	StateDone
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateObserving:
		return "observing"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateMutating:
		return "mutating"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// #endregion state

// #region outcome

// Outcome reports one trigger traversal. Performed is false for the
// structural no-op cases (transit driver, no plan, no following trip) and for
// a failed mutation.
type Outcome struct {
	Performed bool
	Decision  bridge.Decision
	// Skipped names the no-op cause when Performed is false and no decision
	// was requested.
	Skipped string
}

// #endregion outcome
