package replan

import (
	"fmt"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
)

// #region mutator

// TripMutator rewires an agent's upcoming trip for a chosen mode. The router
// and vehicle registry are constructor parameters; the mutator holds no
// engine internals of its own.
type TripMutator struct {
	cfg      *scenario.Config
	router   TripRouter
	vehicles VehicleProvider
}

// NewTripMutator creates a TripMutator.
func NewTripMutator(cfg *scenario.Config, router TripRouter, vehicles VehicleProvider) *TripMutator {
	return &TripMutator{cfg: cfg, router: router, vehicles: vehicles}
}

// #endregion mutator

// #region replan-trip

// ReplanTrip replaces the trip's elements with a newly routed itinerary for
// mode, provisioning a vehicle first when the mode needs one. Idempotent per
// (agent, mode): repeated calls never create a second vehicle.
func (m *TripMutator) ReplanTrip(p *plan.Plan, trip *plan.Trip, mode string, departureTime float64) error {
	m.ensureVehicle(p.Person, mode, trip.Origin.Link)

	elements, err := m.router.RouteTrip(p.Person, mode, trip.Origin, trip.Destination, departureTime)
	if err != nil {
		return fmt.Errorf("route trip for %s (%s): %w", p.Person, mode, err)
	}
	if err := p.ReplaceTrip(trip, elements); err != nil {
		return fmt.Errorf("splice trip for %s: %w", p.Person, err)
	}
	return nil
}

// ensureVehicle parks a vehicle for network modes at the agent's current
// link unless one already exists. Routing a vehicle-based mode requires the
// vehicle to be present beforehand.
func (m *TripMutator) ensureVehicle(person plan.PersonID, mode string, link plan.LinkID) {
	if !m.cfg.IsNetworkMode(mode) {
		return
	}
	vehicleID := VehicleID(person, mode)
	if m.vehicles.HasVehicle(vehicleID) {
		return
	}
	m.vehicles.ParkVehicle(vehicleID, mode, link)
}

// VehicleID is the deterministic per-agent-per-mode vehicle identifier.
func VehicleID(person plan.PersonID, mode string) string {
	return string(person) + "_" + mode
}

// #endregion replan-trip
