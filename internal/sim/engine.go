// Package sim is a deterministic in-process stand-in for the transport
// microsimulation engine: agents advance through their day plans, trips are
// executed leg by leg, activity starts are fanned out to event handlers, and
// a replanning hook fires once per activity-to-trip transition. It exists so
// the decision loop can be driven end to end without the external engine.
package sim

import (
	"context"
	"log"
	"sort"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/reward"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region surfaces

// Replanner is the hook invoked when an agent is about to leave an activity.
type Replanner interface {
	DoReplanning(ctx context.Context, agent replan.Agent, simTime float64) replan.Outcome
}

// ActivityStartHandler consumes activity-start events.
type ActivityStartHandler interface {
	HandleActivityStart(event reward.ActivityStartEvent)
}

// Vehicle is a parked vehicle in the harness registry.
type Vehicle struct {
	Mode string
	Link plan.LinkID
}

// #endregion surfaces

// #region engine-struct

// Engine drives the agents through one simulated day.
type Engine struct {
	network  Network
	agents   []*Agent
	byID     map[plan.PersonID]*Agent
	vehicles map[string]Vehicle

	replanner Replanner
	handlers  []ActivityStartHandler
}

// NewEngine creates an empty engine over the given network.
func NewEngine(network Network) *Engine {
	return &Engine{
		network:  network,
		byID:     make(map[plan.PersonID]*Agent),
		vehicles: make(map[string]Vehicle),
	}
}

// AddAgent registers an agent.
func (e *Engine) AddAgent(a *Agent) {
	e.agents = append(e.agents, a)
	e.byID[a.ID()] = a
}

// SetReplanner installs the replanning hook.
func (e *Engine) SetReplanner(r Replanner) { e.replanner = r }

// AddActivityStartHandler subscribes a handler to activity-start events.
func (e *Engine) AddActivityStartHandler(h ActivityStartHandler) {
	e.handlers = append(e.handlers, h)
}

// #endregion engine-struct

// #region vehicles

// HasVehicle reports whether a vehicle with the given ID is registered.
func (e *Engine) HasVehicle(vehicleID string) bool {
	_, ok := e.vehicles[vehicleID]
	return ok
}

// ParkVehicle registers a vehicle at a link.
func (e *Engine) ParkVehicle(vehicleID, mode string, link plan.LinkID) {
	e.vehicles[vehicleID] = Vehicle{Mode: mode, Link: link}
}

// Vehicles returns a copy of the registry.
func (e *Engine) Vehicles() map[string]Vehicle {
	out := make(map[string]Vehicle, len(e.vehicles))
	for id, v := range e.vehicles {
		out[id] = v
	}
	return out
}

// #endregion vehicles

// #region plan-provider

// ExecutedPlan resolves an agent's plan and current position; the surface
// the reward aggregator reads at event time.
func (e *Engine) ExecutedPlan(id plan.PersonID) (*plan.Plan, int, bool) {
	a, ok := e.byID[id]
	if !ok {
		return nil, 0, false
	}
	return a.ExecutedPlan(), a.CurrentIndex(), true
}

// #endregion plan-provider

// #region run

// RunStats summarizes one simulated day.
type RunStats struct {
	Departures int
	Arrivals   int
}

// departure is one scheduled activity end.
type departure struct {
	time  float64
	seq   int
	agent *Agent
}

// Run executes the day: every agent leaves each activity at its end time,
// the replanning hook fires before the trip executes, and arrivals raise
// activity-start events. Returns when all agents have finished their plans.
func (e *Engine) Run(ctx context.Context) RunStats {
	var queue []departure
	seq := 0
	for _, a := range e.agents {
		if act, ok := a.CurrentElement().(*plan.Activity); ok && act.EndTime >= 0 {
			queue = append(queue, departure{time: act.EndTime, seq: seq, agent: a})
			seq++
		}
	}

	var stats RunStats
	for len(queue) > 0 {
		sort.Slice(queue, func(i, j int) bool {
			if queue[i].time != queue[j].time {
				return queue[i].time < queue[j].time
			}
			return queue[i].seq < queue[j].seq
		})
		ev := queue[0]
		queue = queue[1:]
		stats.Departures++

		next, arrived := e.depart(ctx, ev)
		if arrived {
			stats.Arrivals++
		}
		if next != nil {
			next.seq = seq
			seq++
			queue = append(queue, *next)
		}
	}
	return stats
}

// depart processes one activity end: replan, execute the following trip, and
// raise the arrival. Returns the agent's next departure, if any.
func (e *Engine) depart(ctx context.Context, ev departure) (*departure, bool) {
	a := ev.agent
	act, ok := a.CurrentElement().(*plan.Activity)
	if !ok {
		return nil, false
	}

	if e.replanner != nil {
		e.replanner.DoReplanning(ctx, a, ev.time)
	}

	// Re-derive the trip: replanning may have swapped its elements.
	trip := plan.FindTripStartingAt(act, a.ExecutedPlan())
	if trip == nil {
		a.done = true
		return nil, false
	}

	arrival := ev.time
	for _, leg := range trip.Legs() {
		arrival += leg.TravelTime()
	}

	destIdx := a.ExecutedPlan().IndexOf(trip.Destination)
	if destIdx < 0 {
		log.Printf("[SIM] agent=%s lost trip destination, stopping", a.ID())
		a.done = true
		return nil, false
	}
	a.moveTo(destIdx)

	event := reward.ActivityStartEvent{
		Time:    arrival,
		Person:  a.ID(),
		Link:    trip.Destination.Link,
		ActType: trip.Destination.Type,
	}
	for _, h := range e.handlers {
		h.HandleActivityStart(event)
	}

	if trip.Destination.EndTime < 0 {
		a.done = true
		return nil, true
	}
	departAt := trip.Destination.EndTime
	if departAt < arrival {
		departAt = arrival
	}
	log.Printf("[SIM] agent=%s arrived %s at %s, departs %s",
		a.ID(), trip.Destination.Type, simtime.Write(arrival), simtime.Write(departAt))
	return &departure{time: departAt, agent: a}, true
}

// #endregion run
