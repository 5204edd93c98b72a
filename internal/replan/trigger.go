// Package replan intercepts agents at their activity-to-trip transitions and
// runs the observe → decide → act cycle: build an observation, block on the
// decision service for a mode, audit the decision, and rewire the upcoming
// trip. One traversal per (agent, transition); structural mismatches are
// no-ops, never errors.
package replan

import (
	"context"
	"log"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/obs"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simclock"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region trigger-struct

// Trigger orchestrates Observation Builder → Decision Client → Trip Mutator
// for one engine replanning hook.
type Trigger struct {
	builder *obs.Builder
	decider Decider
	mutator *TripMutator
	sink    audit.Sink
	clock   *simclock.Tracker
}

// NewTrigger wires a Trigger. sink may be nil when no audit trail is wanted.
func NewTrigger(builder *obs.Builder, decider Decider, mutator *TripMutator, sink audit.Sink, clock *simclock.Tracker) *Trigger {
	return &Trigger{builder: builder, decider: decider, mutator: mutator, sink: sink, clock: clock}
}

// #endregion trigger-struct

// #region do-replanning

// DoReplanning runs one traversal of the state machine for the given agent at
// the given simulation time. Safe to call repeatedly for ineligible agents;
// it never raises past this boundary.
func (t *Trigger) DoReplanning(ctx context.Context, agent Agent, simTime float64) Outcome {
	state := StateObserving

	if agent.TransitDriver() {
		return t.skip(agent, state, "transit_driver")
	}
	executedPlan := agent.ExecutedPlan()
	if executedPlan == nil {
		return t.skip(agent, state, "no_executed_plan")
	}
	currentActivity, ok := agent.CurrentElement().(*plan.Activity)
	if !ok {
		return t.skip(agent, state, "not_at_activity")
	}
	trip := plan.FindTripStartingAt(currentActivity, executedPlan)
	if trip == nil {
		return t.skip(agent, state, "no_following_trip")
	}

	observation := t.builder.Build(executedPlan, currentActivity, trip)

	state = StateAwaitingDecision
	decision := t.decider.RequestMode(ctx, observation)

	state = StateMutating
	iteration := t.clock.Current()
	t.audit(audit.Record{
		Iteration: iteration,
		SimTime:   simTime,
		Agent:     agent.ID(),
		Mode:      decision.Mode,
		Fallback:  decision.Fallback,
		Reason:    string(decision.Reason),
	})

	departure := plan.DepartureTime(trip)
	if departure < 0 {
		departure = simTime
	}
	if err := t.mutator.ReplanTrip(executedPlan, trip, decision.Mode, departure); err != nil {
		log.Printf("[REPLAN] iter=%d t=%s agent=%s mutation failed: %v",
			iteration, simtime.Write(simTime), agent.ID(), err)
		return Outcome{Performed: false, Decision: decision, Skipped: "mutation_failed"}
	}

	state = StateDone
	log.Printf("[REPLAN] iter=%d t=%s agent=%s mode=%s fallback=%v state=%s",
		iteration, simtime.Write(simTime), agent.ID(), decision.Mode, decision.Fallback, state)
	return Outcome{Performed: true, Decision: decision}
}

// skip ends a traversal without replanning.
func (t *Trigger) skip(agent Agent, from State, cause string) Outcome {
	log.Printf("[REPLAN] agent=%s state=%s→%s skip=%s", agent.ID(), from, StateDone, cause)
	return Outcome{Performed: false, Skipped: cause}
}

// audit writes the decision record. Audit failures are logged and swallowed;
// they must never abort the mutation that follows.
func (t *Trigger) audit(rec audit.Record) {
	if t.sink == nil {
		return
	}
	if err := t.sink.Record(rec); err != nil {
		log.Printf("[REPLAN] audit record for %s failed: %v", rec.Agent, err)
	}
}

// #endregion do-replanning
