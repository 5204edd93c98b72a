package sim

import "github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"

// #region agent

// Agent is the harness traveler. It satisfies the replanning hook's agent
// surface and tracks the current plan position the way the engine would.
type Agent struct {
	id            plan.PersonID
	dayPlan       *plan.Plan
	currentIdx    int
	transitDriver bool
	done          bool
}

// NewAgent creates an agent positioned at its first plan element.
func NewAgent(id plan.PersonID, dayPlan *plan.Plan) *Agent {
	return &Agent{id: id, dayPlan: dayPlan}
}

// NewTransitDriver creates an agent excluded from replanning.
func NewTransitDriver(id plan.PersonID, dayPlan *plan.Plan) *Agent {
	return &Agent{id: id, dayPlan: dayPlan, transitDriver: true}
}

// ID returns the agent's person ID.
func (a *Agent) ID() plan.PersonID { return a.id }

// ExecutedPlan returns the modifiable plan being executed.
func (a *Agent) ExecutedPlan() *plan.Plan { return a.dayPlan }

// CurrentElement returns the element the agent is currently at, or nil when
// the plan is exhausted.
func (a *Agent) CurrentElement() plan.Element {
	if a.dayPlan == nil || a.currentIdx >= len(a.dayPlan.Elements) {
		return nil
	}
	return a.dayPlan.Elements[a.currentIdx]
}

// CurrentIndex returns the agent's plan position.
func (a *Agent) CurrentIndex() int { return a.currentIdx }

// TransitDriver reports whether the agent operates a transit vehicle.
func (a *Agent) TransitDriver() bool { return a.transitDriver }

// moveTo repositions the agent at the given plan index.
func (a *Agent) moveTo(idx int) { a.currentIdx = idx }

// #endregion agent
