// Package reward turns completed plan segments into arrival reports. On each
// activity start of a tracked agent it checks whether a trip destination was
// reached and, if so, walks the plan backward over the finished segment to
// sum travel time, distance, disutility, and transfers, then forwards the
// result to the decision service without blocking the event path.
package reward

import (
	"log"
	"strings"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
)

// #region types

// ActivityStartEvent is raised by the engine when an agent begins an
// activity.
type ActivityStartEvent struct {
	Time    float64
	Person  plan.PersonID
	Link    plan.LinkID
	ActType string
}

// PlanProvider resolves an agent's executed plan and current element index at
// event time. Supplied by the simulation engine.
type PlanProvider interface {
	ExecutedPlan(id plan.PersonID) (p *plan.Plan, currentIndex int, ok bool)
}

// Reporter delivers arrival reports. Satisfied by *bridge.Client.
type Reporter interface {
	ReportArrival(report bridge.ArrivalReport)
}

// Summary is the accumulated outcome of one completed plan segment.
type Summary struct {
	TravelTimeSeconds float64
	DistanceMeters    float64
	Disutility        float64
	InteractionCount  int
	StartDayMode      string
}

// Transfers converts the interaction count to a transfer count. Integer
// division makes short segments come out negative (one interaction yields
// -1); that boundary is preserved, not clamped.
func (s Summary) Transfers() int {
	return s.InteractionCount/2 - 1
}

// #endregion types

// #region aggregator

// Aggregator consumes activity-start events for tracked agents.
type Aggregator struct {
	cfg      *scenario.Config
	provider PlanProvider
	reporter Reporter
}

// NewAggregator creates an Aggregator.
func NewAggregator(cfg *scenario.Config, provider PlanProvider, reporter Reporter) *Aggregator {
	return &Aggregator{cfg: cfg, provider: provider, reporter: reporter}
}

// #endregion aggregator

// #region handle-event

// HandleActivityStart processes one event. Arrivals at interaction
// activities and untracked agents produce no report; a tracked arrival at a
// main activity produces exactly one.
func (a *Aggregator) HandleActivityStart(event ActivityStartEvent) {
	if !a.cfg.Tracked(event.Person) {
		return
	}
	executedPlan, currentIdx, ok := a.provider.ExecutedPlan(event.Person)
	if !ok {
		return
	}

	summary, reached := a.Summarize(executedPlan, currentIdx, event.ActType)
	if !reached {
		return
	}

	log.Printf("[REWARD] agent=%s act=%s time=%.0f dist=%.0f transfers=%d",
		event.Person, event.ActType, summary.TravelTimeSeconds, summary.DistanceMeters, summary.Transfers())

	a.reporter.ReportArrival(bridge.ArrivalReport{
		AgentID:           string(event.Person),
		TravelTimeSeconds: bridge.Fixed1(summary.TravelTimeSeconds),
		NumberOfTransfers: summary.Transfers(),
		Distance:          bridge.Fixed2(summary.DistanceMeters),
		TravelDisutility:  bridge.Fixed2(summary.Disutility),
		StartDayMode:      summary.StartDayMode,
	})
}

// #endregion handle-event

// #region summarize

// Summarize walks the plan backward from the element before currentIdx until
// the previous main activity (or plan start), accumulating the finished
// segment. reached is false when actType is not one of the day's trip
// destinations.
func (a *Aggregator) Summarize(p *plan.Plan, currentIdx int, actType string) (Summary, bool) {
	trips := plan.Trips(p)
	if len(trips) == 0 {
		return Summary{}, false
	}

	mainActivities := make(map[string]bool, len(trips))
	for _, t := range trips {
		mainActivities[t.Destination.Type] = true
	}
	if !mainActivities[actType] {
		return Summary{}, false
	}

	summary := Summary{StartDayMode: startDayMode(trips[0])}

	if currentIdx > len(p.Elements) {
		currentIdx = len(p.Elements)
	}
	for i := currentIdx - 1; i >= 0; i-- {
		switch el := p.Elements[i].(type) {
		case *plan.Leg:
			summary.DistanceMeters += el.Distance()
			summary.TravelTimeSeconds += el.TravelTime()
			if disutility, scored := a.cfg.LegDisutility(el.Mode, el.TravelTime(), el.Distance()); scored {
				summary.Disutility += disutility
			}
		case *plan.Activity:
			if mainActivities[el.Type] {
				return summary, true
			}
			if el.IsInteraction() {
				summary.InteractionCount++
			}
		}
	}
	return summary, true
}

// startDayMode is the mode of the day's first real leg: the first leg of the
// first trip whose mode is not a walk stage.
func startDayMode(first plan.Trip) string {
	for _, leg := range first.Legs() {
		if !strings.Contains(leg.Mode, "walk") {
			return leg.Mode
		}
	}
	return "unknown"
}

// #endregion summarize
