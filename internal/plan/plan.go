// Package plan holds the agent day-plan data model the replanning loop
// operates on: an ordered sequence of activities and legs, plus the trip
// projection derived from it. The simulation engine owns plan instances;
// this package only reads them and splices new trip elements in.
package plan

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region identifiers

// LinkID identifies a network link.
type LinkID string

// PersonID identifies a person in the population.
type PersonID string

// #endregion identifiers

// #region elements

// Element is either an *Activity or a *Leg.
type Element interface {
	planElement()
}

// Activity is a stay at a location. Interaction activities are zero-duration
// stage markers inserted between the legs of a multi-stage trip.
type Activity struct {
	Type      string
	Link      LinkID
	StartTime float64 // simtime.Undefined when unset
	EndTime   float64 // simtime.Undefined when unset
}

func (*Activity) planElement() {}

// IsInteraction reports whether the activity is a stage marker rather than a
// real destination.
func (a *Activity) IsInteraction() bool {
	return strings.Contains(a.Type, "interaction")
}

// Route carries the routed outcome of a leg.
type Route struct {
	Distance   float64 // meters
	TravelTime float64 // seconds
}

// Leg is one movement stage of a trip.
type Leg struct {
	Mode          string
	DepartureTime float64 // simtime.Undefined when unset
	Route         *Route
}

func (*Leg) planElement() {}

// TravelTime returns the routed travel time, or 0 when the leg has no route.
func (l *Leg) TravelTime() float64 {
	if l.Route == nil {
		return 0
	}
	return l.Route.TravelTime
}

// Distance returns the routed distance, or 0 when the leg has no route.
func (l *Leg) Distance() float64 {
	if l.Route == nil {
		return 0
	}
	return l.Route.Distance
}

// #endregion elements

// #region plan

// Plan is an agent's mutable day plan. Element order alternates between
// activities and legs, with interaction activities allowed between legs.
type Plan struct {
	Person   PersonID
	Elements []Element
}

// NewPlan builds a plan from elements.
func NewPlan(person PersonID, elements ...Element) *Plan {
	return &Plan{Person: person, Elements: elements}
}

// IndexOf returns the position of the given element, or -1.
func (p *Plan) IndexOf(el Element) int {
	for i, e := range p.Elements {
		if e == el {
			return i
		}
	}
	return -1
}

// #endregion plan

// #region activities

// StageHandling selects whether interaction activities appear in the
// activity projection of a plan.
type StageHandling int

const (
	// IncludeStageActivities keeps interaction activities.
	IncludeStageActivities StageHandling = iota
	// ExcludeStageActivities drops interaction activities, leaving only real
	// destinations.
	ExcludeStageActivities
)

// Activities returns the plan's activity-only projection.
func Activities(p *Plan, handling StageHandling) []*Activity {
	var acts []*Activity
	for _, e := range p.Elements {
		act, ok := e.(*Activity)
		if !ok {
			continue
		}
		if handling == ExcludeStageActivities && act.IsInteraction() {
			continue
		}
		acts = append(acts, act)
	}
	return acts
}

// #endregion activities

// #region trips

// Trip is a maximal run of legs (and interaction activities) between two real
// activities. Derived on demand, never stored.
type Trip struct {
	Origin      *Activity
	Destination *Activity
	Elements    []Element // everything strictly between origin and destination
}

// Legs returns the legs of the trip in order.
func (t *Trip) Legs() []*Leg {
	var legs []*Leg
	for _, e := range t.Elements {
		if leg, ok := e.(*Leg); ok {
			legs = append(legs, leg)
		}
	}
	return legs
}

// Trips derives the trip projection of a plan. A trip exists between each
// consecutive pair of real activities that has at least one leg between them.
func Trips(p *Plan) []Trip {
	var trips []Trip
	var origin *Activity
	var between []Element

	for _, e := range p.Elements {
		act, ok := e.(*Activity)
		if !ok || act.IsInteraction() {
			if origin != nil {
				between = append(between, e)
			}
			continue
		}
		if origin != nil && hasLeg(between) {
			trips = append(trips, Trip{Origin: origin, Destination: act, Elements: between})
		}
		origin = act
		between = nil
	}
	return trips
}

// FindTripStartingAt returns the trip whose origin is the given activity, or
// nil when no trip follows it.
func FindTripStartingAt(act *Activity, p *Plan) *Trip {
	for _, t := range Trips(p) {
		if t.Origin == act {
			trip := t
			return &trip
		}
	}
	return nil
}

// DepartureTime returns when the trip leaves its origin: the first leg's
// departure time when set, otherwise the origin activity's end time,
// otherwise simtime.Undefined.
func DepartureTime(t *Trip) float64 {
	for _, leg := range t.Legs() {
		if leg.DepartureTime >= 0 {
			return leg.DepartureTime
		}
		break
	}
	if t.Origin != nil && t.Origin.EndTime >= 0 {
		return t.Origin.EndTime
	}
	return simtime.Undefined
}

func hasLeg(elements []Element) bool {
	for _, e := range elements {
		if _, ok := e.(*Leg); ok {
			return true
		}
	}
	return false
}

// #endregion trips

// #region splice

// ReplaceTrip splices new elements between the trip's origin and destination
// activities, discarding the old trip elements. The origin and destination
// must still be present in the plan.
func (p *Plan) ReplaceTrip(t *Trip, elements []Element) error {
	from := p.IndexOf(t.Origin)
	to := p.IndexOf(t.Destination)
	if from < 0 || to < 0 || to <= from {
		return fmt.Errorf("replace trip: origin/destination not found in plan")
	}
	rebuilt := make([]Element, 0, from+1+len(elements)+len(p.Elements)-to)
	rebuilt = append(rebuilt, p.Elements[:from+1]...)
	rebuilt = append(rebuilt, elements...)
	rebuilt = append(rebuilt, p.Elements[to:]...)
	p.Elements = rebuilt
	return nil
}

// #endregion splice
