package obs

import (
	"reflect"
	"testing"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

func testConfig() *scenario.Config {
	return &scenario.Config{
		Modes: map[string]scenario.ModeParams{
			"car":          {MarginalUtilityOfTraveling: -6},
			"bike":         {MarginalUtilityOfTraveling: -4},
			"transit_walk": {MarginalUtilityOfTraveling: -2},
			"ride":         {MarginalUtilityOfTraveling: -6},
			"walk":         {MarginalUtilityOfTraveling: -2},
		},
		NetworkModes: []string{"car", "bike"},
		Persons: map[plan.PersonID]scenario.PersonAttributes{
			"a1": {CarAvail: "never"},
			"a2": {CarAvail: "always"},
		},
	}
}

func morningPlan(person plan.PersonID) (*plan.Plan, *plan.Activity, *plan.Trip) {
	home := &plan.Activity{Type: "Home", Link: "l1", StartTime: simtime.Undefined, EndTime: 28800}
	work := &plan.Activity{Type: "Work", Link: "l5", StartTime: 32400, EndTime: 61200}
	p := plan.NewPlan(person,
		home,
		&plan.Leg{Mode: "car", DepartureTime: 28800, Route: &plan.Route{Distance: 5000, TravelTime: 600}},
		work,
	)
	return p, home, plan.FindTripStartingAt(home, p)
}

func TestBuildObservation(t *testing.T) {
	b := NewBuilder(testConfig())
	p, home, trip := morningPlan("a1")

	o := b.Build(p, home, trip)

	if o.AgentID != "a1" || o.LinkID != "l1" {
		t.Fatalf("identity fields wrong: %+v", o)
	}
	if o.DepartureTime != "08:00:00" || float64(o.DepartureTimeSeconds) != 28800 {
		t.Fatalf("departure fields wrong: %+v", o)
	}
	if o.NextActivityArrivalTime != "09:00:00" || float64(o.NextActivityArrivalSeconds) != 32400 {
		t.Fatalf("arrival fields wrong: %+v", o)
	}
	if o.CarAvailability {
		t.Fatal("carAvail=never must observe as unavailable")
	}
	// ride and walk are excluded from the candidate set ("other" is not configured).
	want := []string{"bike", "car", "transit_walk"}
	if !reflect.DeepEqual(o.PossibleModeSet, want) {
		t.Fatalf("candidate modes = %v, want %v", o.PossibleModeSet, want)
	}
}

func TestBuildCarAvailable(t *testing.T) {
	b := NewBuilder(testConfig())
	p, home, trip := morningPlan("a2")

	if o := b.Build(p, home, trip); !o.CarAvailability {
		t.Fatal("carAvail=always must observe as available")
	}
}

func TestBuildMidnightArrivalReadsAsEndOfDay(t *testing.T) {
	b := NewBuilder(testConfig())
	p, home, trip := morningPlan("a1")
	// Unset next-activity start serializes to midnight.
	plan.Activities(p, plan.ExcludeStageActivities)[1].StartTime = simtime.Undefined

	o := b.Build(p, home, trip)
	if o.NextActivityArrivalTime != "24:00:00" {
		t.Fatalf("expected 24:00:00, got %s", o.NextActivityArrivalTime)
	}
	if float64(o.NextActivityArrivalSeconds) != simtime.EndOfDay {
		t.Fatalf("expected %v, got %v", simtime.EndOfDay, float64(o.NextActivityArrivalSeconds))
	}
}

func TestBuildNoFollowingActivity(t *testing.T) {
	b := NewBuilder(testConfig())
	p, _, trip := morningPlan("a1")
	// Point at the final activity; there is no next arrival to report.
	last := plan.Activities(p, plan.ExcludeStageActivities)[1]

	o := b.Build(p, last, trip)
	if o.NextActivityArrivalTime != "00:00:00" || float64(o.NextActivityArrivalSeconds) != 0 {
		t.Fatalf("expected zero defaults, got %+v", o)
	}
}

func TestBuildUnsetDepartureDegradesToZero(t *testing.T) {
	b := NewBuilder(testConfig())
	p, home, trip := morningPlan("a1")
	trip.Legs()[0].DepartureTime = simtime.Undefined
	home.EndTime = simtime.Undefined

	o := b.Build(p, home, trip)
	if o.DepartureTime != "00:00:00" || float64(o.DepartureTimeSeconds) != 0 {
		t.Fatalf("expected zero departure defaults, got %+v", o)
	}
}
