package replay

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/sim"
)

// commuteFixture is a one-agent two-trip day: bike in the morning, a
// transport failure in the evening.
func commuteFixture() *Fixture {
	return &Fixture{
		Description: "one-agent commute with degraded evening",
		Iteration:   5,
		Scenario: scenario.Config{
			Modes: map[string]scenario.ModeParams{
				"car":  {MarginalUtilityOfTraveling: -6, TeleportSpeed: 10},
				"bike": {MarginalUtilityOfTraveling: -4, TeleportSpeed: 5},
				"walk": {MarginalUtilityOfTraveling: -2},
			},
			NetworkModes:  []string{"car", "bike"},
			Persons:       map[plan.PersonID]scenario.PersonAttributes{"a1": {CarAvail: "always"}},
			TrackedAgents: []plan.PersonID{"a1"},
		},
		Network: map[string]sim.Coord{
			"l1": {X: 0, Y: 0},
			"l5": {X: 300, Y: 400},
		},
		Agents: []FixtureAgent{
			{
				ID: "a1",
				Plan: []FixtureElement{
					{Activity: &FixtureActivity{Type: "Home", Link: "l1", EndTime: "08:00:00"}},
					{Leg: &FixtureLeg{Mode: "car", DepartureTime: "08:00:00", Distance: 500, TravelTime: 60}},
					{Activity: &FixtureActivity{Type: "Work", Link: "l5", StartTime: "09:00:00", EndTime: "17:00:00"}},
					{Leg: &FixtureLeg{Mode: "car", DepartureTime: "17:00:00", Distance: 500, TravelTime: 60}},
					{Activity: &FixtureActivity{Type: "Home", Link: "l1"}},
				},
			},
		},
		Decisions: []FixtureDecision{
			{Mode: "bike"},
			{Fail: "transport"},
		},
		Expected: []ExpectedDecision{
			{Agent: "a1", SimTime: "08:00:00", Mode: "bike"},
			{Agent: "a1", SimTime: "17:00:00", Mode: bridge.TransportFallbackMode, Fallback: true},
		},
	}
}

func TestRunReplaysRecordedDay(t *testing.T) {
	f := commuteFixture()
	res, err := Run(f)
	if err != nil {
		t.Fatal(err)
	}

	if mismatches := Verify(f, res); len(mismatches) != 0 {
		t.Fatalf("unexpected divergence: %+v", mismatches)
	}

	summary := Summarize(res)
	if summary.Departures != 2 || summary.Decisions != 2 || summary.Arrivals != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", summary.Fallbacks)
	}

	// Iteration stamps come from the fixture, not a live clock.
	for _, rec := range res.Decisions {
		if rec.Iteration != 5 {
			t.Fatalf("iteration = %d, want 5", rec.Iteration)
		}
	}
	// Morning arrival reflects the replanned bike trip.
	if res.Arrivals[0].StartDayMode != "bike" {
		t.Fatalf("startDayMode = %s", res.Arrivals[0].StartDayMode)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	first, err := Run(commuteFixture())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(commuteFixture())
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Decisions) != len(second.Decisions) {
		t.Fatal("decision counts differ across runs")
	}
	for i := range first.Decisions {
		a, b := first.Decisions[i], second.Decisions[i]
		if a.Agent != b.Agent || a.SimTime != b.SimTime || a.Mode != b.Mode || a.Fallback != b.Fallback {
			t.Fatalf("run diverged at %d: %+v vs %+v", i, a, b)
		}
	}
}

func TestVerifyFlagsModeDivergence(t *testing.T) {
	f := commuteFixture()
	res, err := Run(f)
	if err != nil {
		t.Fatal(err)
	}
	f.Expected[0].Mode = "car"

	mismatches := Verify(f, res)
	if len(mismatches) != 1 || mismatches[0].Index != 0 {
		t.Fatalf("mismatches = %+v", mismatches)
	}
}

func TestVerifyFlagsCountDrift(t *testing.T) {
	f := commuteFixture()
	res, err := Run(f)
	if err != nil {
		t.Fatal(err)
	}
	f.Expected = f.Expected[:1]

	mismatches := Verify(f, res)
	if len(mismatches) != 1 {
		t.Fatalf("mismatches = %+v", mismatches)
	}
}

func TestRunRejectsBadScript(t *testing.T) {
	f := commuteFixture()
	f.Decisions = []FixtureDecision{{Fail: "dns"}}
	if _, err := Run(f); err == nil {
		t.Fatal("unknown fail kind must error")
	}
}

func TestScriptedDeciderExhaustion(t *testing.T) {
	d := NewScriptedDecider([]bridge.Decision{{Mode: "bike"}})

	first := d.RequestMode(context.Background(), bridge.Observation{AgentID: "a1"})
	if first.Mode != "bike" || first.Fallback {
		t.Fatalf("first = %+v", first)
	}
	second := d.RequestMode(context.Background(), bridge.Observation{AgentID: "a1"})
	if second.Mode != bridge.TransportFallbackMode || !second.Fallback {
		t.Fatalf("exhausted script must degrade: %+v", second)
	}
	if len(d.Observations) != 2 {
		t.Fatalf("observations = %d", len(d.Observations))
	}
}
