// Package replay re-executes a recorded simulation day offline: a fixture
// carries the scenario, the population, and the scripted decision answers,
// and the harness drives the full loop without a live decision service. Used
// to pin down divergence between two builds and to regression-test recorded
// days.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/sim"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string               `json:"description"`
	Iteration   int                  `json:"iteration"`
	Scenario    scenario.Config      `json:"scenario"`
	Network     map[string]sim.Coord `json:"network"`
	Agents      []FixtureAgent       `json:"agents"`
	Decisions   []FixtureDecision    `json:"decisions"`
	Expected    []ExpectedDecision   `json:"expected_results"`
}

// FixtureAgent is one agent's day plan in fixture form. Times are day-clock
// strings; an omitted time means undefined.
type FixtureAgent struct {
	ID            string           `json:"id"`
	TransitDriver bool             `json:"transit_driver,omitempty"`
	Plan          []FixtureElement `json:"plan"`
}

// FixtureElement carries exactly one of activity or leg.
type FixtureElement struct {
	Activity *FixtureActivity `json:"activity,omitempty"`
	Leg      *FixtureLeg      `json:"leg,omitempty"`
}

// FixtureActivity mirrors plan.Activity with string times.
type FixtureActivity struct {
	Type      string `json:"type"`
	Link      string `json:"link"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// FixtureLeg mirrors plan.Leg with string times.
type FixtureLeg struct {
	Mode          string  `json:"mode"`
	DepartureTime string  `json:"departure_time,omitempty"`
	Distance      float64 `json:"distance,omitempty"`
	TravelTime    float64 `json:"travel_time,omitempty"`
}

// FixtureDecision scripts the answer to the Nth mode request. Fail simulates
// a degraded service instead of returning Mode: "transport" for an
// unreachable service, "parse" for an unusable answer.
type FixtureDecision struct {
	Mode string `json:"mode,omitempty"`
	Fail string `json:"fail,omitempty"`
}

// ExpectedDecision is the recorded outcome of the Nth mode request.
type ExpectedDecision struct {
	Agent    string `json:"agent"`
	SimTime  string `json:"sim_time"`
	Mode     string `json:"mode"`
	Fallback bool   `json:"fallback,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToNetwork converts the fixture's link table to a harness network.
func (f *Fixture) ToNetwork() sim.Network {
	network := make(sim.Network, len(f.Network))
	for id, coord := range f.Network {
		network[plan.LinkID(id)] = coord
	}
	return network
}

// ToAgents builds harness agents from the fixture population.
func (f *Fixture) ToAgents() ([]*sim.Agent, error) {
	agents := make([]*sim.Agent, 0, len(f.Agents))
	for _, fa := range f.Agents {
		if fa.ID == "" {
			return nil, fmt.Errorf("fixture agent without id")
		}
		elements, err := fa.toElements()
		if err != nil {
			return nil, fmt.Errorf("fixture agent %s: %w", fa.ID, err)
		}
		dayPlan := plan.NewPlan(plan.PersonID(fa.ID), elements...)
		if fa.TransitDriver {
			agents = append(agents, sim.NewTransitDriver(plan.PersonID(fa.ID), dayPlan))
		} else {
			agents = append(agents, sim.NewAgent(plan.PersonID(fa.ID), dayPlan))
		}
	}
	return agents, nil
}

func (fa *FixtureAgent) toElements() ([]plan.Element, error) {
	elements := make([]plan.Element, 0, len(fa.Plan))
	for i, el := range fa.Plan {
		switch {
		case el.Activity != nil && el.Leg != nil:
			return nil, fmt.Errorf("element %d is both activity and leg", i)
		case el.Activity != nil:
			start, err := fixtureTime(el.Activity.StartTime)
			if err != nil {
				return nil, fmt.Errorf("element %d start_time: %w", i, err)
			}
			end, err := fixtureTime(el.Activity.EndTime)
			if err != nil {
				return nil, fmt.Errorf("element %d end_time: %w", i, err)
			}
			elements = append(elements, &plan.Activity{
				Type:      el.Activity.Type,
				Link:      plan.LinkID(el.Activity.Link),
				StartTime: start,
				EndTime:   end,
			})
		case el.Leg != nil:
			dep, err := fixtureTime(el.Leg.DepartureTime)
			if err != nil {
				return nil, fmt.Errorf("element %d departure_time: %w", i, err)
			}
			elements = append(elements, &plan.Leg{
				Mode:          el.Leg.Mode,
				DepartureTime: dep,
				Route:         &plan.Route{Distance: el.Leg.Distance, TravelTime: el.Leg.TravelTime},
			})
		default:
			return nil, fmt.Errorf("element %d is neither activity nor leg", i)
		}
	}
	return elements, nil
}

// ToDecision converts a scripted answer to a bridge decision.
func (fd FixtureDecision) ToDecision() (bridge.Decision, error) {
	switch fd.Fail {
	case "":
		if fd.Mode == "" {
			return bridge.Decision{}, fmt.Errorf("scripted decision needs mode or fail")
		}
		return bridge.Decision{Mode: fd.Mode}, nil
	case "transport":
		return bridge.Decision{
			Mode:     bridge.TransportFallbackMode,
			Fallback: true,
			Reason:   bridge.FallbackTransport,
		}, nil
	case "parse":
		return bridge.Decision{
			Mode:     bridge.ParseFallbackMode,
			Fallback: true,
			Reason:   bridge.FallbackParse,
		}, nil
	default:
		return bridge.Decision{}, fmt.Errorf("unknown fail kind %q", fd.Fail)
	}
}

func fixtureTime(s string) (float64, error) {
	if s == "" {
		return simtime.Undefined, nil
	}
	return simtime.Parse(s)
}

// #endregion fixture-loader
