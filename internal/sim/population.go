package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region file-schema

// populationFile is the on-disk harness input: link coordinates plus one day
// plan per agent. Times are day-clock strings ("08:00:00"); omitted times
// mean undefined.
type populationFile struct {
	Network map[plan.LinkID]Coord `json:"network"`
	Agents  []agentSpec           `json:"agents"`
}

type agentSpec struct {
	ID            plan.PersonID `json:"id"`
	TransitDriver bool          `json:"transitDriver,omitempty"`
	Plan          []elementSpec `json:"plan"`
}

// elementSpec carries exactly one of activity or leg.
type elementSpec struct {
	Activity *activitySpec `json:"activity,omitempty"`
	Leg      *legSpec      `json:"leg,omitempty"`
}

type activitySpec struct {
	Type      string      `json:"type"`
	Link      plan.LinkID `json:"link"`
	StartTime string      `json:"startTime,omitempty"`
	EndTime   string      `json:"endTime,omitempty"`
}

type legSpec struct {
	Mode          string  `json:"mode"`
	DepartureTime string  `json:"departureTime,omitempty"`
	Distance      float64 `json:"distance,omitempty"`
	TravelTime    float64 `json:"travelTime,omitempty"`
}

// #endregion file-schema

// #region loading

// LoadPopulation reads the harness network and agents from a JSON file.
func LoadPopulation(path string) (Network, []*Agent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read population: %w", err)
	}
	var file populationFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse population: %w", err)
	}

	network := Network(file.Network)
	if network == nil {
		network = Network{}
	}

	agents := make([]*Agent, 0, len(file.Agents))
	for _, spec := range file.Agents {
		if spec.ID == "" {
			return nil, nil, fmt.Errorf("population: agent without id")
		}
		elements, err := buildElements(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("population: agent %s: %w", spec.ID, err)
		}
		dayPlan := plan.NewPlan(spec.ID, elements...)
		if spec.TransitDriver {
			agents = append(agents, NewTransitDriver(spec.ID, dayPlan))
		} else {
			agents = append(agents, NewAgent(spec.ID, dayPlan))
		}
	}
	return network, agents, nil
}

func buildElements(spec agentSpec) ([]plan.Element, error) {
	elements := make([]plan.Element, 0, len(spec.Plan))
	for i, el := range spec.Plan {
		switch {
		case el.Activity != nil && el.Leg != nil:
			return nil, fmt.Errorf("element %d is both activity and leg", i)
		case el.Activity != nil:
			start, err := parseOptionalTime(el.Activity.StartTime)
			if err != nil {
				return nil, fmt.Errorf("element %d startTime: %w", i, err)
			}
			end, err := parseOptionalTime(el.Activity.EndTime)
			if err != nil {
				return nil, fmt.Errorf("element %d endTime: %w", i, err)
			}
			elements = append(elements, &plan.Activity{
				Type:      el.Activity.Type,
				Link:      el.Activity.Link,
				StartTime: start,
				EndTime:   end,
			})
		case el.Leg != nil:
			dep, err := parseOptionalTime(el.Leg.DepartureTime)
			if err != nil {
				return nil, fmt.Errorf("element %d departureTime: %w", i, err)
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

func parseOptionalTime(s string) (float64, error) {
	if s == "" {
		return simtime.Undefined, nil
	}
	return simtime.Parse(s)
}

// #endregion loading
