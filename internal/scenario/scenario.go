// Package scenario carries the slice of simulation configuration the
// replanning loop consumes: the scored mode universe, network-capable modes,
// per-mode scoring weights, person attributes, and the tracked-agent set.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
)

// #region mode-params

// ModeParams holds the scoring weights and harness routing parameters for one
// travel mode.
type ModeParams struct {
	// MarginalUtilityOfTraveling is utils per hour of travel (usually negative).
	MarginalUtilityOfTraveling float64 `json:"marginal_utility_of_traveling_hr"`
	// MarginalUtilityOfDistance is utils per meter (usually negative or zero).
	MarginalUtilityOfDistance float64 `json:"marginal_utility_of_distance_m"`
	// Constant is the mode-specific alternative constant.
	Constant float64 `json:"constant"`

	// TeleportSpeed is the beeline speed in m/s used by the harness router.
	TeleportSpeed float64 `json:"teleport_speed,omitempty"`
}

// #endregion mode-params

// #region config

// PersonAttributes mirrors the population attributes the loop reads.
type PersonAttributes struct {
	CarAvail string `json:"car_avail"` // "always", "never", "sometimes"
}

// Config is the scenario slice handed to the replanning components.
type Config struct {
	// Modes is the scoring-configured mode universe.
	Modes map[string]ModeParams `json:"modes"`
	// NetworkModes are modes that move on the network and need a vehicle.
	NetworkModes []string `json:"network_modes"`
	// Persons maps person IDs to their attributes.
	Persons map[plan.PersonID]PersonAttributes `json:"persons"`
	// TrackedAgents is the set of agent IDs governed by the decision loop.
	TrackedAgents []plan.PersonID `json:"tracked_agents"`

	networkModeSet map[string]bool
	trackedSet     map[plan.PersonID]bool
}

// Load reads a scenario config from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &cfg, nil
}

// #endregion config

// #region queries

// AllModes returns the scored mode universe in stable order.
func (c *Config) AllModes() []string {
	modes := make([]string, 0, len(c.Modes))
	for m := range c.Modes {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// IsNetworkMode reports whether the mode requires a vehicle on the network.
func (c *Config) IsNetworkMode(mode string) bool {
	if c.networkModeSet == nil {
		c.networkModeSet = make(map[string]bool, len(c.NetworkModes))
		for _, m := range c.NetworkModes {
			c.networkModeSet[m] = true
		}
	}
	return c.networkModeSet[mode]
}

// CarAvailable reports whether the person may use a car. Only the literal
// attribute value "always" counts as available.
func (c *Config) CarAvailable(person plan.PersonID) bool {
	return c.Persons[person].CarAvail == "always"
}

// Tracked reports whether the agent is governed by the decision loop.
func (c *Config) Tracked(person plan.PersonID) bool {
	if c.trackedSet == nil {
		c.trackedSet = make(map[plan.PersonID]bool, len(c.TrackedAgents))
		for _, id := range c.TrackedAgents {
			c.trackedSet[id] = true
		}
	}
	return c.trackedSet[person]
}

// #endregion queries

// #region disutility

// LegDisutility scores one leg:
//
//	U = time * (marginalUtilityOfTraveling / 3600) + distance * marginalUtilityOfDistance + constant
//
// Legs whose mode carries no scoring params contribute zero; ok reports
// whether params were found.
func (c *Config) LegDisutility(mode string, travelTimeSeconds, distanceMeters float64) (disutility float64, ok bool) {
	params, found := c.Modes[mode]
	if !found {
		return 0, false
	}
	betaTime := params.MarginalUtilityOfTraveling / 3600.0
	return travelTimeSeconds*betaTime + distanceMeters*params.MarginalUtilityOfDistance + params.Constant, true
}

// #endregion disutility
