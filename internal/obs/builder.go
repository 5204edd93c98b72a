// Package obs assembles the decision-context snapshot for an agent that is
// about to start a trip. Building an observation is pure and never fails:
// missing optional values degrade to zero/false defaults.
package obs

import (
	"strings"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region builder

// Builder constructs observations against one scenario config.
type Builder struct {
	cfg *scenario.Config
}

// NewBuilder creates a Builder.
func NewBuilder(cfg *scenario.Config) *Builder {
	return &Builder{cfg: cfg}
}

// #endregion builder

// #region build

// Build snapshots the agent's decision context. currentActivity must be the
// agent's present plan position and trip the trip immediately following it.
func (b *Builder) Build(p *plan.Plan, currentActivity *plan.Activity, trip *plan.Trip) bridge.Observation {
	departure := plan.DepartureTime(trip)
	if departure < 0 {
		departure = 0
	}

	arrivalFormatted, arrivalSeconds := b.nextArrival(p, currentActivity)

	return bridge.Observation{
		AgentID:                    string(p.Person),
		LinkID:                     string(currentActivity.Link),
		DepartureTime:              simtime.Write(departure),
		NextActivityArrivalTime:    arrivalFormatted,
		NextActivityArrivalSeconds: bridge.Fixed1(arrivalSeconds),
		DepartureTimeSeconds:       bridge.Fixed1(departure),
		CarAvailability:            b.cfg.CarAvailable(p.Person),
		PossibleModeSet:            b.candidateModes(),
	}
}

// nextArrival finds the planned start time of the real activity following the
// current one. A stored value that serializes to midnight is read as the end
// of the day; when no following activity exists the zero defaults stand.
func (b *Builder) nextArrival(p *plan.Plan, current *plan.Activity) (string, float64) {
	formatted := "00:00:00"
	seconds := 0.0

	activities := plan.Activities(p, plan.ExcludeStageActivities)
	for i, act := range activities {
		if act != current {
			continue
		}
		if i+1 >= len(activities) {
			break
		}
		next := activities[i+1].StartTime
		if next < 0 {
			next = 0
		}
		formatted = simtime.Write(next)
		if formatted == "00:00:00" {
			formatted = "24:00:00"
		}
		if parsed, err := simtime.Parse(formatted); err == nil {
			seconds = parsed
		}
		break
	}
	return formatted, seconds
}

// candidateModes is the scored mode universe minus the modes the decision
// service must never pick directly.
func (b *Builder) candidateModes() []string {
	var modes []string
	for _, mode := range b.cfg.AllModes() {
		if strings.EqualFold(mode, "ride") || strings.EqualFold(mode, "other") || strings.EqualFold(mode, "walk") {
			continue
		}
		modes = append(modes, mode)
	}
	return modes
}

// #endregion build
