package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/obs"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/reward"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/sim"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simclock"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region scripted-decider

// ScriptedDecider answers mode requests from a prepared list. Once the
// script runs dry every further request degrades to the transport sentinel,
// the same behavior a dead service produces.
type ScriptedDecider struct {
	script []bridge.Decision
	next   int

	// Observations records every request in order.
	Observations []bridge.Observation
}

// NewScriptedDecider builds a decider over the given answers.
func NewScriptedDecider(script []bridge.Decision) *ScriptedDecider {
	return &ScriptedDecider{script: script}
}

// RequestMode implements the decider surface against the script.
func (d *ScriptedDecider) RequestMode(_ context.Context, observation bridge.Observation) bridge.Decision {
	d.Observations = append(d.Observations, observation)
	if d.next >= len(d.script) {
		return bridge.Decision{
			Mode:     bridge.TransportFallbackMode,
			Fallback: true,
			Reason:   bridge.FallbackTransport,
		}
	}
	decision := d.script[d.next]
	d.next++
	return decision
}

// #endregion scripted-decider

// #region result

// Result captures one replayed day.
type Result struct {
	Stats     sim.RunStats
	Decisions []audit.Record
	Arrivals  []bridge.ArrivalReport
}

// Summary aggregates a replay result.
type Summary struct {
	Departures int
	Decisions  int
	Fallbacks  int
	Arrivals   int
}

// Summarize computes aggregate stats from a replayed day.
func Summarize(res *Result) Summary {
	s := Summary{
		Departures: res.Stats.Departures,
		Decisions:  len(res.Decisions),
		Arrivals:   len(res.Arrivals),
	}
	for _, rec := range res.Decisions {
		if rec.Fallback {
			s.Fallbacks++
		}
	}
	return s
}

// memorySink collects audit records in order.
type memorySink struct {
	records []audit.Record
}

func (m *memorySink) Record(rec audit.Record) error {
	m.records = append(m.records, rec)
	return nil
}

// memoryReporter collects arrival reports instead of posting them.
type memoryReporter struct {
	reports []bridge.ArrivalReport
}

func (m *memoryReporter) ReportArrival(report bridge.ArrivalReport) {
	m.reports = append(m.reports, report)
}

// #endregion result

// #region run

// Run replays the fixture's day entirely in-memory: scripted decisions stand
// in for the decision service and arrival reports are collected instead of
// posted.
func Run(f *Fixture) (*Result, error) {
	network := f.ToNetwork()
	agents, err := f.ToAgents()
	if err != nil {
		return nil, err
	}
	script := make([]bridge.Decision, len(f.Decisions))
	for i, fd := range f.Decisions {
		decision, err := fd.ToDecision()
		if err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
		script[i] = decision
	}

	cfg := &f.Scenario
	engine := sim.NewEngine(network)
	for _, a := range agents {
		engine.AddAgent(a)
	}

	clock := simclock.NewTracker()
	clock.OnIterationStarts(f.Iteration)

	decider := NewScriptedDecider(script)
	sink := &memorySink{}
	router := sim.NewBeelineRouter(cfg, network)
	mutator := replan.NewTripMutator(cfg, router, engine)
	trigger := replan.NewTrigger(obs.NewBuilder(cfg), decider, mutator, sink, clock)
	engine.SetReplanner(trigger)

	reporter := &memoryReporter{}
	engine.AddActivityStartHandler(reward.NewAggregator(cfg, engine, reporter))

	stats := engine.Run(context.Background())
	return &Result{
		Stats:     stats,
		Decisions: sink.records,
		Arrivals:  reporter.reports,
	}, nil
}

// #endregion run

// #region verify

// Mismatch is one divergence between the fixture's recorded outcomes and the
// replayed day.
type Mismatch struct {
	Index    int
	Expected string
	Got      string
}

// Verify compares the replayed decisions against the fixture's expected
// results, position by position.
func Verify(f *Fixture, res *Result) []Mismatch {
	var mismatches []Mismatch
	n := len(f.Expected)
	if len(res.Decisions) < n {
		n = len(res.Decisions)
	}
	for i := 0; i < n; i++ {
		want := f.Expected[i]
		got := res.Decisions[i]
		if string(got.Agent) != want.Agent ||
			simtime.Write(got.SimTime) != want.SimTime ||
			got.Mode != want.Mode ||
			got.Fallback != want.Fallback {
			mismatches = append(mismatches, Mismatch{
				Index:    i,
				Expected: describeExpected(want),
				Got:      describeRecord(got),
			})
		}
	}
	if len(f.Expected) != len(res.Decisions) {
		mismatches = append(mismatches, Mismatch{
			Index:    n,
			Expected: fmt.Sprintf("%d decisions", len(f.Expected)),
			Got:      fmt.Sprintf("%d decisions", len(res.Decisions)),
		})
	}
	return mismatches
}

func describeExpected(e ExpectedDecision) string {
	return fmt.Sprintf("agent=%s t=%s mode=%s fallback=%v", e.Agent, e.SimTime, e.Mode, e.Fallback)
}

func describeRecord(r audit.Record) string {
	return fmt.Sprintf("agent=%s t=%s mode=%s fallback=%v", r.Agent, simtime.Write(r.SimTime), r.Mode, r.Fallback)
}

// #endregion verify
