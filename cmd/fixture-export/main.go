package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replay"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to decisions.db")
	iteration := flag.Int("iteration", 0, "iteration to export")
	scenarioPath := flag.String("scenario", "", "scenario config JSON to embed (optional)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/decisions.db --out path/to/fixture.json [--iteration N] [--scenario path]")
		os.Exit(2)
	}

	if err := run(*dbPath, *iteration, *scenarioPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, iteration int, scenarioPath, outPath string) error {
	store, err := audit.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	records, err := store.List(0)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}

	var selected []audit.Record
	for _, rec := range records {
		if rec.Iteration == iteration {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("no decisions recorded for iteration %d", iteration)
	}

	fmt.Printf("Found %d decisions for iteration %d\n", len(selected), iteration)

	fixture := buildFixture(iteration, selected)
	if scenarioPath != "" {
		cfg, err := scenario.Load(scenarioPath)
		if err != nil {
			return err
		}
		fixture.Scenario = *cfg
	}

	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

func buildFixture(iteration int, records []audit.Record) replay.Fixture {
	decisions := make([]replay.FixtureDecision, len(records))
	expected := make([]replay.ExpectedDecision, len(records))

	for i, rec := range records {
		decisions[i] = toScriptedDecision(rec)
		expected[i] = replay.ExpectedDecision{
			Agent:    string(rec.Agent),
			SimTime:  simtime.Write(rec.SimTime),
			Mode:     rec.Mode,
			Fallback: rec.Fallback,
		}
	}

	return replay.Fixture{
		Description: fmt.Sprintf("Audit export: %d decisions from iteration %d", len(records), iteration),
		Iteration:   iteration,
		Decisions:   decisions,
		Expected:    expected,
	}
}

// toScriptedDecision re-scripts a recorded decision: fallbacks become
// simulated failures so the replay reproduces the degradation, not just the
// sentinel string.
func toScriptedDecision(rec audit.Record) replay.FixtureDecision {
	if !rec.Fallback {
		return replay.FixtureDecision{Mode: rec.Mode}
	}
	if rec.Mode == bridge.ParseFallbackMode {
		return replay.FixtureDecision{Fail: "parse"}
	}
	return replay.FixtureDecision{Fail: "transport"}
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d decisions)\n", outPath, len(data), len(fixture.Decisions))
	fmt.Println("Note: fill in network and agents before replaying; the export carries only the decision script.")
	return nil
}

// #endregion output
