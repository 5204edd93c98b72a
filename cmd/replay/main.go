package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replay"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	verbose := flag.Bool("v", false, "print every replayed decision")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *verbose))
}

// #endregion main

// #region run

func run(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}

	res, err := replay.Run(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if verbose {
		printDecisions(res)
	}

	mismatches := replay.Verify(f, res)
	summary := replay.Summarize(res)

	printComparison(f, res, mismatches)
	fmt.Printf("\nSummary: %d departures, %d decisions (%d fallback), %d arrivals, %d diverge\n",
		summary.Departures, summary.Decisions, summary.Fallbacks, summary.Arrivals, len(mismatches))

	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion run

// #region output

func printDecisions(res *replay.Result) {
	fmt.Println("Replayed decisions:")
	for i, rec := range res.Decisions {
		fmt.Printf("  %2d  iter=%d t=%s agent=%s mode=%s fallback=%v\n",
			i, rec.Iteration, simtime.Write(rec.SimTime), rec.Agent, rec.Mode, rec.Fallback)
	}
	fmt.Println()
}

func printComparison(f *replay.Fixture, res *replay.Result, mismatches []replay.Mismatch) {
	diverged := make(map[int]bool, len(mismatches))
	for _, m := range mismatches {
		diverged[m.Index] = true
	}

	fmt.Printf("%-4s| %-12s| %-8s| %-20s| %-20s| %s\n",
		"#", "Agent", "Time", "Expected", "Replayed", "Match")
	fmt.Printf("%-4s+%-13s+%-9s+%-21s+%-21s+%s\n",
		"----", "-------------", "---------", "---------------------", "---------------------", "------")

	n := len(f.Expected)
	if len(res.Decisions) < n {
		n = len(res.Decisions)
	}
	for i := 0; i < n; i++ {
		want := f.Expected[i]
		got := res.Decisions[i]
		match := "OK"
		if diverged[i] {
			match = "DIFF"
		}
		fmt.Printf("%-4d| %-12s| %-8s| %-20s| %-20s| %s\n",
			i, want.Agent, want.SimTime, want.Mode, got.Mode, match)
	}
	if len(f.Expected) != len(res.Decisions) {
		fmt.Printf("%-4s| count mismatch: expected %d decisions, replayed %d\n",
			"!", len(f.Expected), len(res.Decisions))
	}
}

// #endregion output
