package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to decisions.db")
	last := flag.Int("last", 20, "show N most recent decisions")
	iteration := flag.Int("iteration", -1, "show mode counts for one iteration")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/decisions.db [--last N] [--iteration N] [--json]")
		os.Exit(2)
	}

	store, err := audit.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *iteration >= 0 {
		if err := runCountsMode(store, *iteration, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := runListMode(store, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ID        string `json:"id"`
	Iteration int    `json:"iteration"`
	SimTime   string `json:"sim_time"`
	Agent     string `json:"agent"`
	Mode      string `json:"mode"`
	Fallback  bool   `json:"fallback"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func runListMode(store *audit.Store, last int, jsonOut bool) error {
	records, err := store.List(last)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	rows := make([]listRow, len(records))
	for i, rec := range records {
		rows[i] = listRow{
			ID:        rec.ID,
			Iteration: rec.Iteration,
			SimTime:   simtime.Write(rec.SimTime),
			Agent:     string(rec.Agent),
			Mode:      rec.Mode,
			Fallback:  rec.Fallback,
			Reason:    rec.Reason,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	return printListTable(rows)
}

func printListTable(rows []listRow) error {
	fmt.Printf("%-10s  %4s  %-8s  %-12s  %-20s  %-8s  %s\n",
		"ID", "Iter", "Time", "Agent", "Mode", "Fallback", "Created")
	fmt.Printf("%-10s+-%4s+-%-8s+-%-12s+-%-20s+-%-8s+-%s\n",
		"----------", "----", "--------", "------------", "--------------------", "--------", "--------------------")

	for _, r := range rows {
		fallback := "-"
		if r.Fallback {
			fallback = r.Reason
			if fallback == "" {
				fallback = "yes"
			}
		}
		fmt.Printf("%-10s  %4d  %-8s  %-12s  %-20s  %-8s  %s\n",
			shortID(r.ID), r.Iteration, r.SimTime, r.Agent, r.Mode, fallback, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region counts-mode

type countsOutput struct {
	Iteration int            `json:"iteration"`
	Total     int            `json:"total"`
	Modes     map[string]int `json:"modes"`
}

func runCountsMode(store *audit.Store, iteration int, jsonOut bool) error {
	counts, err := store.ModeCounts(iteration)
	if err != nil {
		return err
	}

	out := countsOutput{Iteration: iteration, Modes: counts}
	for _, n := range counts {
		out.Total += n
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Iteration %d: %d decisions\n", iteration, out.Total)
	modes := make([]string, 0, len(counts))
	for mode := range counts {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		fmt.Printf("  %-20s %d\n", mode, counts[mode])
	}
	return nil
}

// #endregion counts-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
