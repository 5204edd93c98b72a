package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/obs"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/reward"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/sim"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simclock"
)

// #region main
func main() {
	host := flag.String("host", envOr("DECISION_HOST", "localhost"), "decision service host")
	port := flag.Int("port", envOrInt("DECISION_PORT", 8080), "decision service port")
	scenarioPath := flag.String("scenario", envOr("SCENARIO_CONFIG", "scenario.json"), "scenario config JSON")
	populationPath := flag.String("population", envOr("POPULATION", "population.json"), "population JSON")
	dbPath := flag.String("db", envOr("DECISION_DB", "decisions.db"), "decision audit database")
	logPath := flag.String("log", envOr("DECISION_LOG", "decisions.log"), "decision audit text log")
	iterations := flag.Int("iterations", 1, "number of simulated days to run")
	flag.Parse()

	cfg, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario: %v", err)
	}

	store, err := audit.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open audit store: %v", err)
	}
	defer store.Close()

	textLog, err := audit.NewTextLog(*logPath)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}
	defer textLog.Close()
	sink := audit.MultiSink{store, textLog}

	// Connect to Python decision service
	client := bridge.NewClient(*host, *port)
	defer client.Close()

	clock := simclock.NewTracker()

	fmt.Println("Within-Day Replanner ready.")
	fmt.Printf("  Service: %s:%d | DB: %s | Log: %s\n", *host, *port, *dbPath, *logPath)

	for iter := 0; iter < *iterations; iter++ {
		clock.OnIterationStarts(iter)

		// Fresh plans every day: mutations never leak across iterations.
		network, agents, err := sim.LoadPopulation(*populationPath)
		if err != nil {
			log.Fatalf("failed to load population: %v", err)
		}

		engine := sim.NewEngine(network)
		for _, a := range agents {
			engine.AddAgent(a)
		}
		router := sim.NewBeelineRouter(cfg, network)
		mutator := replan.NewTripMutator(cfg, router, engine)
		engine.SetReplanner(replan.NewTrigger(obs.NewBuilder(cfg), client, mutator, sink, clock))
		engine.AddActivityStartHandler(reward.NewAggregator(cfg, engine, client))

		stats := engine.Run(context.Background())

		counts, err := store.ModeCounts(iter)
		if err != nil {
			log.Printf("mode counts for iteration %d: %v", iter, err)
			counts = nil
		}
		fmt.Printf("[iter %d] departures=%d arrivals=%d modes=%v\n",
			iter, stats.Departures, stats.Arrivals, counts)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// #endregion helpers
