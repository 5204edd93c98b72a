package sim

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/audit"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/bridge"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/obs"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/replan"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/reward"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/scenario"
	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simclock"
)

// #region service-fake

// decisionService is an in-test stand-in for the inference side: it records
// every observation and arrival it receives and always answers with a fixed
// mode.
type decisionService struct {
	mu           sync.Mutex
	mode         string
	observations []map[string]any
	arrivals     []map[string]any
}

func (s *decisionService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		switch r.URL.Path {
		case "/ModeChoice":
			s.observations = append(s.observations, body)
			json.NewEncoder(w).Encode(map[string]string{"mode_choice": s.mode})
		case "/Arrival":
			s.arrivals = append(s.arrivals, body)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (s *decisionService) snapshot() (obsSeen, arrSeen []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.observations...), append([]map[string]any(nil), s.arrivals...)
}

type captureSink struct {
	records []audit.Record
}

func (c *captureSink) Record(rec audit.Record) error {
	c.records = append(c.records, rec)
	return nil
}

// #endregion service-fake

// #region fixtures

func e2eConfig() *scenario.Config {
	return &scenario.Config{
		Modes: map[string]scenario.ModeParams{
			"car":  {MarginalUtilityOfTraveling: -6, MarginalUtilityOfDistance: -0.0004, Constant: -1, TeleportSpeed: 10},
			"bike": {MarginalUtilityOfTraveling: -4, TeleportSpeed: 5},
			"walk": {MarginalUtilityOfTraveling: -2},
			"ride": {MarginalUtilityOfTraveling: -6},
		},
		NetworkModes:  []string{"car", "bike"},
		Persons:       map[plan.PersonID]scenario.PersonAttributes{"a1": {CarAvail: "always"}},
		TrackedAgents: []plan.PersonID{"a1"},
	}
}

func e2eNetwork() Network {
	return Network{"l1": {X: 0, Y: 0}, "l5": {X: 300, Y: 400}}
}

// wireLoop assembles the full closed loop around the given decider and sink.
func wireLoop(cfg *scenario.Config, network Network, decider replan.Decider, sink audit.Sink) *Engine {
	engine := NewEngine(network)
	engine.AddAgent(NewAgent("a1", commuteDay("a1")))

	clock := simclock.NewTracker()
	clock.OnIterationStarts(7)
	router := NewBeelineRouter(cfg, network)
	mutator := replan.NewTripMutator(cfg, router, engine)
	trigger := replan.NewTrigger(obs.NewBuilder(cfg), decider, mutator, sink, clock)
	engine.SetReplanner(trigger)
	return engine
}

// #endregion fixtures

// #region full-day

func TestFullDayAgainstDecisionService(t *testing.T) {
	service := &decisionService{mode: "bike"}
	server := httptest.NewServer(service.handler())
	defer server.Close()

	cfg := e2eConfig()
	network := e2eNetwork()
	client := bridge.NewClientWithHTTP(server.Client(), server.URL)

	store, err := audit.NewStore(filepath.Join(t.TempDir(), "decisions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	engine := wireLoop(cfg, network, client, store)
	engine.AddActivityStartHandler(reward.NewAggregator(cfg, engine, client))

	stats := engine.Run(context.Background())
	client.Close() // drain in-flight arrival posts

	if stats.Departures != 2 || stats.Arrivals != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	observations, arrivals := service.snapshot()

	// One decision per activity-to-trip transition.
	if len(observations) != 2 {
		t.Fatalf("observations = %d, want 2", len(observations))
	}
	first := observations[0]
	if first["agentID"] != "a1" || first["linkID"] != "l1" {
		t.Fatalf("first observation = %v", first)
	}
	if first["departureTime"] != "08:00:00" {
		t.Fatalf("departureTime = %v", first["departureTime"])
	}
	if first["nextActivityArrivalTime"] != "09:00:00" {
		t.Fatalf("nextActivityArrivalTime = %v", first["nextActivityArrivalTime"])
	}
	if first["carAvailability"] != true {
		t.Fatal("car must be available")
	}
	modes, _ := first["possibleModeSet"].([]any)
	if len(modes) != 2 || modes[0] != "bike" || modes[1] != "car" {
		t.Fatalf("possibleModeSet = %v, want [bike car]", modes)
	}
	// The evening trip ends the day: an undefined next start reads as midnight,
	// transmitted as the end of the day.
	second := observations[1]
	if second["linkID"] != "l5" || second["departureTime"] != "17:00:00" {
		t.Fatalf("second observation = %v", second)
	}
	if second["nextActivityArrivalTime"] != "24:00:00" {
		t.Fatalf("nextActivityArrivalTime = %v", second["nextActivityArrivalTime"])
	}
	if second["nextActivityArrivalSeconds"] != 86400.0 {
		t.Fatalf("nextActivityArrivalSeconds = %v", second["nextActivityArrivalSeconds"])
	}

	// Both main activities report an arrival. Posts are asynchronous, so only
	// order-independent facts are checked.
	if len(arrivals) != 2 {
		t.Fatalf("arrivals = %d, want 2", len(arrivals))
	}
	for _, arr := range arrivals {
		if arr["agentID"] != "a1" {
			t.Fatalf("arrival agent = %v", arr["agentID"])
		}
		if arr["startDayMode"] != "bike" {
			t.Fatalf("startDayMode = %v, want bike", arr["startDayMode"])
		}
		// Routed bike trip: 25m access walk + 650m main + 25m egress walk.
		if d, _ := arr["distance"].(float64); math.Abs(d-700) > 1e-6 {
			t.Fatalf("distance = %v, want 700", arr["distance"])
		}
		// Two interaction activities per trip: (2/2)-1 = 0 transfers.
		if arr["numberOfTransfers"] != 0.0 {
			t.Fatalf("transfers = %v, want 0", arr["numberOfTransfers"])
		}
	}

	// The decision trail is durable and stamped with the running iteration.
	records, err := store.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("audit records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Mode != "bike" || rec.Fallback || rec.Iteration != 7 {
			t.Fatalf("record = %+v", rec)
		}
	}
	counts, err := store.ModeCounts(7)
	if err != nil {
		t.Fatal(err)
	}
	if counts["bike"] != 2 {
		t.Fatalf("mode counts = %v", counts)
	}

	// The chosen mode needs a vehicle; one park covers the whole day.
	if !engine.HasVehicle("a1_bike") {
		t.Fatal("bike must be parked for a1")
	}
	if engine.HasVehicle("a1_car") {
		t.Fatal("no car vehicle was requested")
	}
}

// #endregion full-day

// #region degraded-day

func TestUnreachableServiceDayStillCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing listens from here on

	cfg := e2eConfig()
	client := bridge.NewClientWithHTTP(&http.Client{Timeout: time.Second}, url)
	sink := &captureSink{}

	engine := wireLoop(cfg, e2eNetwork(), client, sink)
	handler := &recordingHandler{}
	engine.AddActivityStartHandler(handler)

	stats := engine.Run(context.Background())
	client.Close()

	// The day never stalls on a dead service.
	if stats.Departures != 2 || stats.Arrivals != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(handler.events) != 2 {
		t.Fatalf("events = %d", len(handler.events))
	}

	if len(sink.records) != 2 {
		t.Fatalf("audit records = %d", len(sink.records))
	}
	for _, rec := range sink.records {
		if !rec.Fallback || rec.Mode != bridge.TransportFallbackMode {
			t.Fatalf("record = %+v", rec)
		}
		if rec.Reason != string(bridge.FallbackTransport) {
			t.Fatalf("reason = %s", rec.Reason)
		}
	}

	// The sentinel is not a network mode, so the trip degrades to a direct
	// teleported leg and no vehicle appears.
	if len(engine.Vehicles()) != 0 {
		t.Fatalf("vehicles = %v", engine.Vehicles())
	}
	p, _, ok := engine.ExecutedPlan("a1")
	if !ok {
		t.Fatal("agent missing")
	}
	trips := plan.Trips(p)
	if len(trips) != 2 {
		t.Fatalf("trips = %d", len(trips))
	}
	for _, trip := range trips {
		legs := trip.Legs()
		if len(legs) != 1 || legs[0].Mode != bridge.TransportFallbackMode {
			t.Fatalf("degraded trip legs = %+v", legs)
		}
	}
}

func TestMalformedServiceAnswerUsesParseSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	cfg := e2eConfig()
	client := bridge.NewClientWithHTTP(server.Client(), server.URL)
	sink := &captureSink{}

	engine := wireLoop(cfg, e2eNetwork(), client, sink)
	stats := engine.Run(context.Background())
	client.Close()

	if stats.Departures != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(sink.records) != 2 {
		t.Fatalf("audit records = %d", len(sink.records))
	}
	for _, rec := range sink.records {
		if !rec.Fallback || rec.Mode != bridge.ParseFallbackMode {
			t.Fatalf("record = %+v", rec)
		}
	}
}

// #endregion degraded-day
