package bridge

import "strconv"

// #region fixed-point

// Fixed1 is a float64 that always serializes with exactly one decimal place.
// The decision service's schema expects e.g. 28800.0, which a bare float64
// would marshal as 28800.
type Fixed1 float64

// MarshalJSON renders the value with one decimal place.
func (f Fixed1) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', 1, 64)), nil
}

// Fixed2 is a float64 that always serializes with exactly two decimal places.
type Fixed2 float64

// MarshalJSON renders the value with two decimal places.
func (f Fixed2) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', 2, 64)), nil
}

// #endregion fixed-point

// #region observation

// Observation is the agent snapshot posted to /ModeChoice. Field names are the
// wire contract; keys are case-sensitive.
type Observation struct {
	AgentID                    string   `json:"agentID"`
	LinkID                     string   `json:"linkID"`
	DepartureTime              string   `json:"departureTime"`           // HH:MM:SS
	NextActivityArrivalTime    string   `json:"nextActivityArrivalTime"` // HH:MM:SS
	NextActivityArrivalSeconds Fixed1   `json:"nextActivityArrivalSeconds"`
	DepartureTimeSeconds       Fixed1   `json:"departureTimeSeconds"`
	CarAvailability            bool     `json:"carAvailability"`
	PossibleModeSet            []string `json:"possibleModeSet"`
}

// #endregion observation

// #region arrival-report

// ArrivalReport is the reward payload posted to /Arrival after a tracked
// agent reaches a main activity.
type ArrivalReport struct {
	AgentID           string `json:"agentID"`
	TravelTimeSeconds Fixed1 `json:"travelTimeSeconds"`
	NumberOfTransfers int    `json:"numberOfTransfers"`
	Distance          Fixed2 `json:"distance"`
	TravelDisutility  Fixed2 `json:"travelDisutility"`
	StartDayMode      string `json:"startDayMode"`
}

// #endregion arrival-report

// #region decision

// FallbackReason distinguishes why a decision degraded.
type FallbackReason string

const (
	// FallbackTransport marks an unreachable or timed-out service.
	FallbackTransport FallbackReason = "transport_failure"
	// FallbackParse marks a non-2xx status or a response body without a
	// usable mode_choice field.
	FallbackParse FallbackReason = "parse_failure"
)

// Sentinel mode strings the rest of the loop receives when the service could
// not be consulted. Both are kept distinct; downstream consumers that only
// need a mode treat them like any other mode value.
const (
	TransportFallbackMode = "error_fallback_mode"
	ParseFallbackMode     = "101"
)

// Decision is the outcome of a mode query. Mode is never empty: on any
// failure it carries the matching sentinel and Fallback is set.
type Decision struct {
	Mode     string
	Fallback bool
	Reason   FallbackReason
}

// decided wraps a real service answer.
func decided(mode string) Decision {
	return Decision{Mode: mode}
}

// degraded wraps a fallback outcome.
func degraded(reason FallbackReason) Decision {
	mode := TransportFallbackMode
	if reason == FallbackParse {
		mode = ParseFallbackMode
	}
	return Decision{Mode: mode, Fallback: true, Reason: reason}
}

// #endregion decision
