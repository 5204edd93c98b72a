package audit

import (
	"time"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
)

// #region record

// Record is one replanning decision as written to the audit sinks: which
// agent chose (or was assigned) which mode, when, and in which iteration.
type Record struct {
	ID        string // uuid, assigned by the store when empty
	Iteration int
	SimTime   float64 // seconds since midnight
	Agent     plan.PersonID
	Mode      string
	Fallback  bool   // the mode is a degraded sentinel, not a service answer
	Reason    string // fallback reason, empty for real decisions
	CreatedAt time.Time
}

// #endregion record

// #region sink

// Sink receives one record per performed replanning.
type Sink interface {
	Record(Record) error
}

// #endregion sink
