package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/simtime"
)

// #region text-log

// TextLog is the append-only replanning log: one line per decision with
// iteration, simulation time, agent, and mode.
type TextLog struct {
	f *os.File
}

// NewTextLog opens (or creates) the log file in append mode, creating parent
// directories as needed.
func NewTextLog(path string) (*TextLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open replanning log: %w", err)
	}
	return &TextLog{f: f}, nil
}

// Record appends one decision line.
func (l *TextLog) Record(rec Record) error {
	_, err := fmt.Fprintf(l.f, "%d,%s,%s,%s\n",
		rec.Iteration, simtime.Write(rec.SimTime), rec.Agent, rec.Mode)
	if err != nil {
		return fmt.Errorf("append replanning log: %w", err)
	}
	return nil
}

// Close closes the log file.
func (l *TextLog) Close() error {
	return l.f.Close()
}

// #endregion text-log

// #region multi-sink

// MultiSink fans one record out to several sinks. Every sink is attempted;
// the first error is returned.
type MultiSink []Sink

// Record writes the record to all sinks.
func (m MultiSink) Record(rec Record) error {
	var first error
	for _, sink := range m {
		if err := sink.Record(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// #endregion multi-sink
