package logbench

import "time"

// DefaultLoggerName is the logger name carried by DefaultWorkload records.
const DefaultLoggerName = "logbench"

// Workload describes the record every emission of a run carries. Only the
// timestamp differs between emissions.
type Workload struct {
	Level    Level
	Logger   string
	Template string
	Fields   []Field
}

// DefaultWorkload is the fixed measurement payload: three integer fields
// interpolated into an info-level message.
func DefaultWorkload() Workload {
	return Workload{
		Level:    InfoLevel,
		Logger:   DefaultLoggerName,
		Template: "x={X} y={Y} z={Z}",
		Fields: []Field{
			Int("x", 100),
			Int("y", 200),
			Int("z", 300),
		},
	}
}

// Record renders the workload once. Use Record.WithTime to stamp copies.
func (w Workload) Record(t time.Time) Record {
	return NewRecord(t, w.Level, w.Logger, w.Template, w.Fields...)
}

// Expectation returns what the verifier should find on every output line.
func (w Workload) Expectation() Expectation {
	rec := w.Record(time.Time{})
	return Expectation{
		Message: rec.Message(),
		Logger:  w.Logger,
		Fields:  rec.Fields(),
	}
}
