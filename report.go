package logbench

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/segmentio/encoding/json"
)

// Report is the ordered outcome of one RunAll. Results appear in the order
// the backends were given.
type Report struct {
	ID        string      `json:"id"`
	Run       int         `json:"run"`
	Started   time.Time   `json:"started"`
	Finished  time.Time   `json:"finished"`
	Directory string      `json:"dir"`
	Config    RunConfig   `json:"config"`
	Workload  string      `json:"workload"`
	Results   []RunResult `json:"results"`
}

// Failed returns the results that recorded at least one failure.
func (r Report) Failed() []RunResult {
	var out []RunResult
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Ranked returns a copy of the results sorted by elapsed time. Results that
// never reached the timed window sort last, by name.
func (r Report) Ranked() []RunResult {
	out := make([]RunResult, len(r.Results))
	copy(out, r.Results)
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Measured(), out[j].Measured()
		if mi != mj {
			return mi
		}
		if !mi || out[i].Elapsed == out[j].Elapsed {
			return out[i].Adapter < out[j].Adapter
		}
		return out[i].Elapsed < out[j].Elapsed
	})
	return out
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadReport decodes a report written by WriteJSON.
func ReadReport(rd io.Reader) (Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// WriteTable renders the results ranked by elapsed time. Failed adapters are
// listed with their failure reasons instead of being omitted.
func (r Report) WriteTable(w io.Writer) error {
	fmt.Fprintf(w, "run %d (%s) %d iterations, warmup %d, flush %s, backpressure %s\n",
		r.Run, r.ID, r.Config.IterationCount, r.Config.WarmupCount, r.Config.Flush, r.Config.Backpressure)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tAdapter\tElapsed\tns/op\trec/s\tB/op\tallocs/op\tRecords\tFile bytes\tStatus")
	for idx, res := range r.Ranked() {
		status := "ok"
		if res.Failed() {
			status = failureSummary(res.Failures)
		}
		if !res.Measured() {
			fmt.Fprintf(tw, "-\t%s\t-\t-\t-\t-\t-\t-\t-\t%s\n", res.Adapter, status)
			continue
		}
		records := "-"
		if res.Records >= 0 {
			records = fmt.Sprintf("%d", res.Records)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.0f\t%.2f\t%.2f\t%s\t%d\t%s\n",
			idx+1,
			res.Adapter,
			res.Elapsed.Round(time.Microsecond),
			res.NsPerOp(),
			res.RecordsPerSecond(),
			res.BytesPerOp(),
			res.AllocsPerOp(),
			records,
			res.OutputBytes,
			status,
		)
	}
	return tw.Flush()
}

func failureSummary(failures []Failure) string {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.Kind + ": " + f.Reason
	}
	return strings.Join(parts, "; ")
}
