package logbench

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// AggregateStat summarises one adapter over repeated runs.
type AggregateStat struct {
	Adapter      string  `json:"adapter"`
	Samples      int     `json:"samples"`
	Failures     int     `json:"failures"`
	MeanNsPerOp  float64 `json:"meanNsPerOp"`
	BestNsPerOp  float64 `json:"bestNsPerOp"`
	WorstNsPerOp float64 `json:"worstNsPerOp"`
	MeanBPerOp   float64 `json:"meanBytesPerOp"`
	MeanAllocs   float64 `json:"meanAllocsPerOp"`
	MeanFileSize float64 `json:"meanFileBytes"`
}

// Aggregate folds the results of several reports per adapter. Only measured,
// failure-free results count as samples; the rest are counted as failures.
// Stats are sorted by mean ns/op, adapters without samples last.
func Aggregate(reports ...Report) []AggregateStat {
	stats := make(map[string]*AggregateStat)
	var order []string
	type sums struct{ ns, bytes, allocs, size float64 }
	totals := make(map[string]*sums)
	for _, report := range reports {
		for _, res := range report.Results {
			stat := stats[res.Adapter]
			if stat == nil {
				stat = &AggregateStat{Adapter: res.Adapter}
				stats[res.Adapter] = stat
				totals[res.Adapter] = &sums{}
				order = append(order, res.Adapter)
			}
			if res.Failed() {
				stat.Failures++
				continue
			}
			ns := res.NsPerOp()
			if stat.Samples == 0 || ns < stat.BestNsPerOp {
				stat.BestNsPerOp = ns
			}
			if ns > stat.WorstNsPerOp {
				stat.WorstNsPerOp = ns
			}
			stat.Samples++
			t := totals[res.Adapter]
			t.ns += ns
			t.bytes += res.BytesPerOp()
			t.allocs += res.AllocsPerOp()
			t.size += float64(res.OutputBytes)
		}
	}
	out := make([]AggregateStat, 0, len(order))
	for _, name := range order {
		stat := stats[name]
		if stat.Samples > 0 {
			t := totals[name]
			n := float64(stat.Samples)
			stat.MeanNsPerOp = t.ns / n
			stat.MeanBPerOp = t.bytes / n
			stat.MeanAllocs = t.allocs / n
			stat.MeanFileSize = t.size / n
		}
		out = append(out, *stat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Samples > 0, out[j].Samples > 0
		if si != sj {
			return si
		}
		if out[i].MeanNsPerOp == out[j].MeanNsPerOp {
			return out[i].Adapter < out[j].Adapter
		}
		return out[i].MeanNsPerOp < out[j].MeanNsPerOp
	})
	return out
}

// WriteAggregateTable renders stats the way WriteTable renders one report.
func WriteAggregateTable(w io.Writer, stats []AggregateStat) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tAdapter\tMean ns/op\tBest ns/op\tWorst ns/op\tSamples\tFailures\tB/op\tallocs/op\tFile bytes")
	for idx, stat := range stats {
		if stat.Samples == 0 {
			fmt.Fprintf(tw, "-\t%s\t-\t-\t-\t0\t%d\t-\t-\t-\n", stat.Adapter, stat.Failures)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%d\t%d\t%.2f\t%.2f\t%.0f\n",
			idx+1,
			stat.Adapter,
			stat.MeanNsPerOp,
			stat.BestNsPerOp,
			stat.WorstNsPerOp,
			stat.Samples,
			stat.Failures,
			stat.MeanBPerOp,
			stat.MeanAllocs,
			stat.MeanFileSize,
		)
	}
	return tw.Flush()
}
