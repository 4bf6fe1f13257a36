package logbench

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"
)

var (
	timeKeys    = []string{"time", "ts", "t", "timestamp"}
	levelKeys   = []string{"level", "lvl"}
	messageKeys = []string{"message", "msg"}
	loggerKeys  = []string{"logger"}
)

// nestedFieldsKey is where some backends (apex) put user fields.
const nestedFieldsKey = "fields"

// Expectation is what every line of an output file must carry. Zero-valued
// members are not checked.
type Expectation struct {
	Message string
	Logger  string
	Fields  []Field
}

// Verification summarises one output file.
type Verification struct {
	Path    string `json:"path"`
	Lines   int    `json:"lines"`
	Invalid int    `json:"invalid"`
	// Problem describes the first invalid line.
	Problem string `json:"problem,omitempty"`
}

// OK reports whether every line matched.
func (v Verification) OK() bool { return v.Invalid == 0 }

// VerifyFile counts the JSON lines in path and checks each one against want.
// Only I/O errors are returned; malformed lines are counted as invalid.
func VerifyFile(path string, want Expectation) (Verification, error) {
	out := Verification{Path: path}
	file, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("verify %q: %w", path, err)
	}
	defer file.Close()

	var parser fastjson.Parser
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out.Lines++
		if problem := checkLine(&parser, line, want); problem != "" {
			out.Invalid++
			if out.Problem == "" {
				out.Problem = fmt.Sprintf("line %d: %s", lineNo, problem)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("verify %q: %w", path, err)
	}
	return out, nil
}

func checkLine(parser *fastjson.Parser, line []byte, want Expectation) string {
	v, err := parser.ParseBytes(line)
	if err != nil {
		return fmt.Sprintf("invalid json: %v", err)
	}
	if v.Type() != fastjson.TypeObject {
		return fmt.Sprintf("expected object, got %s", v.Type())
	}
	nested := v.Get(nestedFieldsKey)
	if nested != nil && nested.Type() != fastjson.TypeObject {
		nested = nil
	}
	if lookup(v, nested, timeKeys) == nil {
		return "missing timestamp"
	}
	if lookup(v, nested, levelKeys) == nil {
		return "missing level"
	}
	msg := lookup(v, nested, messageKeys)
	if msg == nil {
		return "missing message"
	}
	if want.Message != "" && string(msg.GetStringBytes()) != want.Message {
		return fmt.Sprintf("message %s, want %q", msg, want.Message)
	}
	if want.Logger != "" {
		name := lookup(v, nested, loggerKeys)
		if name == nil {
			return "missing logger name"
		}
		if string(name.GetStringBytes()) != want.Logger {
			return fmt.Sprintf("logger %s, want %q", name, want.Logger)
		}
	}
	for _, f := range want.Fields {
		got := lookup(v, nested, []string{f.Key})
		if got == nil {
			return fmt.Sprintf("missing field %q", f.Key)
		}
		if !valueMatches(got, f.Value) {
			return fmt.Sprintf("field %q is %s, want %s", f.Key, got, f.Value.String())
		}
	}
	return ""
}

func lookup(v, nested *fastjson.Value, keys []string) *fastjson.Value {
	for _, k := range keys {
		if got := v.Get(k); got != nil {
			return got
		}
	}
	if nested != nil {
		for _, k := range keys {
			if got := nested.Get(k); got != nil {
				return got
			}
		}
	}
	return nil
}

func valueMatches(got *fastjson.Value, want Value) bool {
	if got.Type() == fastjson.TypeString {
		return string(got.GetStringBytes()) == want.String()
	}
	switch want.Kind() {
	case KindInt:
		f, err := got.Float64()
		return err == nil && f == float64(want.Int64())
	case KindFloat:
		f, err := got.Float64()
		return err == nil && (f == want.Float64() || math.Abs(f-want.Float64()) < 1e-9)
	case KindBool:
		b, err := got.Bool()
		return err == nil && b == want.Bool()
	default:
		return false
	}
}

// VerifyResults verifies the output file of every measured result and updates
// Records, adding ErrVerifyFailed to results whose file does not hold exactly
// the expected number of valid lines. Files are checked concurrently, at most
// workers at a time (GOMAXPROCS when workers <= 0).
func VerifyResults(ctx context.Context, results []RunResult, want Expectation, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		if !results[i].Measured() {
			continue
		}
		res := &results[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := VerifyFile(res.OutputPath, want)
			if err != nil {
				res.fail(newAdapterError(res.Adapter, ErrVerifyFailed, err))
				return nil
			}
			res.Records = v.Lines
			switch {
			case v.Lines != res.ExpectedRecords():
				res.fail(newAdapterError(res.Adapter, ErrVerifyFailed,
					fmt.Errorf("%s holds %d records, want %d", filepath.Base(res.OutputPath), v.Lines, res.ExpectedRecords())))
			case !v.OK():
				res.fail(newAdapterError(res.Adapter, ErrVerifyFailed,
					fmt.Errorf("%d invalid records, first %s", v.Invalid, v.Problem)))
			}
			pslog.Ctx(ctx).Debug("verify.done", "adapter", res.Adapter, "lines", v.Lines, "invalid", v.Invalid)
			return nil
		})
	}
	return g.Wait()
}

// VerifyDir verifies every *.log file in dir against want, sorted by name.
func VerifyDir(ctx context.Context, dir string, want Expectation, workers int) ([]Verification, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return nil, fmt.Errorf("verify dir %q: %w", dir, err)
	}
	sort.Strings(paths)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Verification, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := VerifyFile(path, want)
			out[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
