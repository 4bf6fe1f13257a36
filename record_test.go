package logbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	fields := []Field{Int("x", 100), Int("y", 200), Int("z", 300)}
	cases := []struct {
		template string
		fields   []Field
		want     string
	}{
		{"x={X} y={Y} z={Z}", fields, "x=100 y=200 z=300"},
		{"no holes", fields, "no holes"},
		{"{{literal}} {X}", fields[:1], "{literal} 100"},
		{"{A} and {B}", fields[:1], "100 and {B}"},
		{"dangling {X", fields, "dangling {X"},
		{"{Name} ok={Ok} ratio={R}", []Field{String("name", "ada"), Bool("ok", true), Float("r", 0.25)}, "ada ok=true ratio=0.25"},
		{"", nil, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RenderTemplate(tc.template, tc.fields), tc.template)
	}
}

func TestRecordIsImmutable(t *testing.T) {
	fields := []Field{Int("x", 1), String("who", "me")}
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	rec := NewRecord(ts, WarnLevel, "svc", "{X} by {Who}", fields...)

	fields[0] = Int("x", 99)
	require.Equal(t, "1 by me", rec.Message())
	require.Equal(t, int64(1), rec.Field(0).Value.Int64())

	copied := rec.Fields()
	copied[1] = String("who", "you")
	require.Equal(t, "me", rec.Field(1).Value.Str())

	later := rec.WithTime(ts.Add(time.Hour))
	require.Equal(t, ts, rec.Time())
	require.Equal(t, ts.Add(time.Hour), later.Time())
	require.Equal(t, rec.Message(), later.Message())

	require.Equal(t, WarnLevel, rec.Level())
	require.Equal(t, "svc", rec.Logger())
	require.Equal(t, "{X} by {Who}", rec.Template())
	require.Equal(t, 2, rec.Len())

	var keys []string
	rec.EachField(func(f Field) { keys = append(keys, f.Key) })
	require.Equal(t, []string{"x", "who"}, keys)
}

func TestValueAccessors(t *testing.T) {
	require.Equal(t, KindInt, Int("n", 7).Value.Kind())
	require.Equal(t, int64(7), Int("n", 7).Value.Any())
	require.Equal(t, "s", String("k", "s").Value.Any())
	require.Equal(t, 1.5, Float("f", 1.5).Value.Any())
	require.Equal(t, true, Bool("b", true).Value.Any())
	require.Equal(t, "false", Bool("b", false).Value.String())
	require.Equal(t, "float", KindFloat.String())
}

func TestDefaultWorkload(t *testing.T) {
	w := DefaultWorkload()
	rec := w.Record(time.Now())
	require.Equal(t, InfoLevel, rec.Level())
	require.Equal(t, DefaultLoggerName, rec.Logger())
	require.Equal(t, "x=100 y=200 z=300", rec.Message())

	want := w.Expectation()
	require.Equal(t, "x=100 y=200 z=300", want.Message)
	require.Equal(t, DefaultLoggerName, want.Logger)
	require.Len(t, want.Fields, 3)
}

func TestLevels(t *testing.T) {
	for _, level := range []Level{TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel} {
		parsed, ok := ParseLevel(level.String())
		require.True(t, ok, level.String())
		require.Equal(t, level, parsed)
	}
	_, ok := ParseLevel("loud")
	require.False(t, ok)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "zap.log", FileName("zap"))
	require.Equal(t, "zap-json.log", FileName("Zap/JSON"))
	require.Equal(t, "log-v2.log", FileName("log.v2"))
	require.Equal(t, "adapter.log", FileName("***"))
}

func TestAdapterErrorMatchesKindAndCause(t *testing.T) {
	cause := ErrDisposed
	err := newAdapterError("zap", ErrEmitFailed, cause)
	require.ErrorIs(t, err, ErrEmitFailed)
	require.ErrorIs(t, err, ErrDisposed)
	require.Equal(t, "zap: emit failed: adapter disposed", err.Error())
	require.Equal(t, "EmitFailed", KindName(err))
	require.Equal(t, "Unknown", KindName(ErrBusy))

	f := newFailure(err)
	require.Equal(t, "EmitFailed", f.Kind)
}
