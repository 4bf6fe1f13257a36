package logbench

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

// fakeAdapter writes the records it receives as JSON lines and can be told
// to fail at every stage.
type fakeAdapter struct {
	name string

	configureErr error
	// failEvery makes every n'th Emit fail.
	failEvery  int
	panicEmit  bool
	flushErr   error
	hangFlush  chan struct{}
	disposeErr error
	// blockEmit, when set, is received from before the first Emit returns.
	blockEmit chan struct{}
	started   chan struct{}

	mu         sync.Mutex
	file       *os.File
	w          *bufio.Writer
	emits      int
	flushes    int
	disposes   int
	timestamps []time.Time
	startOnce  sync.Once
}

func newFake(name string) *fakeAdapter {
	return &fakeAdapter{name: name}
}

func (f *fakeAdapter) backend() Backend {
	return Backend{Name: f.name, New: func(AdapterOptions) Adapter { return f }}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Configure(path string) error {
	if f.configureErr != nil {
		return f.configureErr
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	f.file = file
	f.w = bufio.NewWriter(file)
	return nil
}

func (f *fakeAdapter) Emit(rec Record) error {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.blockEmit != nil {
		<-f.blockEmit
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		return ErrNotConfigured
	}
	f.emits++
	if f.panicEmit {
		panic("emit exploded")
	}
	if f.failEvery > 0 && f.emits%f.failEvery == 0 {
		return errors.New("injected emit failure")
	}
	f.timestamps = append(f.timestamps, rec.Time())
	buf := make([]byte, 0, 128)
	buf = append(buf, `{"time":`...)
	buf = strconv.AppendQuote(buf, rec.Time().Format(time.RFC3339Nano))
	buf = append(buf, `,"level":`...)
	buf = strconv.AppendQuote(buf, rec.Level().String())
	buf = append(buf, `,"message":`...)
	buf = strconv.AppendQuote(buf, rec.Message())
	buf = append(buf, `,"logger":`...)
	buf = strconv.AppendQuote(buf, rec.Logger())
	rec.EachField(func(field Field) {
		buf = append(buf, ',')
		buf = strconv.AppendQuote(buf, field.Key)
		buf = append(buf, ':')
		if field.Value.Kind() == KindString {
			buf = strconv.AppendQuote(buf, field.Value.Str())
		} else {
			buf = append(buf, field.Value.String()...)
		}
	})
	buf = append(buf, "}\n"...)
	_, err := f.w.Write(buf)
	return err
}

func (f *fakeAdapter) Flush(ctx context.Context) error {
	f.mu.Lock()
	f.flushes++
	hang := f.hangFlush
	f.mu.Unlock()
	if hang != nil {
		select {
		case <-hang:
		case <-ctx.Done():
			<-hang
		}
	}
	if f.flushErr != nil {
		return f.flushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		return ErrNotConfigured
	}
	return f.w.Flush()
}

func (f *fakeAdapter) Dispose() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposes++
	if f.file != nil {
		_ = f.w.Flush()
		_ = f.file.Close()
		f.file = nil
	}
	return f.disposeErr
}

func (f *fakeAdapter) counts() (emits, flushes, disposes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emits, f.flushes, f.disposes
}
