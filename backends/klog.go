package backends

import (
	"errors"
	"sync/atomic"

	"github.com/go-logr/logr"
	klog "k8s.io/klog/v2"

	"pkt.systems/logbench"
)

// klog's backing logger is process global, so only one klog adapter may be
// configured at a time.
var klogInUse atomic.Bool

var errKlogInUse = errors.New("klog: another adapter owns the global logger")

type klogAdapter struct {
	base
	owner  bool
	root   logr.Logger
	prefix string
}

// NewKlog returns an adapter calling klog's structured functions with a
// funcr JSON logger installed as klog's backing implementation.
func NewKlog(opts logbench.AdapterOptions) logbench.Adapter {
	return &klogAdapter{base: newBase("klog", opts)}
}

func (a *klogAdapter) Configure(path string) error {
	if a.usable() == nil {
		return logbench.ErrAlreadyConfigured
	}
	if !klogInUse.CompareAndSwap(false, true) {
		return errKlogInUse
	}
	a.owner = true
	if err := a.open(path); err != nil {
		a.release()
		return err
	}
	a.root = newFuncrJSON(a.out)
	a.prefix = ""
	klog.SetLogger(a.root)
	a.ready()
	return nil
}

func (a *klogAdapter) Emit(rec logbench.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	// funcr writes the logger name first; a "logger" keyval would repeat it.
	if name := rec.Logger(); name != a.prefix {
		klog.SetLogger(a.root.WithName(name))
		a.prefix = name
	}
	before := a.mark()
	switch rec.Level() {
	case logbench.ErrorLevel, logbench.FatalLevel:
		klog.ErrorS(nil, rec.Message(), logrKeyvals(rec, "level", rec.Level().String())...)
	default:
		// V() levels depend on klog's global -v flag; everything else is
		// logged at verbosity zero.
		klog.InfoS(rec.Message(), logrKeyvals(rec)...)
	}
	return a.emitted(before)
}

func (a *klogAdapter) Dispose() error {
	if a.owner {
		klog.Flush()
		a.release()
	}
	return a.base.Dispose()
}

func (a *klogAdapter) release() {
	klog.ClearLogger()
	a.owner = false
	klogInUse.Store(false)
}
