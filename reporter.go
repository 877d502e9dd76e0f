package oclstat

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sys/unix"
)

// Reporter prints tracker reports on demand, on signals and on a timer.
//
// Signals are received through os/signal and handled on the reporter's own
// goroutine, never in asynchronous signal context. The report therefore
// takes the registry lock like any other caller and cannot deadlock
// against a thread that was interrupted while holding it.
type Reporter struct {
	src *Tracker
	log *slog.Logger

	mu  sync.Mutex
	out io.Writer

	clock    clock.Clock
	interval time.Duration
	dumpSig  syscall.Signal
	fatal    []syscall.Signal
	raise    func(syscall.Signal) error

	sigs      chan os.Signal
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReportClock sets the clock driving interval reports.
func WithReportClock(c clock.Clock) ReporterOption {
	return func(r *Reporter) { r.clock = c }
}

// WithInterval enables periodic reports.
func WithInterval(d time.Duration) ReporterOption {
	return func(r *Reporter) { r.interval = d }
}

// WithDumpSignal sets the signal that prints a report and continues.
func WithDumpSignal(sig syscall.Signal) ReporterOption {
	return func(r *Reporter) { r.dumpSig = sig }
}

// WithFatalSignals sets the signals that print a report and then proceed
// with their default disposition.
func WithFatalSignals(sigs ...syscall.Signal) ReporterOption {
	return func(r *Reporter) { r.fatal = sigs }
}

// WithRaise replaces how a fatal signal is re-delivered after the report.
func WithRaise(fn func(syscall.Signal) error) ReporterOption {
	return func(r *Reporter) { r.raise = fn }
}

// WithReporterLogger sets the logger.
func WithReporterLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) { r.log = l }
}

// WithReporterConfig applies the signal and interval settings of cfg.
// Config.Validate has already rejected bad signal names.
func WithReporterConfig(cfg Config) ReporterOption {
	return func(r *Reporter) {
		dump, fatal, _ := cfg.Signals()
		r.dumpSig = dump
		r.fatal = fatal
		r.interval = cfg.ReportInterval
	}
}

// NewReporter creates a reporter printing t's reports to out.
func NewReporter(t *Tracker, out io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		src:   t,
		out:   out,
		clock: clock.New(),
		raise: raiseDefault,
		sigs:  make(chan os.Signal, 4),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = t.logger()
	}
	return r
}

func raiseDefault(sig syscall.Signal) error {
	return unix.Kill(unix.Getpid(), sig)
}

// Dump prints a report now.
func (r *Reporter) Dump(trigger Trigger) error {
	rep := r.src.Report(trigger)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := rep.WriteTo(r.out)
	return err
}

// Start installs the signal handlers and the interval timer.
func (r *Reporter) Start() {
	r.startOnce.Do(func() {
		var sigs []os.Signal
		if r.dumpSig != 0 {
			sigs = append(sigs, r.dumpSig)
		}
		for _, s := range r.fatal {
			sigs = append(sigs, s)
		}
		if len(sigs) > 0 {
			signal.Notify(r.sigs, sigs...)
		}

		var ticker *clock.Ticker
		if r.interval > 0 {
			ticker = r.clock.Ticker(r.interval)
		}
		r.started = true
		go r.loop(ticker)
	})
}

func (r *Reporter) loop(ticker *clock.Ticker) {
	defer close(r.done)
	var tick <-chan time.Time
	if ticker != nil {
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-r.stop:
			return
		case <-tick:
			r.dump(TriggerInterval)
		case sig := <-r.sigs:
			r.handle(sig)
		}
	}
}

func (r *Reporter) dump(trigger Trigger) {
	if err := r.Dump(trigger); err != nil {
		r.log.Warn("report failed", "trigger", string(trigger), "err", err)
	}
}

func (r *Reporter) handle(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	if s == r.dumpSig {
		r.dump(TriggerSignal)
		return
	}
	r.dump(TriggerFatalSignal)
	signal.Reset(s)
	if err := r.raise(s); err != nil {
		r.log.Error("re-raise failed", "signal", unix.SignalName(s), "err", err)
	}
}

// Close removes the signal handlers and stops the timer. Reports can
// still be printed with Dump afterwards.
func (r *Reporter) Close() error {
	r.stopOnce.Do(func() {
		// Orders with Start; a reporter closed before starting never starts.
		r.startOnce.Do(func() {})
		signal.Stop(r.sigs)
		close(r.stop)
		if r.started {
			<-r.done
		}
	})
	return nil
}
