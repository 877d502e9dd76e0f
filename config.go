package oclstat

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "OCLSTAT_"

// Config controls the shim. Values come from DefaultConfig, then an
// optional YAML file named by OCLSTAT_CONFIG, then OCLSTAT_* variables.
type Config struct {
	// Library is the real implementation to dlopen.
	Library string `yaml:"library"`

	Retention      Retention `yaml:"retention"`
	TombstoneLimit int       `yaml:"tombstone_limit"`

	// OnViolation is "log" or "abort".
	OnViolation Severity `yaml:"on_violation"`
	StackTrace  bool     `yaml:"stack_trace"`
	StackDepth  int      `yaml:"stack_depth"`

	// DumpSignal prints a report and lets the process continue. "none"
	// disables it.
	DumpSignal string `yaml:"dump_signal"`
	// FatalSignals print a report, then the signal is re-raised with its
	// default disposition.
	FatalSignals []string `yaml:"fatal_signals"`

	// ReportInterval enables periodic reports when positive.
	ReportInterval time.Duration `yaml:"report_interval"`
	// Output is "stderr", "stdout" or a file path.
	Output string `yaml:"output"`

	LogLevel  string    `yaml:"log_level"`
	LogFormat LogFormat `yaml:"log_format"`

	// MetricsAddr serves Prometheus metrics when set, e.g. "127.0.0.1:9464".
	MetricsAddr string `yaml:"metrics_addr"`

	RecentViolations int `yaml:"recent_violations"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Library:          DefaultLibrary,
		Retention:        RetainEvict,
		OnViolation:      SeverityLog,
		StackTrace:       true,
		StackDepth:       32,
		DumpSignal:       "SIGUSR1",
		FatalSignals:     []string{"SIGINT", "SIGTERM", "SIGHUP"},
		Output:           "stderr",
		LogLevel:         "warn",
		LogFormat:        FormatText,
		RecentViolations: 16,
	}
}

// ConfigFromEnv loads the configuration from the process environment.
func ConfigFromEnv() (Config, error) {
	return LoadConfig(os.LookupEnv)
}

// LoadConfig builds a Config from lookup, which has the signature of
// os.LookupEnv. All parse and validation errors are returned together.
func LoadConfig(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	var errs error

	env := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if path, ok := env("CONFIG"); ok {
		if err := cfg.loadFile(path); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if v, ok := env("LIBRARY"); ok {
		cfg.Library = v
	}
	if v, ok := env("RETENTION"); ok {
		errs = multierr.Append(errs, cfg.Retention.UnmarshalText([]byte(v)))
	}
	if v, ok := env("TOMBSTONE_LIMIT"); ok {
		errs = multierr.Append(errs, parseInt("TOMBSTONE_LIMIT", v, &cfg.TombstoneLimit))
	}
	if v, ok := env("ON_VIOLATION"); ok {
		errs = multierr.Append(errs, cfg.OnViolation.UnmarshalText([]byte(v)))
	}
	if v, ok := env("STACK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%sSTACK: %w", EnvPrefix, err))
		} else {
			cfg.StackTrace = b
		}
	}
	if v, ok := env("STACK_DEPTH"); ok {
		errs = multierr.Append(errs, parseInt("STACK_DEPTH", v, &cfg.StackDepth))
	}
	if v, ok := env("DUMP_SIGNAL"); ok {
		cfg.DumpSignal = v
	}
	if v, ok := env("FATAL_SIGNALS"); ok {
		cfg.FatalSignals = splitList(v)
	}
	if v, ok := env("REPORT_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%sREPORT_INTERVAL: %w", EnvPrefix, err))
		} else {
			cfg.ReportInterval = d
		}
	}
	if v, ok := env("OUTPUT"); ok {
		cfg.Output = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := env("LOG_FORMAT"); ok {
		cfg.LogFormat = LogFormat(strings.ToLower(v))
	}
	if v, ok := env("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := env("RECENT_VIOLATIONS"); ok {
		errs = multierr.Append(errs, parseInt("RECENT_VIOLATIONS", v, &cfg.RecentViolations))
	}

	errs = multierr.Append(errs, cfg.Validate())
	return cfg, errs
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func parseInt(key, v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every field and returns all problems found.
func (c Config) Validate() error {
	var errs error
	if c.Library == "" {
		errs = multierr.Append(errs, fmt.Errorf("library must not be empty"))
	}
	if c.Retention != RetainEvict && c.Retention != RetainTombstone {
		errs = multierr.Append(errs, fmt.Errorf("invalid retention %d", int(c.Retention)))
	}
	if c.TombstoneLimit < 0 {
		errs = multierr.Append(errs, fmt.Errorf("tombstone_limit must be >= 0, got %d", c.TombstoneLimit))
	}
	if c.OnViolation != SeverityLog && c.OnViolation != SeverityAbort {
		errs = multierr.Append(errs, fmt.Errorf("invalid on_violation %d", int(c.OnViolation)))
	}
	if c.StackDepth < 0 || c.StackDepth > 256 {
		errs = multierr.Append(errs, fmt.Errorf("stack_depth must be in [0, 256], got %d", c.StackDepth))
	}
	if c.ReportInterval < 0 {
		errs = multierr.Append(errs, fmt.Errorf("report_interval must be >= 0, got %s", c.ReportInterval))
	}
	if c.RecentViolations < 0 {
		errs = multierr.Append(errs, fmt.Errorf("recent_violations must be >= 0, got %d", c.RecentViolations))
	}
	if c.Output == "" {
		errs = multierr.Append(errs, fmt.Errorf("output must not be empty"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, err)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		errs = multierr.Append(errs, fmt.Errorf("invalid log_format %q", c.LogFormat))
	}
	if _, _, err := c.Signals(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Signals resolves DumpSignal and FatalSignals. A zero dump signal means
// none is installed.
func (c Config) Signals() (dump syscall.Signal, fatal []syscall.Signal, err error) {
	dump, err = ParseSignal(c.DumpSignal)
	for _, name := range c.FatalSignals {
		sig, perr := ParseSignal(name)
		if perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		if sig == 0 {
			continue
		}
		if sig == dump {
			err = multierr.Append(err, fmt.Errorf("signal %s is both the dump signal and a fatal signal", name))
			continue
		}
		fatal = append(fatal, sig)
	}
	return dump, fatal, err
}

// ParseSignal accepts "SIGUSR1", "USR1", a signal number, or "" / "none"
// for no signal. Signals that cannot be caught are rejected, and so are
// the synchronous fault signals: when the fault is raised by the host
// program's own code, os/signal never sees it.
func ParseSignal(name string) (syscall.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || name == "NONE" {
		return 0, nil
	}
	var sig syscall.Signal
	if n, err := strconv.Atoi(name); err == nil {
		if n <= 0 || n >= 65 {
			return 0, fmt.Errorf("invalid signal number %d", n)
		}
		sig = syscall.Signal(n)
	} else {
		if !strings.HasPrefix(name, "SIG") {
			name = "SIG" + name
		}
		if sig = unix.SignalNum(name); sig == 0 {
			return 0, fmt.Errorf("unknown signal %q", name)
		}
	}
	switch sig {
	case unix.SIGKILL, unix.SIGSTOP:
		return 0, fmt.Errorf("signal %s cannot be handled", unix.SignalName(sig))
	case unix.SIGSEGV, unix.SIGBUS, unix.SIGFPE, unix.SIGILL, unix.SIGTRAP:
		return 0, fmt.Errorf("fault signal %s is not delivered to the shim", unix.SignalName(sig))
	}
	return sig, nil
}
