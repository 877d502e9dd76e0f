package oclstat

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	dump, fatal, err := cfg.Signals()
	require.NoError(t, err)
	assert.Equal(t, unix.SIGUSR1, dump)
	assert.Equal(t, []syscall.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}, fatal)
}

func TestLoadConfigEnv(t *testing.T) {
	cfg, err := LoadConfig(lookupMap(map[string]string{
		"OCLSTAT_LIBRARY":           "/opt/vendor/libOpenCL.so",
		"OCLSTAT_RETENTION":         "tombstone",
		"OCLSTAT_TOMBSTONE_LIMIT":   "128",
		"OCLSTAT_ON_VIOLATION":      "abort",
		"OCLSTAT_STACK":             "false",
		"OCLSTAT_STACK_DEPTH":       "8",
		"OCLSTAT_DUMP_SIGNAL":       "usr2",
		"OCLSTAT_FATAL_SIGNALS":     "SIGTERM, SIGQUIT",
		"OCLSTAT_REPORT_INTERVAL":   "30s",
		"OCLSTAT_OUTPUT":            "stdout",
		"OCLSTAT_LOG_LEVEL":         "debug",
		"OCLSTAT_LOG_FORMAT":        "JSON",
		"OCLSTAT_METRICS_ADDR":      "127.0.0.1:9464",
		"OCLSTAT_RECENT_VIOLATIONS": "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/opt/vendor/libOpenCL.so", cfg.Library)
	assert.Equal(t, RetainTombstone, cfg.Retention)
	assert.Equal(t, 128, cfg.TombstoneLimit)
	assert.Equal(t, SeverityAbort, cfg.OnViolation)
	assert.False(t, cfg.StackTrace)
	assert.Equal(t, 8, cfg.StackDepth)
	assert.Equal(t, 30*time.Second, cfg.ReportInterval)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
	assert.Equal(t, 4, cfg.RecentViolations)

	dump, fatal, err := cfg.Signals()
	require.NoError(t, err)
	assert.Equal(t, unix.SIGUSR2, dump)
	assert.Equal(t, []syscall.Signal{unix.SIGTERM, unix.SIGQUIT}, fatal)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oclstat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retention: tombstone
tombstone_limit: 10
on_violation: abort
report_interval: 1m
fatal_signals: [SIGTERM]
`), 0o644))

	cfg, err := LoadConfig(lookupMap(map[string]string{
		"OCLSTAT_CONFIG":          path,
		"OCLSTAT_TOMBSTONE_LIMIT": "20",
	}))
	require.NoError(t, err)
	assert.Equal(t, RetainTombstone, cfg.Retention)
	assert.Equal(t, 20, cfg.TombstoneLimit, "environment overrides the file")
	assert.Equal(t, SeverityAbort, cfg.OnViolation)
	assert.Equal(t, time.Minute, cfg.ReportInterval)
	assert.Equal(t, []string{"SIGTERM"}, cfg.FatalSignals)
	assert.Equal(t, DefaultLibrary, cfg.Library)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(lookupMap(map[string]string{
		"OCLSTAT_CONFIG": filepath.Join(t.TempDir(), "missing.yaml"),
	}))
	assert.ErrorContains(t, err, "read config")
}

func TestLoadConfigCollectsErrors(t *testing.T) {
	_, err := LoadConfig(lookupMap(map[string]string{
		"OCLSTAT_RETENTION":       "forever",
		"OCLSTAT_STACK_DEPTH":     "deep",
		"OCLSTAT_REPORT_INTERVAL": "soon",
		"OCLSTAT_LOG_LEVEL":       "loud",
	}))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StackDepth = 1000
	cfg.TombstoneLimit = -1
	cfg.LogFormat = "xml"
	cfg.DumpSignal = "SIGTERM"

	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.ErrorContains(t, err, "stack_depth")
	assert.ErrorContains(t, err, "both the dump signal and a fatal signal")
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    syscall.Signal
		wantErr bool
	}{
		{"SIGUSR1", unix.SIGUSR1, false},
		{"usr2", unix.SIGUSR2, false},
		{" SIGHUP ", unix.SIGHUP, false},
		{"15", unix.SIGTERM, false},
		{"", 0, false},
		{"none", 0, false},
		{"SIGKILL", 0, true},
		{"9", 0, true},
		{"SIGSEGV", 0, true},
		{"bus", 0, true},
		{"SIGFPE", 0, true},
		{"11", 0, true},
		{"STOP", 0, true},
		{"SIGNOPE", 0, true},
		{"0", 0, true},
		{"99", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignal(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignalsRejectFaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FatalSignals = []string{"SIGTERM", "SIGSEGV"}
	_, fatal, err := cfg.Signals()
	assert.ErrorContains(t, err, "SIGSEGV")
	assert.Equal(t, []syscall.Signal{unix.SIGTERM}, fatal)
}

func TestSignalsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DumpSignal = "none"
	cfg.FatalSignals = nil
	dump, fatal, err := cfg.Signals()
	require.NoError(t, err)
	assert.Zero(t, dump)
	assert.Empty(t, fatal)
}
