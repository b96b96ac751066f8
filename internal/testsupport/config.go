package testsupport

import (
	"testing"

	"partcat/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a default config with console logging at error level so
// test output stays quiet. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithGroup overrides the catalog group.
func WithGroup(group string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Group = group
	}
}

// WithRejectDuplicateSymbols makes duplicate legacy symbol names fatal.
func WithRejectDuplicateSymbols() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.RejectDuplicateSymbols = true
	}
}

// WithoutHistory disables the history ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}
