package entities

// Config holds runtime defaults.
type Config struct {
	// LogLevel is the guest logging verbosity ("debug", "info", "warn", "error").
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// ScanBudget caps the bytes a single signature scan may read.
	ScanBudget uint64 `json:"scan_budget,omitempty" yaml:"scan_budget,omitempty" toml:"scan_budget"`

	// ScanChunkSize is the read granularity of signature scans.
	ScanChunkSize int `json:"scan_chunk_size,omitempty" yaml:"scan_chunk_size,omitempty" toml:"scan_chunk_size" validate:"omitempty,min=16"`

	// MaxTickRate caps the tick rate a script may request, in Hz.
	MaxTickRate float64 `json:"max_tick_rate,omitempty" yaml:"max_tick_rate,omitempty" toml:"max_tick_rate" validate:"omitempty,gt=0"`
}

// Defaults for Config.
const (
	DefaultScanBudget    = 1 << 30
	DefaultScanChunkSize = 64 << 10
	DefaultMaxTickRate   = 240
)

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		ScanBudget:    DefaultScanBudget,
		ScanChunkSize: DefaultScanChunkSize,
		MaxTickRate:   DefaultMaxTickRate,
	}
}

// ConfigOption is a functional option for Config.
type ConfigOption func(*Config)

// WithLogLevel sets the logging verbosity level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithScanBudget sets the per-scan read budget. Zero keeps the default.
func WithScanBudget(n uint64) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.ScanBudget = n
		}
	}
}

// WithScanChunkSize sets the scan read granularity.
func WithScanChunkSize(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.ScanChunkSize = n
		}
	}
}

// WithMaxTickRate caps the tick rate scripts may request.
func WithMaxTickRate(hz float64) ConfigOption {
	return func(c *Config) {
		if hz > 0 {
			c.MaxTickRate = hz
		}
	}
}

// NewConfig creates a Config from the defaults and opts.
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Merge fills zero fields of c from DefaultConfig.
func (c Config) Merge() Config {
	d := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ScanBudget == 0 {
		c.ScanBudget = d.ScanBudget
	}
	if c.ScanChunkSize == 0 {
		c.ScanChunkSize = d.ScanChunkSize
	}
	if c.MaxTickRate == 0 {
		c.MaxTickRate = d.MaxTickRate
	}
	return c
}
