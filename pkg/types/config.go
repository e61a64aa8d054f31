package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single upstream request when the source sets none.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "quickpick/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig describes the scraper service behind one source.
type SourceConfig struct {
	// Endpoint is the fixed aggregate endpoint of the scraper service.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Headers are added to every request to this source.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`

	// Timeout overrides HTTPConfig.Timeout for this source. A source that
	// exceeds it counts as failed for the run.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`

	// Disabled removes the source from dispatch even if links resolve.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty" mapstructure:"disabled"`
}

// AggregateConfig holds settings for the fan-out and normalization stages.
type AggregateConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Sources maps source IDs to their scraper services.
	Sources map[string]SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`

	// RunTimeout is the deadline for one whole lookup (0 = none).
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout"`
}

// Source returns the configuration for id: DefaultSources overlaid with
// whatever fields the configured entry sets.
func (c AggregateConfig) Source(id SourceID) SourceConfig {
	sc := DefaultSources()[string(id)]
	over, ok := c.Sources[string(id)]
	if !ok {
		return sc
	}
	if over.Endpoint != "" {
		sc.Endpoint = over.Endpoint
	}
	if len(over.Headers) > 0 {
		merged := make(map[string]string, len(sc.Headers)+len(over.Headers))
		for k, v := range sc.Headers {
			merged[k] = v
		}
		for k, v := range over.Headers {
			merged[k] = v
		}
		sc.Headers = merged
	}
	if over.Timeout > 0 {
		sc.Timeout = over.Timeout
	}
	sc.Disabled = over.Disabled
	return sc
}

// TimeoutFor returns the effective per-request timeout for id.
func (c AggregateConfig) TimeoutFor(id SourceID) time.Duration {
	if t := c.Source(id).Timeout; t > 0 {
		return t
	}
	return c.Timeout
}

// DefaultSources returns the scraper origins the storefront integration
// was deployed against. The Zepto tunnel needs a header that skips the
// ngrok browser-warning page.
func DefaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		string(SourceBlinkit): {
			Endpoint: "https://a367546c-7427-43e0-8a51-0b1bc178922b-00-26eswvwllxnay.picard.replit.dev",
		},
		string(SourceBigBasket): {
			Endpoint: "https://1831d196-9e89-40b6-917b-1a7565711d22-00-mz7rvvgk42pb.janeway.replit.dev",
		},
		string(SourceZepto): {
			Endpoint: "https://epic-ladybug-glad.ngrok-free.app",
			Headers:  map[string]string{"ngrok-skip-browser-warning": "any"},
		},
	}
}

// DirectoryDriver selects the product directory backend.
type DirectoryDriver string

const (
	DriverSQLite   DirectoryDriver = "sqlite3"
	DriverPostgres DirectoryDriver = "postgres"
)

// DirectoryConfig holds settings for the product directory.
type DirectoryConfig struct {
	// Driver selects sqlite3 (local file) or postgres (hosted table).
	Driver DirectoryDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the SQLite file path or the PostgreSQL connection string.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// PageSize is the batch size used when listing a category (default 1000).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
}

// IdentityConfig holds settings for resolving the current user.
type IdentityConfig struct {
	// JWTSecret verifies HS256 access tokens. When empty, UserID is used as
	// a fixed development identity.
	JWTSecret string `json:"-" yaml:"-" mapstructure:"jwt_secret"`

	// AccessToken is the signed-in user's token for CLI invocations.
	AccessToken string `json:"-" yaml:"-" mapstructure:"access_token"`

	// UserID is a fixed caller ID for local development.
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty" mapstructure:"user_id"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ReadTimeout bounds reading a request (default 10s).
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC collector address (e.g. "localhost:4317").
	// Spans are not exported when it is empty.
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`

	Insecure bool `json:"insecure" yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the fraction of lookups traced, 0.0 to 1.0.
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
}

// Config groups all stage configurations.
type Config struct {
	Aggregate AggregateConfig `json:"aggregate" yaml:"aggregate" mapstructure:"aggregate"`
	Directory DirectoryConfig `json:"directory" yaml:"directory" mapstructure:"directory"`
	Identity  IdentityConfig  `json:"identity" yaml:"identity" mapstructure:"identity"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" mapstructure:"telemetry"`
	LogLevel  string          `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}
