package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules applied to the default logger
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry (host:port or "stdout")
	ProfilingPort      int    // port for profiling
	GrpcServerAddr     string // listen addr for gRPC server (insecure)
	TLSServerAddr      string // listen addr for gRPC server (tls)
	TLSCertFile        string // path to TLS certificate
	TLSKeyFile         string // path to TLS key
	TLSCAFile          string // path to TLS CA
	TraefikCerts       string // path to traefik certs file
	TraefikCertDomain  string // the domain to lookup within the traefik certs
	AdminToken         string // token for admin access
	JSMaxExecutionTime string // max execution time of a codec or adr script
	UplinkRateLimit    float64
	UplinkRateBurst    int
	WatchPlugins       bool // reload plugin files on change
)

// Config holds the structured configuration read from the config file.
// These settings have no flag representation.
type Config struct {
	Network     NetworkConfig     `mapstructure:"network" yaml:"network"`
	Codec       CodecConfig       `mapstructure:"codec" yaml:"codec"`
	Integration IntegrationConfig `mapstructure:"integration" yaml:"integration"`
}
