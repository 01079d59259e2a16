package tracer

// Config controls the tracer provider of the database runtime.
type Config struct {
	// ServiceName is attached to every span as service.name.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv is attached as deployment.environment.
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport ships spans over OTLP/HTTP. The exporter reads its
	// endpoint from the standard OTEL_EXPORTER_OTLP_* variables.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`

	// Endpoint overrides the OTLP/HTTP host:port of the exporter.
	Endpoint string `yaml:"endpoint" envconfig:"TRACER_ENDPOINT"`

	// Insecure exports over plain HTTP.
	Insecure bool `yaml:"insecure" envconfig:"TRACER_INSECURE"`

	// SampleRatio samples this fraction of root traces. Values outside
	// (0, 1) sample everything.
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"TRACER_SAMPLE_RATIO"`
}
