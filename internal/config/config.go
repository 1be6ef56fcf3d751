package config

type Config interface {
	EnvConfig
	AuthConfig
	UpstreamConfig
	StorageConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Auth
	Upstream
	Storage
	Cors
}

func New() Config {
	return mainConfig{}
}
