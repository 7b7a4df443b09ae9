package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the number discovery binaries.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OnlineSim free numbers API
	OnlineSimBaseURL string `mapstructure:"ONLINESIM_BASE_URL"`
	OnlineSimAPIKey  string `mapstructure:"ONLINESIM_API_KEY"`
	OnlineSimLang    string `mapstructure:"ONLINESIM_LANG"`

	// Provider client hardening
	ProviderTimeoutSeconds     int     `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`
	ProviderMaxRetries         int     `mapstructure:"PROVIDER_MAX_RETRIES"`
	ProviderRetryInitialMillis int     `mapstructure:"PROVIDER_RETRY_INITIAL_MILLIS"`
	ProviderRateLimitRPS       float64 `mapstructure:"PROVIDER_RATE_LIMIT_RPS"` // 0 disables the limiter
	ProviderRateLimitBurst     int     `mapstructure:"PROVIDER_RATE_LIMIT_BURST"`

	// Upper bound for a whole FindLiveNumber attempt started from the HTTP API.
	DiscoveryTimeoutSeconds int `mapstructure:"DISCOVERY_TIMEOUT_SECONDS"`

	// Number Discovery Service
	NumberDiscoveryServiceHTTPPort       int `mapstructure:"NUMBER_DISCOVERY_SERVICE_HTTP_PORT"`
	NumberDiscoveryServiceMetricsPort    int `mapstructure:"NUMBER_DISCOVERY_SERVICE_METRICS_PORT"`
	NumberDiscoveryServiceGRPCHealthPort int `mapstructure:"NUMBER_DISCOVERY_SERVICE_GRPC_HEALTH_PORT"`

	// Optional event publishing; empty NATS_URL disables it.
	NATSURL             string `mapstructure:"NATS_URL"`
	NumberEventsSubject string `mapstructure:"NUMBER_EVENTS_SUBJECT"`

	// Empty secret leaves the HTTP API unauthenticated.
	JWTAccessSecret string `mapstructure:"JWT_ACCESS_SECRET"`
}

// Load reads .env (if present), config.defaults.yaml and APP_* environment variables.
// serviceName is only used for log context for now.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(viper.New(), serviceName)
}

// LoadFrom is Load on a caller supplied viper instance, so command line flags
// bound to v take precedence over files and environment.
func LoadFrom(v *viper.Viper, serviceName string) (*Config, error) {
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP") // APP_LOG_LEVEL, APP_ONLINESIM_API_KEY etc.

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("%s: configuration file 'config.defaults.yaml' not found; using defaults and environment variables.", serviceName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("ONLINESIM_BASE_URL", "https://onlinesim.io")
	v.SetDefault("ONLINESIM_API_KEY", "")
	v.SetDefault("ONLINESIM_LANG", "en")

	v.SetDefault("PROVIDER_TIMEOUT_SECONDS", 10)
	v.SetDefault("PROVIDER_MAX_RETRIES", 2)
	v.SetDefault("PROVIDER_RETRY_INITIAL_MILLIS", 200)
	v.SetDefault("PROVIDER_RATE_LIMIT_RPS", 5)
	v.SetDefault("PROVIDER_RATE_LIMIT_BURST", 2)

	v.SetDefault("DISCOVERY_TIMEOUT_SECONDS", 120)

	v.SetDefault("NUMBER_DISCOVERY_SERVICE_HTTP_PORT", 8080)
	v.SetDefault("NUMBER_DISCOVERY_SERVICE_METRICS_PORT", 9099)
	v.SetDefault("NUMBER_DISCOVERY_SERVICE_GRPC_HEALTH_PORT", 50061)

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NUMBER_EVENTS_SUBJECT", "number.discovered")

	v.SetDefault("JWT_ACCESS_SECRET", "")
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) ProviderRetryInitialInterval() time.Duration {
	return time.Duration(c.ProviderRetryInitialMillis) * time.Millisecond
}

func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutSeconds) * time.Second
}
