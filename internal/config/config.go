package config

import (
	"fmt"
	"os"
	"strconv"

	"bayesim/domain/scenario"
	"bayesim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Network  NetworkConfig
	Sampling SamplingConfig
	Server   ServerConfig
	Database DatabaseConfig
	Paths    PathConfig
	LogLevel string
}

// NetworkConfig holds the default probabilities of the chain
type NetworkConfig struct {
	SmokingProb           float64
	CancerGivenSmoking    float64
	CancerGivenNonSmoking float64
	BreathGivenCancer     float64
	BreathGivenNoCancer   float64
}

// SamplingConfig holds default sampling settings
type SamplingConfig struct {
	SampleCount int
	Seed        int64
	Workers     int
	MaxSamples  int
	MaxWorkers  int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory ledger.
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Network:  *loadNetworkConfig(),
		Sampling: *loadSamplingConfig(),
		Server:   *loadServerConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Paths:    PathConfig{ExportDir: getEnvOrDefault("EXPORT_DIR", "./exports")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Inputs returns the configured network parameters.
func (c *Config) Inputs() scenario.Inputs {
	return scenario.Inputs{
		Smoking: c.Network.SmokingProb,
		LungCancer: scenario.ConditionalRisk{
			GivenPositive: c.Network.CancerGivenSmoking,
			GivenNegative: c.Network.CancerGivenNonSmoking,
		},
		Breath: scenario.ConditionalRisk{
			GivenPositive: c.Network.BreathGivenCancer,
			GivenNegative: c.Network.BreathGivenNoCancer,
		},
	}
}

func loadNetworkConfig() *NetworkConfig {
	d := scenario.Defaults()
	return &NetworkConfig{
		SmokingProb:           getEnvFloatOrDefault("SMOKING_PROB", d.Smoking),
		CancerGivenSmoking:    getEnvFloatOrDefault("CANCER_GIVEN_SMOKING", d.LungCancer.GivenPositive),
		CancerGivenNonSmoking: getEnvFloatOrDefault("CANCER_GIVEN_NONSMOKING", d.LungCancer.GivenNegative),
		BreathGivenCancer:     getEnvFloatOrDefault("BREATH_GIVEN_CANCER", d.Breath.GivenPositive),
		BreathGivenNoCancer:   getEnvFloatOrDefault("BREATH_GIVEN_NO_CANCER", d.Breath.GivenNegative),
	}
}

func loadSamplingConfig() *SamplingConfig {
	return &SamplingConfig{
		SampleCount: getEnvIntOrDefault("SAMPLE_COUNT", 10000),
		Seed:        int64(getEnvIntOrDefault("SEED", 42)),
		Workers:     getEnvIntOrDefault("SAMPLER_WORKERS", 1),
		MaxSamples:  getEnvIntOrDefault("MAX_SAMPLE_COUNT", 1_000_000),
		MaxWorkers:  getEnvIntOrDefault("MAX_SAMPLER_WORKERS", 64),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(config *Config) error {
	if err := config.Inputs().Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	sampling := config.Sampling
	if sampling.MaxSamples < 1 || sampling.MaxWorkers < 1 {
		return errors.ConfigInvalid("MAX_SAMPLE_COUNT and MAX_SAMPLER_WORKERS must be at least 1")
	}
	if sampling.SampleCount < 0 || sampling.SampleCount > sampling.MaxSamples {
		return errors.ConfigInvalid(fmt.Sprintf("SAMPLE_COUNT must be between 0 and %d, got %d", sampling.MaxSamples, sampling.SampleCount))
	}
	if sampling.Workers < 1 || sampling.Workers > sampling.MaxWorkers {
		return errors.ConfigInvalid(fmt.Sprintf("SAMPLER_WORKERS must be between 1 and %d, got %d", sampling.MaxWorkers, sampling.Workers))
	}
	if config.Server.Port == "" || config.Server.APIPort == "" {
		return errors.ConfigInvalid("PORT and API_PORT are required")
	}
	switch config.LogLevel {
	case "ERROR", "WARN", "INFO", "DEBUG", "TRACE":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown LOG_LEVEL %q", config.LogLevel))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
