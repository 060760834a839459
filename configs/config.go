package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose  bool   `mapstructure:"verbose"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`

	// Transport configuration
	Transport TransportConfig `mapstructure:"transport"`

	// Stream decoding configuration
	Decoder DecoderConfig `mapstructure:"decoder"`

	// Spectral analysis configuration
	Spectral SpectralConfig `mapstructure:"spectral"`

	// Rolling buffer configuration
	Buffers BufferConfig `mapstructure:"buffers"`
}

// TransportConfig contains sensor link settings
type TransportConfig struct {
	Addr              string        `mapstructure:"addr"`
	ChunkSize         int           `mapstructure:"chunk_size"`
	QueueSize         int           `mapstructure:"queue_size"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
}

// DecoderConfig contains packet framing settings
type DecoderConfig struct {
	ReplayChunkSize int           `mapstructure:"replay_chunk_size"`
	ReplayInterval  time.Duration `mapstructure:"replay_interval"`
}

// SpectralConfig contains power spectrum settings
type SpectralConfig struct {
	SampleRate float64 `mapstructure:"sample_rate"`
	NotchFreq  float64 `mapstructure:"notch_freq"`
	NotchQ     float64 `mapstructure:"notch_q"`
	MinSamples int     `mapstructure:"min_samples"`
	TargetLow  int     `mapstructure:"target_low"`
	TargetHigh int     `mapstructure:"target_high"`
}

// BufferConfig contains rolling buffer capacities
type BufferConfig struct {
	RawCapacity  int `mapstructure:"raw_capacity"`
	BandCapacity int `mapstructure:"band_capacity"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	setDefaults(viper.GetViper())

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Spectral.SampleRate <= 0 {
		return fmt.Errorf("spectral sample rate must be positive")
	}

	if config.Spectral.NotchFreq <= 0 || config.Spectral.NotchFreq >= config.Spectral.SampleRate/2 {
		return fmt.Errorf("notch frequency must be between 0 and the Nyquist frequency")
	}

	if config.Spectral.MinSamples <= 0 {
		return fmt.Errorf("spectral minimum sample count must be positive")
	}

	if config.Spectral.TargetLow > config.Spectral.TargetHigh {
		return fmt.Errorf("spectral target range is inverted")
	}

	if config.Buffers.RawCapacity < config.Spectral.MinSamples {
		return fmt.Errorf("raw buffer capacity %d cannot hold the %d-sample analysis window",
			config.Buffers.RawCapacity, config.Spectral.MinSamples)
	}

	if config.Buffers.BandCapacity <= 0 {
		return fmt.Errorf("band buffer capacity must be positive")
	}

	if config.Transport.QueueSize <= 0 {
		return fmt.Errorf("transport queue size must be positive")
	}

	return nil
}
