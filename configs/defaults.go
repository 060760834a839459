package configs

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Transport defaults
	if !v.IsSet("transport.addr") {
		v.Set("transport.addr", "127.0.0.1:5555")
	}
	if !v.IsSet("transport.chunk_size") {
		v.Set("transport.chunk_size", 4096)
	}
	if !v.IsSet("transport.queue_size") {
		v.Set("transport.queue_size", 256)
	}
	if !v.IsSet("transport.dial_timeout") {
		v.Set("transport.dial_timeout", 5*time.Second)
	}
	if !v.IsSet("transport.read_timeout") {
		v.Set("transport.read_timeout", 10*time.Second)
	}
	if !v.IsSet("transport.reconnect_interval") {
		v.Set("transport.reconnect_interval", time.Second)
	}

	// Decoder defaults
	if !v.IsSet("decoder.replay_chunk_size") {
		v.Set("decoder.replay_chunk_size", 64)
	}
	if !v.IsSet("decoder.replay_interval") {
		v.Set("decoder.replay_interval", time.Duration(0))
	}

	// Spectral analysis defaults: 512 Hz raw stream, 50 Hz mains notch,
	// PSD targets over 6-14 Hz
	if !v.IsSet("spectral.sample_rate") {
		v.Set("spectral.sample_rate", 512.0)
	}
	if !v.IsSet("spectral.notch_freq") {
		v.Set("spectral.notch_freq", 50.0)
	}
	if !v.IsSet("spectral.notch_q") {
		v.Set("spectral.notch_q", 30.0)
	}
	if !v.IsSet("spectral.min_samples") {
		v.Set("spectral.min_samples", 512)
	}
	if !v.IsSet("spectral.target_low") {
		v.Set("spectral.target_low", 6)
	}
	if !v.IsSet("spectral.target_high") {
		v.Set("spectral.target_high", 14)
	}

	// Buffer defaults
	if !v.IsSet("buffers.raw_capacity") {
		v.Set("buffers.raw_capacity", 1000)
	}
	if !v.IsSet("buffers.band_capacity") {
		v.Set("buffers.band_capacity", 300)
	}

	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("data_dir") {
		v.Set("data_dir", "EEG_Data")
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:  false,
		LogLevel: "info",
		DataDir:  "EEG_Data",

		Transport: GetDefaultTransportConfig(),
		Decoder:   GetDefaultDecoderConfig(),
		Spectral:  GetDefaultSpectralConfig(),
		Buffers:   GetDefaultBufferConfig(),
	}
}

// GetDefaultTransportConfig returns default sensor link settings
func GetDefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Addr:              "127.0.0.1:5555",
		ChunkSize:         4096,
		QueueSize:         256,
		DialTimeout:       5 * time.Second,
		ReadTimeout:       10 * time.Second,
		ReconnectInterval: time.Second,
	}
}

// GetDefaultDecoderConfig returns default framing settings
func GetDefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		ReplayChunkSize: 64,
		ReplayInterval:  0,
	}
}

// GetDefaultSpectralConfig returns default power spectrum settings
func GetDefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		SampleRate: 512,
		NotchFreq:  50,
		NotchQ:     30,
		MinSamples: 512,
		TargetLow:  6,
		TargetHigh: 14,
	}
}

// GetDefaultBufferConfig returns default rolling buffer capacities
func GetDefaultBufferConfig() BufferConfig {
	return BufferConfig{
		RawCapacity:  1000,
		BandCapacity: 300,
	}
}
