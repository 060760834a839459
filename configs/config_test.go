package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := GetDefaultConfig()
	require.NoError(t, ValidateConfig(config))

	assert.Equal(t, "127.0.0.1:5555", config.Transport.Addr)
	assert.Equal(t, 512.0, config.Spectral.SampleRate)
	assert.Equal(t, 512, config.Spectral.MinSamples)
	assert.Equal(t, "EEG_Data", config.DataDir)
}

func TestValidateConfigRejectsBadSampleRate(t *testing.T) {
	config := GetDefaultConfig()
	config.Spectral.SampleRate = 0
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfigRejectsNotchAboveNyquist(t *testing.T) {
	config := GetDefaultConfig()
	config.Spectral.NotchFreq = 300
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfigRejectsInvertedTargetRange(t *testing.T) {
	config := GetDefaultConfig()
	config.Spectral.TargetLow = 15
	config.Spectral.TargetHigh = 6
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfigRejectsUndersizedRawBuffer(t *testing.T) {
	config := GetDefaultConfig()
	config.Buffers.RawCapacity = 100
	assert.Error(t, ValidateConfig(config),
		"raw buffer must hold at least one analysis window")
}

func TestValidateConfigRejectsZeroQueueSize(t *testing.T) {
	config := GetDefaultConfig()
	config.Transport.QueueSize = 0
	assert.Error(t, ValidateConfig(config))
}
