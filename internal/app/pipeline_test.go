package app

import (
	"encoding/binary"
	"encoding/csv"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neurowave/eeg-recorder/configs"
	"github.com/neurowave/eeg-recorder/internal/session"
	"github.com/neurowave/eeg-recorder/pkg/spectral"
	"github.com/neurowave/eeg-recorder/pkg/thinkgear"
)

func newTestPipeline(t *testing.T) (*Pipeline, *session.Recorder) {
	t.Helper()

	analyzer, err := spectral.NewAnalyzer(spectral.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	profile := &session.Profile{Name: "bob", Age: "31", IAF: "N/A"}
	sess := session.NewSession(profile, session.Phase{})
	recorder := session.NewRecorder(sess, t.TempDir(), analyzer.TargetFrequencies(), zap.NewNop())

	return NewPipeline(configs.GetDefaultConfig(), analyzer, recorder, zap.NewNop()), recorder
}

func frame(t *testing.T, payload []byte) []byte {
	t.Helper()
	out, err := thinkgear.Marshal(payload)
	require.NoError(t, err)
	return out
}

func rawSampleFrame(t *testing.T, v int16) []byte {
	payload := []byte{thinkgear.CodeRawEEG, 0x02, 0, 0}
	binary.BigEndian.PutUint16(payload[2:], uint16(v))
	return frame(t, payload)
}

func bandPowerFrame(t *testing.T) []byte {
	payload := []byte{thinkgear.CodeBandPower, 0x18}
	for b := 0; b < thinkgear.NumBands; b++ {
		v := uint32(b+1) * 1000
		payload = append(payload, byte(v>>16), byte(v>>8), byte(v))
	}
	return frame(t, payload)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPipelinePersistsBandPowerRows(t *testing.T) {
	p, recorder := newTestPipeline(t)

	att := frame(t, []byte{thinkgear.CodeAttention, 64})
	require.NoError(t, p.HandleChunk(att))
	assert.Equal(t, session.Idle, recorder.State())

	require.NoError(t, p.HandleChunk(bandPowerFrame(t)))
	assert.Equal(t, session.Recording, recorder.State())

	rows := readCSV(t, recorder.Path())
	require.Len(t, rows, 2)
	assert.Equal(t, "64", rows[1][13], "attention merged into the row")
	assert.Equal(t, "1000", rows[1][15], "delta power")
	assert.Equal(t, "8000", rows[1][22], "gamma high power")
}

func TestPipelineChecksumFailureIsNotFatal(t *testing.T) {
	p, recorder := newTestPipeline(t)

	corrupt := bandPowerFrame(t)
	corrupt[len(corrupt)-1] ^= 0xFF

	require.NoError(t, p.HandleChunk(corrupt))
	assert.Equal(t, session.Idle, recorder.State(), "rejected packet must not open the file")

	require.NoError(t, p.HandleChunk(bandPowerFrame(t)))
	assert.Len(t, readCSV(t, recorder.Path()), 2, "only the valid packet produced a row")
}

func TestPipelineAccumulatesRawWindow(t *testing.T) {
	p, _ := newTestPipeline(t)

	var stream []byte
	for i := 0; i < 100; i++ {
		stream = append(stream, rawSampleFrame(t, int16(i))...)
	}
	require.NoError(t, p.HandleChunk(stream))

	window := p.RawWindow()
	require.Len(t, window, 100)
	assert.Equal(t, 0.0, window[0])
	assert.Equal(t, 99.0, window[99])
}

func TestPipelinePSDUnavailableUntilFullWindow(t *testing.T) {
	p, recorder := newTestPipeline(t)

	// 100 samples is under the 512-sample analysis window.
	var stream []byte
	for i := 0; i < 100; i++ {
		stream = append(stream, rawSampleFrame(t, 100)...)
	}
	stream = append(stream, bandPowerFrame(t)...)
	require.NoError(t, p.HandleChunk(stream))

	rows := readCSV(t, recorder.Path())
	require.Len(t, rows, 2)
	for col := 23; col <= 31; col++ {
		assert.Equal(t, "", rows[1][col], "PSD column %d before a full window", col)
	}

	// Fill the window with a 10 Hz sine and the next row carries PSD values.
	stream = stream[:0]
	for i := 0; i < 512; i++ {
		v := int16(500 * math.Sin(2*math.Pi*10*float64(i)/512))
		stream = append(stream, rawSampleFrame(t, v)...)
	}
	stream = append(stream, bandPowerFrame(t)...)
	require.NoError(t, p.HandleChunk(stream))

	rows = readCSV(t, recorder.Path())
	require.Len(t, rows, 3)
	for col := 23; col <= 31; col++ {
		assert.NotEqual(t, "", rows[2][col], "PSD column %d with a full window", col)
	}
}

func TestPipelineClearBuffersResetsAnalysisWindow(t *testing.T) {
	p, recorder := newTestPipeline(t)

	var stream []byte
	for i := 0; i < 512; i++ {
		stream = append(stream, rawSampleFrame(t, int16(i%200))...)
	}
	stream = append(stream, bandPowerFrame(t)...)
	require.NoError(t, p.HandleChunk(stream))
	require.NotEqual(t, "", readCSV(t, recorder.Path())[1][23])

	p.ClearBuffers()
	assert.Empty(t, p.RawWindow())
	assert.Empty(t, p.BandHistory(thinkgear.Delta))

	// After the reset the next row has no spectrum until the window refills.
	require.NoError(t, p.HandleChunk(bandPowerFrame(t)))
	rows := readCSV(t, recorder.Path())
	require.Len(t, rows, 3)
	assert.Equal(t, "", rows[2][23])
}

func TestPipelinePartialFrameAcrossChunks(t *testing.T) {
	p, recorder := newTestPipeline(t)

	full := bandPowerFrame(t)
	require.NoError(t, p.HandleChunk(full[:7]))
	assert.Equal(t, session.Idle, recorder.State())

	require.NoError(t, p.HandleChunk(full[7:]))
	assert.Equal(t, session.Recording, recorder.State())
	assert.Len(t, readCSV(t, recorder.Path()), 2)
}

func TestPipelineBandHistory(t *testing.T) {
	p, _ := newTestPipeline(t)

	require.NoError(t, p.HandleChunk(bandPowerFrame(t)))
	require.NoError(t, p.HandleChunk(bandPowerFrame(t)))

	assert.Equal(t, []uint32{1000, 1000}, p.BandHistory(thinkgear.Delta))
	assert.Equal(t, []uint32{8000, 8000}, p.BandHistory(thinkgear.GammaHigh))
}
