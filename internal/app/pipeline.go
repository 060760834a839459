package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/neurowave/eeg-recorder/configs"
	"github.com/neurowave/eeg-recorder/internal/session"
	"github.com/neurowave/eeg-recorder/pkg/ringbuf"
	"github.com/neurowave/eeg-recorder/pkg/spectral"
	"github.com/neurowave/eeg-recorder/pkg/thinkgear"
)

// Pipeline is the single-writer decode path: it owns the stream decoder and
// the rolling buffers, and is the only goroutine that mutates them. Chunks
// arrive through the bounded hand-off queue; everything downstream of that
// queue (decode, FFT, file I/O) runs here.
type Pipeline struct {
	decoder  *thinkgear.StreamDecoder
	raw      *ringbuf.Buffer[float64]
	bands    [thinkgear.NumBands]*ringbuf.Buffer[uint32]
	analyzer *spectral.Analyzer
	recorder *session.Recorder
	logger   *zap.Logger
}

// NewPipeline wires the decode path together.
func NewPipeline(cfg *configs.Config, analyzer *spectral.Analyzer, recorder *session.Recorder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		decoder:  thinkgear.NewStreamDecoder(),
		raw:      ringbuf.New[float64](cfg.Buffers.RawCapacity),
		analyzer: analyzer,
		recorder: recorder,
		logger:   logger,
	}
	for i := range p.bands {
		p.bands[i] = ringbuf.New[uint32](cfg.Buffers.BandCapacity)
	}
	return p
}

// HandleChunk feeds one transport chunk through framing, interpretation,
// buffer updates and row persistence. Checksum failures discard the packet
// without touching any buffer; persistence failures propagate and end the
// session.
func (p *Pipeline) HandleChunk(chunk []byte) error {
	for _, pkt := range p.decoder.Feed(chunk) {
		rec, err := thinkgear.Decode(pkt)
		if err != nil {
			var cerr *thinkgear.ChecksumError
			if errors.As(err, &cerr) {
				p.recorder.NoteChecksumFailure(err)
				continue
			}
			return err
		}
		if rec.Empty() {
			continue
		}

		if rec.RawEEG != nil {
			p.raw.Push(float64(*rec.RawEEG))
		}
		if rec.BandPowers != nil {
			for i, v := range rec.BandPowers {
				p.bands[i].Push(v)
			}
		}

		// The PSD estimate rides along with band-power rows only, and only
		// once a full analysis window has accumulated.
		var psd *spectral.PowerSpectrum
		if rec.BandPowers != nil {
			psd, _ = p.analyzer.Analyze(p.raw.Snapshot())
		}

		if err := p.recorder.Observe(time.Now(), rec, psd); err != nil {
			return err
		}
	}
	return nil
}

// ClearBuffers drops the raw-sample window and the per-band history, used on
// phase transitions so the next phase starts from fresh samples. The
// decoder's partial frame is kept; a packet in flight survives the pause.
func (p *Pipeline) ClearBuffers() {
	p.raw.Clear()
	for _, b := range p.bands {
		b.Clear()
	}
	p.logger.Debug("rolling buffers cleared for phase transition")
}

// BandHistory returns a copy of the recent power history for one band.
func (p *Pipeline) BandHistory(b thinkgear.Band) []uint32 {
	return p.bands[b].Snapshot()
}

// RawWindow returns a copy of the current raw-sample window.
func (p *Pipeline) RawWindow() []float64 {
	return p.raw.Snapshot()
}
