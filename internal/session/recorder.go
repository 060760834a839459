package session

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/neurowave/eeg-recorder/pkg/spectral"
	"github.com/neurowave/eeg-recorder/pkg/thinkgear"
)

// State is the recorder's position in the session lifecycle.
type State int

const (
	Idle State = iota
	Recording
	Paused
	Saved
	Discarded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Saved:
		return "saved"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recorder gates persistence of decoded records. It opens the output stream
// lazily on the first band-power record, writes exactly one durably flushed
// row per band-power record while recording, and merges in the latest
// asynchronously delivered scalar values.
//
// Recorder is driven from the single decode goroutine plus the control path
// (pause/resume/save/discard); control transitions happen only while the
// decode path is quiescent between packets.
type Recorder struct {
	sess    *Session
	dataDir string
	targets []int
	logger  *zap.Logger

	state State
	file  *os.File
	w     *csv.Writer
	path  string

	latestSignal     *uint8
	latestAttention  *uint8
	latestMeditation *uint8

	checksumSuppressed int
	lastChecksumLog    time.Time
}

// NewRecorder creates an idle recorder for the session. targets lists the
// integer PSD frequencies that become columns, in order.
func NewRecorder(sess *Session, dataDir string, targets []int, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sess:    sess,
		dataDir: dataDir,
		targets: targets,
		logger:  logger,
		state:   Idle,
	}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State { return r.state }

// Path returns the output file path, empty until the stream has been opened.
func (r *Recorder) Path() string { return r.path }

// Observe folds one decoded record into the session. Scalar fields update
// the latest-value cache regardless of state; a band-power record triggers a
// persisted row when recording (opening the stream first if this is the very
// first one). Write failures are fatal to the session and propagate.
func (r *Recorder) Observe(ts time.Time, rec thinkgear.DecodedRecord, psd *spectral.PowerSpectrum) error {
	if rec.SignalQuality != nil {
		r.latestSignal = rec.SignalQuality
	}
	if rec.Attention != nil {
		r.latestAttention = rec.Attention
	}
	if rec.Meditation != nil {
		r.latestMeditation = rec.Meditation
	}

	if rec.BandPowers == nil {
		return nil
	}

	switch r.state {
	case Idle:
		if err := r.open(); err != nil {
			return err
		}
		r.state = Recording
	case Recording:
	default:
		// Paused or terminal: records keep flowing but nothing is written.
		return nil
	}

	return r.writeRow(ts, *rec.BandPowers, psd)
}

// Pause stops row emission; decoding upstream continues unaffected.
func (r *Recorder) Pause() {
	if r.state == Recording || r.state == Idle {
		prev := r.state
		r.state = Paused
		r.logger.Info("session paused", zap.Stringer("from", prev))
	}
}

// Resume continues the current phase after a pause. Rolling buffers keep
// their contents; only row emission restarts.
func (r *Recorder) Resume() {
	if r.state == Paused {
		r.state = Recording
		if r.path == "" {
			r.state = Idle
		}
		r.logger.Info("session resumed", zap.String("phase", r.sess.Phase.Label()))
	}
}

// ContinuePhase resumes recording under a new phase. The caller must clear
// the rolling sample buffers before feeding new data so stale pre-transition
// samples cannot leak into the next phase's spectral analysis.
func (r *Recorder) ContinuePhase(phase Phase) {
	if r.state != Paused {
		return
	}
	r.sess.Phase = phase
	r.state = Recording
	if r.path == "" {
		r.state = Idle
	}
	r.logger.Info("phase switched",
		zap.String("phase", phase.Label()),
		zap.String("music_link", phase.MusicLink))
}

// Save finalizes the output stream; the file remains on disk. Terminal.
func (r *Recorder) Save() error {
	if err := r.closeFile(); err != nil {
		return fmt.Errorf("finalize recording: %w", err)
	}
	r.state = Saved
	if r.path != "" {
		r.logger.Info("recording saved", zap.String("path", r.path))
	}
	return nil
}

// Discard closes and deletes the output stream; no partial file remains.
// Terminal.
func (r *Recorder) Discard() error {
	err := r.closeFile()
	if r.path != "" {
		if rmErr := os.Remove(r.path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		} else {
			r.logger.Info("recording discarded", zap.String("path", r.path))
		}
	}
	r.state = Discarded
	if err != nil {
		return fmt.Errorf("discard recording: %w", err)
	}
	return nil
}

// NoteChecksumFailure records a rejected packet. Failures are transient and
// self-healing, so they are logged at most once per second; while paused
// they are discarded silently.
func (r *Recorder) NoteChecksumFailure(err error) {
	if r.state == Paused {
		return
	}
	r.checksumSuppressed++
	now := time.Now()
	if now.Sub(r.lastChecksumLog) < time.Second {
		return
	}
	r.logger.Warn("discarding packet with bad checksum",
		zap.Error(err),
		zap.Int("failures_since_last", r.checksumSuppressed))
	r.lastChecksumLog = now
	r.checksumSuppressed = 0
}

func (r *Recorder) open() error {
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(r.dataDir, r.sess.FileName())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording file: %w", err)
	}
	r.file = f
	r.w = csv.NewWriter(f)
	r.path = path

	header := []string{
		"Timestamp", "Session_ID", "Name", "Age", "IAF",
		"Openness", "Conscientiousness", "Extraversion", "Agreeableness", "Neuroticism",
		"Session_Type", "Music_Link", "Signal_Quality", "Attention", "Meditation",
		"Delta", "Theta", "Alpha_Low", "Alpha_High",
		"Beta_Low", "Beta_High", "Gamma_Low", "Gamma_High",
	}
	for _, f := range r.targets {
		header = append(header, fmt.Sprintf("PSD_%dHz", f))
	}
	if err := r.w.Write(header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	if err := r.flush(); err != nil {
		return err
	}

	r.logger.Info("recording started",
		zap.String("path", path),
		zap.String("session_id", r.sess.ID),
		zap.String("phase", r.sess.Phase.Label()))
	return nil
}

func (r *Recorder) writeRow(ts time.Time, bands thinkgear.BandPowers, psd *spectral.PowerSpectrum) error {
	p := r.sess.Profile
	row := []string{
		ts.Format(time.RFC3339Nano),
		r.sess.ID,
		p.Name,
		p.Age,
		p.IAF,
		strconv.Itoa(p.Openness),
		strconv.Itoa(p.Conscientiousness),
		strconv.Itoa(p.Extraversion),
		strconv.Itoa(p.Agreeableness),
		strconv.Itoa(p.Neuroticism),
		r.sess.Phase.Label(),
		r.sess.Phase.MusicLink,
		formatOptional(r.latestSignal),
		formatOptional(r.latestAttention),
		formatOptional(r.latestMeditation),
	}
	for _, v := range bands {
		row = append(row, strconv.FormatUint(uint64(v), 10))
	}
	for _, f := range r.targets {
		if psd == nil {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(psd.Targets[f], 'g', -1, 64))
	}

	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("write recording row: %w", err)
	}
	return r.flush()
}

// flush pushes the csv writer's buffer to the OS and syncs the file so every
// row survives a crash immediately after being written.
func (r *Recorder) flush() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flush recording row: %w", err)
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("sync recording file: %w", err)
	}
	return nil
}

func (r *Recorder) closeFile() error {
	if r.file == nil {
		return nil
	}
	var err error
	r.w.Flush()
	err = multierr.Append(err, r.w.Error())
	err = multierr.Append(err, r.file.Sync())
	err = multierr.Append(err, r.file.Close())
	r.file = nil
	r.w = nil
	return err
}

func formatOptional(v *uint8) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}
