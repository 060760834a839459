package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/neurowave/eeg-recorder/configs"
	"github.com/neurowave/eeg-recorder/internal/session"
	"github.com/neurowave/eeg-recorder/pkg/spectral"
	"github.com/neurowave/eeg-recorder/pkg/transport"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ProfileFile string
	ReplayFile  string
	Addr        string
	DataDir     string
	Music       bool
	MusicLink   string
	Verbose     bool
	Quiet       bool
	LogLevel    string

	// Runtime context
	Logger *zap.Logger
	Config *configs.Config
}

// RecorderApp handles one recording session's lifecycle: transport in,
// decode/persist pipeline, and the pause/save/discard control loop.
type RecorderApp struct {
	ctx      *Context
	config   *configs.Config
	logger   *zap.Logger
	sess     *session.Session
	recorder *session.Recorder
	pipeline *Pipeline
	control  Controller
}

// Controller decides what happens when the session pauses. The interactive
// menu implements it for the CLI; tests substitute scripted controllers.
type Controller interface {
	// NextAction is invoked with the session paused and the decode path
	// quiescent. It returns the action to take and, for ActionContinue,
	// the next phase.
	NextAction(current session.Phase) (Action, session.Phase)
}

// Action is a control decision taken while paused.
type Action int

const (
	ActionResume Action = iota
	ActionContinue
	ActionSave
	ActionDiscard
)

// NewRecorderApp creates a recorder application from CLI context.
func NewRecorderApp(ctx *Context) (*RecorderApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if ctx.Addr != "" {
		config.Transport.Addr = ctx.Addr
	}
	if ctx.DataDir != "" {
		config.DataDir = ctx.DataDir
	}
	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx.Config = config

	profile, err := session.LoadProfile(ctx.ProfileFile)
	if err != nil {
		return nil, err
	}

	phase := session.Phase{Music: ctx.Music, MusicLink: ctx.MusicLink}
	sess := session.NewSession(profile, phase)

	analyzer, err := spectral.NewAnalyzer(spectral.Config{
		SampleRate: config.Spectral.SampleRate,
		NotchFreq:  config.Spectral.NotchFreq,
		NotchQ:     config.Spectral.NotchQ,
		MinSamples: config.Spectral.MinSamples,
		TargetLow:  config.Spectral.TargetLow,
		TargetHigh: config.Spectral.TargetHigh,
	}, logger.Named("spectral"))
	if err != nil {
		return nil, fmt.Errorf("failed to build spectral analyzer: %w", err)
	}

	recorder := session.NewRecorder(sess, config.DataDir, analyzer.TargetFrequencies(), logger.Named("recorder"))
	pipeline := NewPipeline(config, analyzer, recorder, logger.Named("pipeline"))

	logger.Debug("recorder application initialized",
		zap.String("session_id", sess.ID),
		zap.String("participant", profile.Name),
		zap.String("phase", phase.Label()),
		zap.String("data_dir", config.DataDir))

	return &RecorderApp{
		ctx:      ctx,
		config:   config,
		logger:   logger,
		sess:     sess,
		recorder: recorder,
		pipeline: pipeline,
		control:  newMenuController(os.Stdin, os.Stdout),
	}, nil
}

// SetController replaces the pause-menu controller.
func (app *RecorderApp) SetController(c Controller) {
	if c != nil {
		app.control = c
	}
}

// Run executes the session until the user saves or discards it, the replay
// source is exhausted, or a persistence error ends it.
func (app *RecorderApp) Run(ctx context.Context) error {
	source := app.buildSource()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan []byte, app.config.Transport.QueueSize)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer close(chunks)
		err := source.Run(gctx, chunks)
		if err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return app.consume(gctx, chunks, sigs)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// consume is the decode/persist loop. Pause signals are observed between
// chunks, never mid-frame, so a partially buffered packet survives a
// pause/resume cycle intact.
func (app *RecorderApp) consume(ctx context.Context, chunks <-chan []byte, sigs <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigs:
			done, err := app.handlePause()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case chunk, ok := <-chunks:
			if !ok {
				return app.finish()
			}
			if err := app.pipeline.HandleChunk(chunk); err != nil {
				return fmt.Errorf("recording session failed: %w", err)
			}
		}
	}
}

// handlePause runs the control menu with the session paused. It reports
// whether the session reached a terminal state.
func (app *RecorderApp) handlePause() (bool, error) {
	app.recorder.Pause()

	action, phase := app.control.NextAction(app.sess.Phase)
	switch action {
	case ActionSave:
		return true, app.recorder.Save()
	case ActionDiscard:
		return true, app.recorder.Discard()
	case ActionContinue:
		app.pipeline.ClearBuffers()
		app.recorder.ContinuePhase(phase)
	default:
		app.recorder.Resume()
	}
	return false, nil
}

// finish saves whatever was recorded once the source is exhausted, which is
// how replay runs terminate.
func (app *RecorderApp) finish() error {
	if app.recorder.State() == session.Recording || app.recorder.State() == session.Paused {
		if err := app.recorder.Save(); err != nil {
			return err
		}
		app.logger.Info("source exhausted, recording saved",
			zap.String("path", app.recorder.Path()))
	}
	return nil
}

func (app *RecorderApp) buildSource() transport.ChunkSource {
	if app.ctx.ReplayFile != "" {
		return transport.NewReplaySource(
			app.ctx.ReplayFile,
			app.config.Decoder.ReplayChunkSize,
			app.config.Decoder.ReplayInterval,
		)
	}
	return transport.NewTCPSource(app.config.Transport.Addr,
		transport.WithChunkSize(app.config.Transport.ChunkSize),
		transport.WithDialTimeout(app.config.Transport.DialTimeout),
		transport.WithReadTimeout(app.config.Transport.ReadTimeout),
		transport.WithReconnectInterval(app.config.Transport.ReconnectInterval),
		transport.WithLogger(app.logger.Named("transport")),
	)
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) *zap.Logger {
	level := zapcore.InfoLevel
	if ctx.LogLevel != "" {
		if parsed, err := zapcore.ParseLevel(ctx.LogLevel); err == nil {
			level = parsed
		}
	}
	// The shorthand flags win over the configured level.
	if ctx.Verbose {
		level = zapcore.DebugLevel
	} else if ctx.Quiet {
		level = zapcore.ErrorLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
