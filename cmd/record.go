package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurowave/eeg-recorder/internal/app"
)

var (
	recordProfile   string
	recordAddr      string
	recordReplay    string
	recordMusic     bool
	recordMusicLink string
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record [flags]",
	Short: "Run a recording session",
	Long: `Run a live recording session against a sensor link.

The session starts idle and opens its CSV output lazily on the first
decoded band-power packet. Press Ctrl+C at any time to pause; the control
menu then offers save, discard, continue with a new phase (which clears
the rolling sample buffers), or resume.

Examples:
  # Record from the default sensor link with a participant profile
  eeg-recorder record --profile participant.yaml

  # Record a music phase from a specific address
  eeg-recorder record --profile participant.yaml --addr 10.0.0.7:5555 \
    --music --music-link "https://example.com/track"

  # Replay a captured byte dump into a session recording
  eeg-recorder record --profile participant.yaml --replay capture.bin`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordProfile, "profile", "",
		"participant profile YAML (required)")
	recordCmd.Flags().StringVar(&recordAddr, "addr", "",
		"sensor link address (host:port)")
	recordCmd.Flags().StringVar(&recordReplay, "replay", "",
		"replay a captured byte dump instead of a live link")
	recordCmd.Flags().BoolVar(&recordMusic, "music", false,
		"start in the music phase")
	recordCmd.Flags().StringVar(&recordMusicLink, "music-link", "",
		"music link or name for the music phase")

	recordCmd.MarkFlagRequired("profile")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordMusicLink != "" {
		recordMusic = true
	}

	appCtx := &app.Context{
		ProfileFile: recordProfile,
		ReplayFile:  recordReplay,
		Addr:        recordAddr,
		DataDir:     dataDir,
		Music:       recordMusic,
		MusicLink:   recordMusicLink,
		Verbose:     verbose,
		Quiet:       quiet,
		LogLevel:    logLevel,
	}

	recorder, err := app.NewRecorderApp(appCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize recorder: %w", err)
	}

	return recorder.Run(context.Background())
}
