package cmd

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurowave/eeg-recorder/pkg/thinkgear"
)

var (
	simulateListen   string
	simulateSineFreq float64
	simulateRate     int
	simulateNoise    float64
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate [flags]",
	Short: "Serve a synthetic sensor stream",
	Long: `Serve synthetic ThinkGear traffic over TCP so recording sessions can
run end-to-end without hardware.

Each client receives a raw waveform (a sine wave plus noise, framed as
individual 512 Hz raw-sample packets) and, once per second, a band-power
packet and an eSense packet with signal quality, attention and meditation.

Examples:
  # Serve on the default address
  eeg-recorder simulate

  # A 10 Hz alpha-band dominant signal on a custom port
  eeg-recorder simulate --listen :6000 --sine-freq 10`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateListen, "listen", "127.0.0.1:5555",
		"listen address")
	simulateCmd.Flags().Float64Var(&simulateSineFreq, "sine-freq", 10,
		"raw waveform sine frequency in Hz")
	simulateCmd.Flags().IntVar(&simulateRate, "rate", 512,
		"raw sample rate in Hz")
	simulateCmd.Flags().Float64Var(&simulateNoise, "noise", 50,
		"raw waveform noise amplitude")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync()

	ln, err := net.Listen("tcp", simulateListen)
	if err != nil {
		return err
	}
	defer ln.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("simulator listening", zap.String("addr", simulateListen))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))
		go serveClient(ctx, conn, logger)
	}
}

// serveClient streams synthetic frames until the client goes away. Raw
// samples are sent in one burst per tick; band powers and eSense values go
// out once a second like the real sensor.
func serveClient(ctx context.Context, conn net.Conn, logger *zap.Logger) {
	defer conn.Close()

	const tick = 50 * time.Millisecond
	samplesPerTick := int(float64(simulateRate) * tick.Seconds())
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	var sampleIdx int
	lastSecond := -1

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var out []byte
		for i := 0; i < samplesPerTick; i++ {
			t := float64(sampleIdx) / float64(simulateRate)
			v := 1000*math.Sin(2*math.Pi*simulateSineFreq*t) + simulateNoise*rng.NormFloat64()
			out = append(out, rawFrame(int16(v))...)
			sampleIdx++
		}

		if sec := int(time.Since(start).Seconds()); sec != lastSecond {
			lastSecond = sec
			out = append(out, bandFrame(rng)...)
			out = append(out, esenseFrame(rng)...)
		}

		if _, err := conn.Write(out); err != nil {
			logger.Info("client disconnected", zap.Error(err))
			return
		}
	}
}

func rawFrame(v int16) []byte {
	payload := []byte{thinkgear.CodeRawEEG, 0x02, 0, 0}
	binary.BigEndian.PutUint16(payload[2:], uint16(v))
	frame, _ := thinkgear.Marshal(payload)
	return frame
}

func bandFrame(rng *rand.Rand) []byte {
	payload := make([]byte, 0, 26)
	payload = append(payload, thinkgear.CodeBandPower, 0x18)
	for b := 0; b < thinkgear.NumBands; b++ {
		v := uint32(rng.Intn(500000))
		payload = append(payload, byte(v>>16), byte(v>>8), byte(v))
	}
	frame, _ := thinkgear.Marshal(payload)
	return frame
}

func esenseFrame(rng *rand.Rand) []byte {
	payload := []byte{
		thinkgear.CodePoorSignal, 0,
		thinkgear.CodeAttention, byte(rng.Intn(101)),
		thinkgear.CodeMeditation, byte(rng.Intn(101)),
	}
	frame, _ := thinkgear.Marshal(payload)
	return frame
}
