package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/neurowave/eeg-recorder/internal/session"
)

// menuController prompts the operator on pause, mirroring the session
// control menu of the companion capture scripts: save, discard, continue
// with a new phase, or resume the current one.
type menuController struct {
	in  *bufio.Scanner
	out io.Writer
}

func newMenuController(in io.Reader, out io.Writer) *menuController {
	return &menuController{in: bufio.NewScanner(in), out: out}
}

func (m *menuController) NextAction(current session.Phase) (Action, session.Phase) {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "SESSION PAUSED")
	fmt.Fprintln(m.out, "  1. Save and exit")
	fmt.Fprintln(m.out, "  2. Discard and exit")
	fmt.Fprintln(m.out, "  3. Continue with new phase")
	fmt.Fprintln(m.out, "  4. Resume current phase")

	for {
		fmt.Fprint(m.out, "Enter choice (1/2/3/4): ")
		choice, ok := m.readLine()
		if !ok {
			// Input closed; saving is the safe default.
			return ActionSave, current
		}
		switch choice {
		case "1":
			return ActionSave, current
		case "2":
			return ActionDiscard, current
		case "3":
			return ActionContinue, m.configurePhase()
		case "4":
			return ActionResume, current
		default:
			fmt.Fprintln(m.out, "Invalid choice.")
		}
	}
}

func (m *menuController) configurePhase() session.Phase {
	for {
		fmt.Fprintln(m.out, "Next phase:")
		fmt.Fprintln(m.out, "  1. No music")
		fmt.Fprintln(m.out, "  2. Music")
		fmt.Fprint(m.out, "Enter choice (1/2): ")
		choice, ok := m.readLine()
		if !ok || choice == "1" {
			return session.Phase{}
		}
		if choice == "2" {
			fmt.Fprint(m.out, "Music link/name: ")
			link, _ := m.readLine()
			if link == "" {
				link = "No link provided"
			}
			return session.Phase{Music: true, MusicLink: link}
		}
		fmt.Fprintln(m.out, "Invalid choice.")
	}
}

func (m *menuController) readLine() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}
