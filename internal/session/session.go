// Package session owns the recording-session state machine: when the
// persisted output stream is opened, what goes into each row, and how
// pause, phase switches, save and discard affect it.
package session

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile carries the participant metadata written into every row. Values
// are passthrough; no validation beyond what yaml decoding enforces.
type Profile struct {
	Name string `yaml:"name"`
	Age  string `yaml:"age"`
	IAF  string `yaml:"iaf"`

	Openness          int `yaml:"openness"`
	Conscientiousness int `yaml:"conscientiousness"`
	Extraversion      int `yaml:"extraversion"`
	Agreeableness     int `yaml:"agreeableness"`
	Neuroticism       int `yaml:"neuroticism"`
}

// LoadProfile reads a participant profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.Name == "" {
		p.Name = "unknown"
	}
	if p.Age == "" {
		p.Age = "unknown"
	}
	if p.IAF == "" {
		p.IAF = "N/A"
	}
	return &p, nil
}

// Phase is one user-defined segment of a session, e.g. stimulus on or off.
type Phase struct {
	Music     bool
	MusicLink string
}

// Label returns the phase name used in the persisted rows.
func (p Phase) Label() string {
	if p.Music {
		return "music"
	}
	return "no_music"
}

// Session identifies one recording run. The ID is generated once for the
// outer session, not per phase.
type Session struct {
	ID      string
	Profile *Profile
	Phase   Phase
	Started time.Time
}

// NewSession creates a session with a millisecond-timestamp ID, mirroring
// the companion mobile app's naming.
func NewSession(profile *Profile, phase Phase) *Session {
	now := time.Now()
	return &Session{
		ID:      "session_" + strconv.FormatInt(now.UnixMilli(), 10),
		Profile: profile,
		Phase:   phase,
		Started: now,
	}
}

// FileName returns the output file name for this session.
func (s *Session) FileName() string {
	return s.Profile.Name + "_" + s.ID + ".csv"
}
