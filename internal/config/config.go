package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/msgsink/internal/framing"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Profile is a named framing configuration as written in a profile file.
// Terminators, sequences and exceptional chars use the escapes understood by
// ParseEscaped.
type Profile struct {
	Name             string   `toml:"name" yaml:"name"`
	Capacity         int      `toml:"capacity" yaml:"capacity"`
	MaxMessages      int      `toml:"max_messages" yaml:"max_messages"`
	Terminators      []string `toml:"terminators" yaml:"terminators"`
	Sequences        []string `toml:"sequences" yaml:"sequences"`
	ExceptionalChars string   `toml:"exceptional_chars" yaml:"exceptional_chars"`
}

const (
	DefaultProfileName = "default"
	DefaultCapacity    = 256
)

func DefaultProfile() Profile {
	return Profile{
		Name:        DefaultProfileName,
		Capacity:    DefaultCapacity,
		MaxMessages: framing.DefaultMaxMessages,
		Terminators: []string{`\0`, `\r`, `\n`},
	}
}

// LoadProfile reads a TOML or YAML profile, chosen by file extension, and
// fills unset fields from DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if err := loadFile(path, &p); err != nil {
		return Profile{}, err
	}
	def := DefaultProfile()
	if strings.TrimSpace(p.Name) == "" {
		p.Name = def.Name
	}
	if p.Capacity == 0 {
		p.Capacity = def.Capacity
	}
	if p.MaxMessages == 0 {
		p.MaxMessages = def.MaxMessages
	}
	if p.Terminators == nil {
		p.Terminators = def.Terminators
	}
	if err := ValidateProfile(p); err != nil {
		return Profile{}, fmt.Errorf("profile %s invalid: %w", path, err)
	}
	return p, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = toml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ValidateProfile checks field syntax and the framing contract.
func ValidateProfile(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile missing name")
	}
	_, err := p.StreamConfig()
	return err
}

// StreamConfig converts the profile to a validated framing configuration.
func (p Profile) StreamConfig() (framing.StreamConfig, error) {
	terms, err := parseTerminators(p.Terminators)
	if err != nil {
		return framing.StreamConfig{}, err
	}
	seqs := make([][]byte, 0, len(p.Sequences))
	for i, raw := range p.Sequences {
		seq, err := ParseEscaped(raw)
		if err != nil {
			return framing.StreamConfig{}, fmt.Errorf("sequences[%d]: %w", i, err)
		}
		seqs = append(seqs, seq)
	}
	chars, err := ParseEscaped(p.ExceptionalChars)
	if err != nil {
		return framing.StreamConfig{}, fmt.Errorf("exceptional_chars: %w", err)
	}
	seqs = append(seqs, framing.ExceptionalChars(string(chars))...)

	cfg := framing.StreamConfig{
		Config: framing.Config{
			Capacity:    p.Capacity,
			Terminators: terms,
			Sequences:   seqs,
		},
		MaxMessages: p.MaxMessages,
	}
	if cfg.MaxMessages < 0 {
		return framing.StreamConfig{}, framing.ErrZeroMaxMessages
	}
	if err := cfg.Validate(); err != nil {
		return framing.StreamConfig{}, err
	}
	return cfg, nil
}

func parseTerminators(raw []string) ([]byte, error) {
	terms := make([]byte, 0, len(raw))
	for i, t := range raw {
		b, err := ParseEscaped(t)
		if err != nil {
			return nil, fmt.Errorf("terminators[%d]: %w", i, err)
		}
		if len(b) != 1 {
			return nil, fmt.Errorf("terminators[%d]: %q is %d bytes, want 1", i, t, len(b))
		}
		terms = append(terms, b[0])
	}
	return terms, nil
}
