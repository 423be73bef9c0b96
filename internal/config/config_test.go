package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/msgsink/internal/framing"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplatesLoadToTheSameStreamConfig(t *testing.T) {
	want := framing.StreamConfig{
		Config: framing.Config{
			Capacity:    256,
			Terminators: []byte{0, '\r', '\n'},
			Sequences:   [][]byte{[]byte("OK"), []byte("ERROR"), []byte(">")},
		},
		MaxMessages: 16,
	}
	for _, kind := range []string{"toml", "yaml"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile."+kind)
			if err := WriteTemplate(path, kind, false); err != nil {
				t.Fatalf("write template: %v", err)
			}
			p, err := LoadProfile(path)
			if err != nil {
				t.Fatalf("load profile: %v", err)
			}
			if p.Name != "at-modem" {
				t.Fatalf("unexpected name: %q", p.Name)
			}
			got, err := p.StreamConfig()
			if err != nil {
				t.Fatalf("stream config: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("stream config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := writeFile(t, "profile.toml", "name = \"x\"\n")
	if err := WriteTemplate(path, "toml", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "toml", true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if _, err := Template("ini"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	path := writeFile(t, "empty.toml", "")
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if diff := cmp.Diff(DefaultProfile(), p); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfileRejectsTerminatorInSequence(t *testing.T) {
	path := writeFile(t, "bad.yaml", "sequences: ['A\\nB']\n")
	_, err := LoadProfile(path)
	if !errors.Is(err, framing.ErrSequenceHasTerminator) {
		t.Fatalf("expected ErrSequenceHasTerminator, got %v", err)
	}
}

func TestLoadProfileRejectsMultiByteTerminator(t *testing.T) {
	path := writeFile(t, "bad.toml", "terminators = ['\\r\\n']\n")
	if _, err := LoadProfile(path); err == nil {
		t.Fatalf("expected multi-byte terminator error")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestParseEscaped(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{in: `AT`, want: []byte("AT")},
		{in: `\0\r\n\t\\`, want: []byte{0, '\r', '\n', '\t', '\\'}},
		{in: `\x7E\xc0`, want: []byte{0x7E, 0xC0}},
		{in: ``, want: []byte{}},
	}
	for _, tc := range cases {
		got, err := ParseEscaped(tc.in)
		if err != nil {
			t.Fatalf("ParseEscaped(%q): %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseEscaped(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
		if back, _ := ParseEscaped(FormatEscaped(got)); !cmp.Equal(back, got) {
			t.Fatalf("FormatEscaped(%q) does not parse back", got)
		}
	}
	for _, bad := range []string{`\`, `\q`, `\x1`, `\xZZ`} {
		if _, err := ParseEscaped(bad); !errors.Is(err, ErrBadEscape) {
			t.Fatalf("ParseEscaped(%q): expected ErrBadEscape, got %v", bad, err)
		}
	}
}

func TestFormatEscapedQuotes(t *testing.T) {
	in := []byte(`a"b`)
	got := FormatEscaped(in)
	if got != `a\x22b` {
		t.Fatalf("FormatEscaped(%q)=%q", in, got)
	}
	back, err := ParseEscaped(got)
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if !cmp.Equal(back, in) {
		t.Fatalf("round trip=%q want %q", back, in)
	}
}
