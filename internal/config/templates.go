package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "toml":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown profile kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Literal strings keep the escapes for ParseEscaped.
const tomlTemplate = `name = "at-modem"
capacity = 256
max_messages = 16
terminators = ['\0', '\r', '\n']
sequences = ["OK", "ERROR"]
exceptional_chars = ">"
`

const yamlTemplate = `name: at-modem
capacity: 256
max_messages: 16
terminators: ['\0', '\r', '\n']
sequences: ["OK", "ERROR"]
exceptional_chars: ">"
`
