package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported rules file format")
	ErrEmptyRules        = errors.New("rules file defines no rules")
)

// RulesFile is the on-disk form of a reply table.
//
//	[[rules]]
//	name = "i-am"
//	pattern = '\bi am (.+)'
//	replies = ["How long have you been $1?"]
type RulesFile struct {
	Rules     []RuleSpec `toml:"rules" yaml:"rules"`
	Fallbacks []string   `toml:"fallbacks" yaml:"fallbacks"`
}

// LoadRulesFile reads a .toml, .yaml or .yml rules file.
func LoadRulesFile(path string) (RulesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RulesFile{}, fmt.Errorf("read rules file: %w", err)
	}

	var file RulesFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(raw), &file); err != nil {
			return RulesFile{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return RulesFile{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return RulesFile{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if len(file.Rules) == 0 {
		return RulesFile{}, ErrEmptyRules
	}
	return file, nil
}

// WithRules returns a copy of s whose reply table comes from f.
// The greeting is never replaced.
func (s Script) WithRules(f RulesFile) Script {
	out := s
	out.Greeting = append([]string(nil), s.Greeting...)
	out.Rules = append([]RuleSpec(nil), f.Rules...)
	if len(f.Fallbacks) > 0 {
		out.Fallbacks = append([]string(nil), f.Fallbacks...)
	}
	return out
}
