package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRulesFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRulesFileTOML(t *testing.T) {
	path := writeRulesFile(t, "rules.toml", `
fallbacks = ["Go on."]

[[rules]]
name = "i-am"
pattern = '\bi am (.+)'
replies = ["Why are you $1?", "Since when are you $1?"]

[[rules]]
name = "computer"
pattern = '\bcomputers?\b'
replies = ["Do computers worry you?"]
`)

	file, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("LoadRulesFile err: %v", err)
	}
	if len(file.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(file.Rules))
	}
	if file.Rules[0].Name != "i-am" || file.Rules[0].Pattern != `\bi am (.+)` || len(file.Rules[0].Replies) != 2 {
		t.Fatalf("unexpected first rule %+v", file.Rules[0])
	}
	if len(file.Fallbacks) != 1 || file.Fallbacks[0] != "Go on." {
		t.Fatalf("unexpected fallbacks %v", file.Fallbacks)
	}
}

func TestLoadRulesFileYAML(t *testing.T) {
	path := writeRulesFile(t, "rules.yml", `
rules:
  - name: dream
    pattern: '\bdream'
    replies:
      - "What does that dream suggest to you?"
`)

	file, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("LoadRulesFile err: %v", err)
	}
	if len(file.Rules) != 1 || file.Rules[0].Name != "dream" {
		t.Fatalf("unexpected rules %+v", file.Rules)
	}
	if len(file.Fallbacks) != 0 {
		t.Fatalf("expected no fallbacks, got %v", file.Fallbacks)
	}
}

func TestLoadRulesFileErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		want error
	}{
		{name: "unsupported", file: "rules.json", body: `{}`, want: ErrUnsupportedFormat},
		{name: "empty toml", file: "rules.toml", body: `fallbacks = ["Go on."]`, want: ErrEmptyRules},
		{name: "empty yaml", file: "rules.yaml", body: "rules: []\n", want: ErrEmptyRules},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRulesFile(t, tc.file, tc.body)
			if _, err := LoadRulesFile(path); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWithRulesKeepsGreeting(t *testing.T) {
	doctor := Seed()[0]
	updated := doctor.WithRules(RulesFile{
		Rules: []RuleSpec{{Name: "only", Pattern: "x", Replies: []string{"y"}}},
	})

	if len(updated.Greeting) != 3 || updated.Greeting[0] != "The doctor is in." {
		t.Fatalf("greeting changed: %v", updated.Greeting)
	}
	if len(updated.Rules) != 1 || updated.Rules[0].Name != "only" {
		t.Fatalf("unexpected rules %+v", updated.Rules)
	}
	if len(updated.Fallbacks) != len(doctor.Fallbacks) {
		t.Fatalf("fallbacks should be kept when the file has none")
	}

	updated.Greeting[0] = "changed"
	if doctor.Greeting[0] != "The doctor is in." {
		t.Fatal("WithRules must not alias the original greeting")
	}
}
