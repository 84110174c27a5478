package eliza

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zhouzirui/eliza/backend/internal/model/script"
)

// Rule is a compiled script.RuleSpec.
type Rule struct {
	name    string
	pattern *regexp.Regexp
	replies []string
}

// Name returns the rule identifier.
func (r *Rule) Name() string {
	return r.name
}

// RuleSet evaluates rules in declaration order; the first match wins.
type RuleSet struct {
	rules []*Rule
}

// Compile builds a RuleSet from specs. Patterns are made case-insensitive.
func Compile(specs []script.RuleSpec) (*RuleSet, error) {
	set := &RuleSet{rules: make([]*Rule, 0, len(specs))}
	for i, spec := range specs {
		name := spec.Name
		if name == "" {
			name = "rule-" + strconv.Itoa(i)
		}
		if strings.TrimSpace(spec.Pattern) == "" {
			return nil, fmt.Errorf("rule %s: empty pattern", name)
		}
		if len(spec.Replies) == 0 {
			return nil, fmt.Errorf("rule %s: no replies", name)
		}

		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}

		set.rules = append(set.rules, &Rule{
			name:    name,
			pattern: re,
			replies: append([]string(nil), spec.Replies...),
		})
	}
	return set, nil
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Respond returns the reply of the first matching rule. turn selects which
// of the rule's replies is used, rotating through them. ErrNoRuleMatched is
// returned when nothing fires.
func (s *RuleSet) Respond(text string, turn int) (reply string, rule string, err error) {
	input := strings.TrimSpace(text)
	for _, r := range s.rules {
		groups := r.pattern.FindStringSubmatch(input)
		if groups == nil {
			continue
		}
		tpl := r.replies[pick(turn, len(r.replies))]
		return expand(tpl, groups), r.name, nil
	}
	return "", "", ErrNoRuleMatched
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// expand substitutes $n with the reflected capture group n in a single pass,
// so text taken from the input is never expanded again. Placeholders without
// a matching group are left as written.
func expand(tpl string, groups []string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n >= len(groups) {
			return m
		}
		return Reflect(trimFragment(groups[n]))
	})
}

func pick(turn, n int) int {
	if n <= 0 || turn < 0 {
		return 0
	}
	return turn % n
}
