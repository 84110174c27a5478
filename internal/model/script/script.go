package script

// RuleSpec is one entry of a reply table. Pattern is matched case-insensitively
// and replies may reference capture groups as $1, $2 ...
type RuleSpec struct {
	Name    string   `json:"name" toml:"name" yaml:"name"`
	Pattern string   `json:"pattern" toml:"pattern" yaml:"pattern"`
	Replies []string `json:"replies" toml:"replies" yaml:"replies"`
}

// Script bundles what a therapist says on connect and how it answers.
type Script struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Greeting  []string   `json:"greeting"`
	Rules     []RuleSpec `json:"rules"`
	Fallbacks []string   `json:"fallbacks"`
}

// DoctorID identifies the default script served on /eliza.
const DoctorID = "doctor"

// Seed provides the built-in scripts.
func Seed() []Script {
	return []Script{
		{
			ID:   DoctorID,
			Name: "The Doctor",
			Greeting: []string{
				"The doctor is in.",
				"What's on your mind?",
				"---",
			},
			Rules: []RuleSpec{
				{
					Name:    "i-am",
					Pattern: `\bi(?: am|['’]m) (.+)`,
					Replies: []string{
						"How long have you been $1?",
						"Did you come to me because you are $1?",
						"Do you believe it is normal to be $1?",
					},
				},
				{
					Name:    "i-feel",
					Pattern: `\bi feel (.+)`,
					Replies: []string{
						"Do you often feel $1?",
						"Tell me more about feeling $1.",
					},
				},
				{
					Name:    "i-need",
					Pattern: `\bi need (.+)`,
					Replies: []string{
						"Why do you need $1?",
						"Would it really help you to get $1?",
					},
				},
				{
					Name:    "your-mind",
					Pattern: `\byour mind\b`,
					Replies: []string{
						"We were discussing you, not me.",
					},
				},
				{
					Name:    "family",
					Pattern: `\b(mother|father|sister|brother|family)\b`,
					Replies: []string{
						"Tell me more about your $1.",
						"How do you get along with your $1?",
					},
				},
				{
					Name:    "because",
					Pattern: `\bbecause\b`,
					Replies: []string{
						"Is that the real reason?",
						"What other reasons come to mind?",
					},
				},
				{
					Name:    "sorry",
					Pattern: `\bsorry\b`,
					Replies: []string{
						"There are many times when no apology is needed.",
					},
				},
				{
					Name:    "dream",
					Pattern: `\bdream(?:s|t|ed)?\b`,
					Replies: []string{
						"What does that dream suggest to you?",
					},
				},
				{
					Name:    "you-me",
					Pattern: `\byou (.+) me\b`,
					Replies: []string{
						"What makes you think I $1 you?",
					},
				},
				{
					Name:    "greeting",
					Pattern: `^(?:hello|hi|hey)\b`,
					Replies: []string{
						"Hello. How are you feeling today?",
					},
				},
				{
					Name:    "goodbye",
					Pattern: `\b(?:bye|goodbye|quit)\b`,
					Replies: []string{
						"Thank you for talking to me.",
					},
				},
				{
					Name:    "question",
					Pattern: `\?$`,
					Replies: []string{
						"Why do you ask?",
						"What do you think?",
					},
				},
			},
			Fallbacks: []string{
				"Please tell me more.",
				"Can you elaborate on that?",
				"How does that make you feel?",
			},
		},
	}
}
