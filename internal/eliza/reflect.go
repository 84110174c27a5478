package eliza

import "strings"

var reflections = map[string]string{
	"am":       "are",
	"was":      "were",
	"i":        "you",
	"i'd":      "you would",
	"i've":     "you have",
	"i'll":     "you will",
	"i'm":      "you are",
	"my":       "your",
	"mine":     "yours",
	"me":       "you",
	"myself":   "yourself",
	"are":      "am",
	"you've":   "I have",
	"you'll":   "I will",
	"you're":   "I am",
	"your":     "my",
	"yours":    "mine",
	"you":      "me",
	"yourself": "myself",
}

// Reflect swaps first and second person so a fragment can be echoed back.
// Words without a reflection keep their original casing.
func Reflect(fragment string) string {
	words := strings.Fields(fragment)
	for i, w := range words {
		key := strings.ReplaceAll(strings.ToLower(w), "’", "'")
		if r, ok := reflections[key]; ok {
			words[i] = r
		}
	}
	return strings.Join(words, " ")
}

// trimFragment drops sentence punctuation around a captured fragment.
func trimFragment(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,!?;:\"' ")
}
