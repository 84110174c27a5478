package emotion

import (
	"sort"
	"strings"
)

// Label 表示对用户输入的情绪标注。
type Label string

const (
	Neutral Label = "neutral"
	Happy   Label = "happy"
	Sad     Label = "sad"
	Angry   Label = "angry"
	Anxious Label = "anxious"
)

// Decision 给出情绪识别结果与得分。
type Decision struct {
	Emotion Label
	Score   int
}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "glad", "great", "awesome", "amazing", "thanks", "thank you", "love", "wonderful",
		"excited", "joy", "lol", "haha",
	},
	Sad: {
		"sad", "unhappy", "depressed", "cry", "crying", "lonely", "alone", "miserable", "hurt",
		"upset", "sorrow", "grief", "heartbroken", "down",
	},
	Angry: {
		"angry", "furious", "rage", "mad", "annoyed", "pissed", "hate", "fed up", "irritated",
	},
	Anxious: {
		"anxious", "worried", "worry", "nervous", "afraid", "scared", "panic", "stress", "stressed",
		"overwhelmed", "fear",
	},
}

// labelOrder breaks score ties deterministically.
var labelOrder = []Label{Sad, Anxious, Angry, Happy}

// Analyze 根据关键词为一段文本打情绪标签。
func Analyze(text string) Decision {
	normalized := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), isSeparator), " ") + " "
	if strings.TrimSpace(normalized) == "" {
		return Decision{Emotion: Neutral}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			// 按整词匹配，避免 "download" 命中 "down"。
			if strings.Contains(normalized, " "+word+" ") {
				scores[label] += 3
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 && scores[Angry] > 0 {
		scores[Angry] += exclamations
	}

	ranked := append([]Label(nil), labelOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	best := ranked[0]
	if scores[best] == 0 {
		return Decision{Emotion: Neutral}
	}
	return Decision{Emotion: best, Score: scores[best]}
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '.', ',', '!', '?', ';', ':', '"', '(', ')':
		return true
	}
	return false
}
