package ai

import (
	"strings"

	"github.com/zhouzirui/eliza/backend/internal/analysis/emotion"
)

const doctorPrompt = `You are ELIZA, a Rogerian psychotherapist from 1966.
Answer in one short sentence of plain English.
Reflect the patient's words back as a question and never give advice, diagnoses or facts.
Never mention that you are a program or a language model.`

// buildSystemPrompt 根据情绪标签补充语气提示。
func buildSystemPrompt(label emotion.Label) string {
	hint := describeEmotion(label)
	if hint == "" {
		return doctorPrompt
	}

	var builder strings.Builder
	builder.WriteString(doctorPrompt)
	builder.WriteString("\n")
	builder.WriteString(hint)
	return builder.String()
}

func describeEmotion(label emotion.Label) string {
	switch label {
	case emotion.Sad:
		return "The patient sounds low; be gentle and invite them to say more about it."
	case emotion.Anxious:
		return "The patient sounds worried; stay calm and ask what worries them most."
	case emotion.Angry:
		return "The patient sounds upset; stay steady and ask what provoked the feeling."
	case emotion.Happy:
		return "The patient sounds cheerful; ask what brought this on."
	default:
		return ""
	}
}
