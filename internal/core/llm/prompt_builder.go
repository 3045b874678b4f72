package llm

import (
	"fmt"
	"strings"
)

// BuildNotesPrompt builds the system prompt for summary-note generation.
func BuildNotesPrompt(subject string) string {
	var sb strings.Builder

	sb.WriteString("You are a study assistant for college students.\n")
	if subject != "" {
		sb.WriteString(fmt.Sprintf("Subject: %s.\n", subject))
	}
	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Summarize the provided material into concise revision notes\n")
	sb.WriteString("- Use short bullet points grouped under headings\n")
	sb.WriteString("- Keep formulas and definitions exact\n")
	sb.WriteString("- Do not invent facts that are not in the material\n")

	return sb.String()
}

// BuildQuizPrompt builds the system prompt for quiz generation. The model
// must answer with a bare JSON array so the response can be parsed directly.
func BuildQuizPrompt(subject string, numQuestions int) string {
	if numQuestions <= 0 {
		numQuestions = 5
	}

	var sb strings.Builder

	sb.WriteString("You are a quiz generator for college students.\n")
	if subject != "" {
		sb.WriteString(fmt.Sprintf("Subject: %s.\n", subject))
	}
	sb.WriteString(fmt.Sprintf("\nGenerate exactly %d multiple-choice questions from the provided material.\n", numQuestions))
	sb.WriteString("Respond with ONLY a JSON array, no prose and no code fences, where each element is:\n")
	sb.WriteString(`{"question": "...", "options": ["...", "...", "...", "..."], "answer_index": 0, "explanation": "..."}`)
	sb.WriteString("\n- answer_index is the zero-based index of the correct option\n")
	sb.WriteString("- every question must have exactly 4 options\n")

	return sb.String()
}

// BuildFocusPrompt builds the system prompt for the focus prediction
// feature. The user message carries the recent session log.
func BuildFocusPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a study coach analyzing a student's recent study sessions.\n")
	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Identify when the student tends to focus best (time of day, session length)\n")
	sb.WriteString("- Suggest one concrete change to their routine\n")
	sb.WriteString("- Keep the answer under 120 words, plain text\n")

	return sb.String()
}
