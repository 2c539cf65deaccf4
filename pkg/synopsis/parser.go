// Package synopsis turns the free-text output of a synopsis-refresh LLM call
// into a structured partial synopsis. Model output is fuzzy, so parsing is
// explicitly fallible: unparseable text degrades to an empty or partial
// synopsis and never fails the refresh job.
package synopsis

import (
	"strings"

	"prompt-polish-be/internal/entity"
)

// Parse scans the text for "Label: value" lines. Unknown lines, markdown
// bullets and bold markers are tolerated; anything unrecognized is skipped.
func Parse(text string) entity.Synopsis {
	var out entity.Synopsis

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		line = strings.TrimLeft(line, "-*• \t")
		line = strings.ReplaceAll(line, "**", "")
		if line == "" {
			continue
		}

		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(label)) {
		case "goal":
			out.Goal = value
		case "tone":
			out.Tone = value
		case "constraints", "constraint":
			out.Constraints = value
		case "audience":
			out.Audience = value
		case "style":
			out.Style = value
		case "to-do", "todo", "todos", "to-dos":
			out.Todos = splitTodos(value)
		}
	}

	return out
}

func splitTodos(value string) []string {
	var todos []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !strings.EqualFold(part, "none") {
			todos = append(todos, part)
		}
	}
	return todos
}

// RefreshPrompt builds the instruction for the refresh call from the current
// synopsis and the latest turns.
func RefreshPrompt(current entity.Synopsis, turns []string) string {
	var b strings.Builder
	b.WriteString("Summarize the conversation below into a session synopsis.\n")
	b.WriteString("Answer with exactly these labeled lines, leaving a line blank when unknown:\n")
	b.WriteString("Goal: <one line>\nTone: <one line>\nConstraints: <one line>\nAudience: <one line>\nStyle: <one line>\nTo-do: <comma-separated short items or none>\n")

	if !current.IsEmpty() {
		b.WriteString("\nCurrent synopsis (update only what changed):\n")
		if current.Goal != "" {
			b.WriteString("Goal: " + current.Goal + "\n")
		}
		if current.Tone != "" {
			b.WriteString("Tone: " + current.Tone + "\n")
		}
		if current.Constraints != "" {
			b.WriteString("Constraints: " + current.Constraints + "\n")
		}
		if current.Audience != "" {
			b.WriteString("Audience: " + current.Audience + "\n")
		}
		if current.Style != "" {
			b.WriteString("Style: " + current.Style + "\n")
		}
		if len(current.Todos) > 0 {
			b.WriteString("To-do: " + strings.Join(current.Todos, ", ") + "\n")
		}
	}

	b.WriteString("\nConversation:\n")
	for _, t := range turns {
		b.WriteString(t)
		b.WriteString("\n")
	}

	return b.String()
}
