// Package promptctx assembles the bounded context string fed to the
// enhancement call for follow-up prompts.
package promptctx

import (
	"strings"

	"prompt-polish-be/internal/constant"
	"prompt-polish-be/internal/entity"
)

type Turn struct {
	Role    string
	Content string
}

// Used reports what went into the context, for telemetry on the turn record.
// SynopsisChars is the pre-truncation size of the synopsis block; LastTurns
// counts turns included before truncation (capped at the turn window).
type Used struct {
	LastTurns     int `json:"last_turns"`
	SynopsisChars int `json:"synopsis_chars"`
}

const truncationMarker = "\n[context truncated]"

// Build renders the synopsis and the trailing turn window into a single
// context string, hard-capped at the character budget. Truncation is a plain
// cutoff and may cut mid-line; smarter summarization is not this package's
// job.
func Build(synopsis entity.Synopsis, recentTurns []Turn) (string, Used) {
	var used Used

	synopsisBlock := renderSynopsis(synopsis)
	used.SynopsisChars = len(synopsisBlock)

	turns := recentTurns
	if len(turns) > constant.ContextMaxTurns {
		turns = turns[len(turns)-constant.ContextMaxTurns:]
	}
	used.LastTurns = len(turns)

	var blocks []string
	if synopsisBlock != "" {
		blocks = append(blocks, "Session Context:\n"+synopsisBlock)
	}
	if len(turns) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation:")
		for _, t := range turns {
			b.WriteString("\n")
			b.WriteString(t.Role)
			b.WriteString(": ")
			b.WriteString(t.Content)
		}
		blocks = append(blocks, b.String())
	}

	context := strings.Join(blocks, "\n\n")
	if len(context) > constant.ContextCharBudget {
		context = context[:constant.ContextCharBudget] + truncationMarker
	}

	return context, used
}

func renderSynopsis(s entity.Synopsis) string {
	var lines []string
	appendLine := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	appendLine("Goal", s.Goal)
	appendLine("Tone", s.Tone)
	appendLine("Constraints", s.Constraints)
	appendLine("Audience", s.Audience)
	appendLine("Style", s.Style)
	if len(s.Todos) > 0 {
		lines = append(lines, "To-do: "+strings.Join(s.Todos, ", "))
	}
	return strings.Join(lines, "\n")
}
