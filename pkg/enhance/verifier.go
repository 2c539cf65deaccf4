package enhance

import (
	"strings"
)

type Verification struct {
	IsValid bool
	Missing []string
}

// Verifier checks an enhanced prompt for required elements. Failing
// verification is non-fatal: the caller attempts one repair pass and falls
// back to the unrepaired text if that also fails.
type Verifier interface {
	Verify(enhanced string) Verification
}

// RuleVerifier is the default rule-based implementation. The rules are
// deliberately cheap: this is a sanity gate, not a quality judge.
type RuleVerifier struct{}

func NewRuleVerifier() *RuleVerifier {
	return &RuleVerifier{}
}

func (v *RuleVerifier) Verify(enhanced string) Verification {
	var missing []string
	text := strings.TrimSpace(enhanced)

	if len(text) < 20 {
		missing = append(missing, "substance")
	}
	if !hasActionVerb(text) {
		missing = append(missing, "task")
	}
	if looksLikeRefusal(text) {
		missing = append(missing, "answer")
	}

	return Verification{
		IsValid: len(missing) == 0,
		Missing: missing,
	}
}

var actionVerbs = []string{
	"write", "create", "explain", "describe", "summarize", "generate",
	"list", "draft", "compose", "analyze", "compare", "translate",
	"rewrite", "design", "outline", "produce", "provide", "develop",
}

func hasActionVerb(text string) bool {
	lower := strings.ToLower(text)
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func looksLikeRefusal(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "i can't") ||
		strings.HasPrefix(lower, "i cannot") ||
		strings.HasPrefix(lower, "sorry")
}

// RepairPrompt asks the provider to fill in the elements the verifier found
// missing.
func RepairPrompt(enhanced string, missing []string) string {
	var b strings.Builder
	b.WriteString("The following enhanced prompt is missing these elements: ")
	b.WriteString(strings.Join(missing, ", "))
	b.WriteString(".\nRewrite it so all elements are present. Answer with the rewritten prompt only.\n\n")
	b.WriteString(enhanced)
	return b.String()
}
