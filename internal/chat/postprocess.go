package chat

import (
	"regexp"
	"strings"
)

// ProcessedReply separates the user-facing answer from an optional internal
// reasoning segment.
type ProcessedReply struct {
	VisibleText   string
	ReasoningText string
}

var (
	// thinkBlockPattern matches the reasoning block some models emit
	// before their answer.
	thinkBlockPattern = regexp.MustCompile(`(?s)<think(?:ing)?>(.*?)</think(?:ing)?>`)
	// reasoningPrefixPattern matches a leading "Reasoning:" section that
	// ends at the first blank line.
	reasoningPrefixPattern = regexp.MustCompile(`(?s)\A\s*Reasoning:\s*(.*?)\n\s*\n`)

	setextH1Pattern     = regexp.MustCompile(`(?m)^([^\s#][^\n]*)\n={3,}\s*$`)
	setextH2Pattern     = regexp.MustCompile(`(?m)^([^\s#-][^\n]*)\n-{3,}\s*$`)
	bulletPattern       = regexp.MustCompile(`(?m)^(\s*)[*+](\s+)`)
	numberedListPattern = regexp.MustCompile(`(?m)^(\s*\d+)\)(\s+)`)
	blankRunPattern     = regexp.MustCompile(`\n{3,}`)
	trailingWSPattern   = regexp.MustCompile(`(?m)[ \t]+$`)
)

// ResponsePostProcessor normalizes completion text so downstream renderers
// receive consistent formatting regardless of which provider produced it.
// Process is idempotent: re-processing an already-processed reply yields
// the same visible text.
type ResponsePostProcessor struct{}

func NewResponsePostProcessor() *ResponsePostProcessor {
	return &ResponsePostProcessor{}
}

// Process splits an optional reasoning segment from the answer and
// normalizes structural markup.
func (p *ResponsePostProcessor) Process(raw string) ProcessedReply {
	visible, reasoning := splitReasoning(raw)
	return ProcessedReply{
		VisibleText:   normalizeMarkup(visible),
		ReasoningText: strings.TrimSpace(reasoning),
	}
}

func splitReasoning(text string) (visible, reasoning string) {
	var segments []string

	cleaned := thinkBlockPattern.ReplaceAllStringFunc(text, func(block string) string {
		if m := thinkBlockPattern.FindStringSubmatch(block); m != nil {
			segments = append(segments, strings.TrimSpace(m[1]))
		}
		return ""
	})

	cleaned = reasoningPrefixPattern.ReplaceAllStringFunc(cleaned, func(block string) string {
		if m := reasoningPrefixPattern.FindStringSubmatch(block); m != nil {
			segments = append(segments, strings.TrimSpace(m[1]))
		}
		return ""
	})

	return cleaned, strings.Join(segments, "\n\n")
}

// normalizeMarkup enforces ATX headings, dash bullets, dot-terminated list
// numbering, and at most one blank line between blocks.
func normalizeMarkup(text string) string {
	text = setextH1Pattern.ReplaceAllString(text, "# $1")
	text = setextH2Pattern.ReplaceAllString(text, "## $1")
	text = bulletPattern.ReplaceAllString(text, "${1}-${2}")
	text = numberedListPattern.ReplaceAllString(text, "${1}.${2}")
	text = trailingWSPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
