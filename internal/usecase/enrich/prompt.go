package enrich

import (
	_ "embed"
	"strings"
	"text/template"
)

// Prompt truncation defaults.
const (
	DefaultProjectChars = 500
	DefaultResumeChars  = 1500

	resumeTruncatedMarker = "... [resume truncated]"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").Parse(strings.TrimRight(promptSource, "\n")))

type promptData struct {
	Project string
	Resume  string
}

// buildPrompt fills the analysis template. Lengths are counted in runes.
// Field values are inserted verbatim and never re-expanded.
func buildPrompt(project, resume string, projectChars, resumeChars int) string {
	project, _ = truncateRunes(project, projectChars)

	resume, cut := truncateRunes(resume, resumeChars)
	if cut {
		resume += resumeTruncatedMarker
	}

	var b strings.Builder
	// Both fields are plain strings, so execution cannot fail on a strings.Builder.
	_ = promptTemplate.Execute(&b, promptData{Project: project, Resume: resume})
	return b.String()
}

// truncateRunes returns at most n runes of s and whether anything was cut.
func truncateRunes(s string, n int) (string, bool) {
	if n < 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}
