package candidate

import "time"

// DefaultPreviewChars is the preview length used when none is configured.
const DefaultPreviewChars = 1000

// Candidate is a single retrieval hit: a resume scored against a project query.
type Candidate struct {
	fileName string
	filePath string
	score    float64
	text     string
	preview  string
	row      int
}

// New creates a candidate. previewChars <= 0 uses DefaultPreviewChars.
func New(fileName, filePath string, score float64, text string, row, previewChars int) Candidate {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return Candidate{
		fileName: fileName,
		filePath: filePath,
		score:    score,
		text:     text,
		preview:  Preview(text, previewChars),
		row:      row,
	}
}

// FileName returns the resume file name (candidate identity).
func (c Candidate) FileName() string { return c.fileName }

// FilePath returns the resume file path.
func (c Candidate) FilePath() string { return c.filePath }

// Score returns the similarity score; higher is more similar.
func (c Candidate) Score() float64 { return c.score }

// Text returns the full extracted resume text.
func (c Candidate) Text() string { return c.text }

// Preview returns the truncated resume text.
func (c Candidate) Preview() string { return c.preview }

// Row returns the corpus row the candidate came from.
func (c Candidate) Row() int { return c.row }

// Preview returns the first n characters of text, with "..." appended when truncated.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// Status is the terminal outcome of enriching one candidate.
type Status string

const (
	// StatusSuccess means the LLM produced a usable profile.
	StatusSuccess Status = "success"
	// StatusFailed means the summarizer gave up and returned a fallback profile.
	StatusFailed Status = "failed"
	// StatusTimeout means the per-candidate deadline fired.
	StatusTimeout Status = "timeout"
	// StatusException means the task panicked.
	StatusException Status = "exception"
)

// Profile is the structured LLM judgement about a resume.
type Profile struct {
	Name    string   `json:"name"`
	Skills  []string `json:"skills"`
	Reasons []string `json:"reasons"`
}

// Summary is a candidate enriched with an LLM profile.
type Summary struct {
	Candidate
	Profile
	Status         Status
	ProcessingTime time.Duration
	Err            string
}

// OK reports whether the summary came from a successful analysis.
func (s Summary) OK() bool { return s.Status == StatusSuccess }
