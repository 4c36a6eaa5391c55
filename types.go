package shortlist

import (
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// Candidate is one resume retrieved for a project.
type Candidate struct {
	FileName string
	FilePath string
	// Score is the cosine similarity to the project description.
	Score   float64
	Text    string
	Preview string
	// Row is the resume's position in the catalog built by the last Ingest.
	Row int
}

// Summary is an enriched candidate in rank order.
type Summary = shortlistuc.View

// Request describes one end-to-end shortlist run.
type Request = shortlistuc.Request

// Report is the outcome of a shortlist run.
type Report = shortlistuc.Report

// IngestReport counts what happened to each file of an ingested folder.
type IngestReport = ingest.Report

// EnrichStats aggregate one enrichment run.
type EnrichStats = enrich.Stats

// Format is an export file format: "json", "csv" or "xlsx".
type Format = shortlistuc.Format

// Export formats.
const (
	FormatJSON = shortlistuc.FormatJSON
	FormatCSV  = shortlistuc.FormatCSV
	FormatXLSX = shortlistuc.FormatXLSX
)

func candidateFromDomain(c candidate.Candidate) Candidate {
	return Candidate{
		FileName: c.FileName(),
		FilePath: c.FilePath(),
		Score:    c.Score(),
		Text:     c.Text(),
		Preview:  c.Preview(),
		Row:      c.Row(),
	}
}

func candidateToDomain(c Candidate, previewChars int) candidate.Candidate {
	return candidate.New(c.FileName, c.FilePath, c.Score, c.Text, c.Row, previewChars)
}
