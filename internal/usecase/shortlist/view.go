package shortlist

import (
	"math"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
)

// View is the flat, serializable form of an enriched candidate.
type View struct {
	Rank             int      `json:"rank"`
	FileName         string   `json:"file_name"`
	FilePath         string   `json:"file_path"`
	Score            float64  `json:"score"`
	Name             string   `json:"name"`
	Skills           []string `json:"skills"`
	Reasons          []string `json:"reasons"`
	Status           string   `json:"status"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Error            string   `json:"error,omitempty"`
}

// Views converts summaries to views, ranking them in the given order starting at 1.
func Views(summaries []candidate.Summary) []View {
	out := make([]View, len(summaries))
	for i, s := range summaries {
		out[i] = View{
			Rank:             i + 1,
			FileName:         s.FileName(),
			FilePath:         s.FilePath(),
			Score:            s.Score(),
			Name:             s.Name,
			Skills:           nonNil(s.Skills),
			Reasons:          nonNil(s.Reasons),
			Status:           string(s.Status),
			ProcessingTimeMs: s.ProcessingTime.Milliseconds(),
			Error:            s.Err,
		}
	}
	return out
}

// ScorePercent renders a similarity score as a rounded percentage.
func ScorePercent(score float64) int {
	return int(math.Round(score * 100))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
