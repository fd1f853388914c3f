package matching

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/store"
)

// fallbackTextRunes bounds how much resume text is scored when a record has
// no skills section.
const fallbackTextRunes = 2000

// Result is one candidate's ranking entry. Results are never persisted.
type Result struct {
	CandidateID    string        `json:"candidate_id"`
	CandidateName  string        `json:"candidate_name"`
	Score          float64       `json:"score"`
	Justification  string        `json:"justification"`
	Matches        []string      `json:"matches"`
	Recommendation string        `json:"recommendation"`
	CandidateData  *store.Record `json:"candidate_data"`
	Error          string        `json:"error,omitempty"`
}

type Matcher struct {
	rater  ai.Rater
	logger *zap.Logger
}

func New(rater ai.Rater, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{rater: rater, logger: log}
}

// MatchAll rates every record against jobDescription one at a time and
// returns the ranking sorted by score, highest first. Records scoring below
// minScore are dropped. Oracle failures and unparseable oracle output are
// always kept with a zero score so the caller can see them.
func (m *Matcher) MatchAll(ctx context.Context, records []*store.Record, jobDescription string, minScore float64) []Result {
	results := make([]Result, 0, len(records))
	failed := 0

	for _, rec := range records {
		result := Result{
			CandidateID:   rec.ID,
			CandidateName: rec.DisplayName(),
			Matches:       []string{},
			CandidateData: rec,
		}

		assessment, err := m.rate(ctx, rec, jobDescription)
		if err != nil {
			m.logger.Warn("candidate evaluation failed",
				logger.CandidateID(rec.ID),
				zap.Error(err),
			)
			failed++
			result.Justification = "LLM error: " + err.Error()
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Score = assessment.Score
		result.Justification = assessment.Justification
		result.Recommendation = assessment.Recommendation
		if assessment.Matches != nil {
			result.Matches = assessment.Matches
		}

		if assessment.Degraded {
			m.logger.Info("candidate kept with unparseable assessment",
				logger.CandidateID(rec.ID),
			)
			result.Score = 0
			results = append(results, result)
			continue
		}

		if assessment.Score < minScore {
			m.logger.Debug("candidate below score threshold",
				logger.CandidateID(rec.ID),
				zap.Float64("score", assessment.Score),
				zap.Float64("threshold", minScore),
			)
			continue
		}

		m.logger.Debug("candidate matched",
			logger.CandidateID(rec.ID),
			zap.Float64("score", assessment.Score),
		)
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	m.logger.Info("matching completed",
		zap.Int("total_candidates", len(records)),
		zap.Int("matched_candidates", len(results)),
		zap.Int("failed_candidates", failed),
	)

	return results
}

func (m *Matcher) rate(ctx context.Context, rec *store.Record, jobDescription string) (*ai.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.rater.Rate(ctx, ScoringText(rec), jobDescription)
}

// ScoringText is the text sent to the oracle for a record: the skills section
// when present, otherwise the start of the full resume text.
func ScoringText(rec *store.Record) string {
	if strings.TrimSpace(rec.Skills) != "" {
		return rec.Skills
	}
	return truncateRunes(rec.Text, fallbackTextRunes)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
