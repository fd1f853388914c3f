package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/resume-screener/internal/logger"
	"go.uber.org/zap"
)

// ErrOracleUnavailable marks failures to obtain any text from the oracle:
// transport errors, non-2xx responses and missing credentials.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// Assessment is the coerced oracle verdict for one candidate.
type Assessment struct {
	Score          float64
	Justification  string
	Matches        []string
	Recommendation string
	// Degraded is set when the oracle answered with text that was not a JSON
	// object. Justification then holds the raw text.
	Degraded bool
	Raw      string
}

// Rater scores a candidate's skills text against a job description.
type Rater interface {
	Rate(ctx context.Context, skillsText, jobDescription string) (*Assessment, error)
}

// Generator sends a prompt to a language model and returns its text output.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// OracleRater is the Rater backed by a Generator.
type OracleRater struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewOracleRater(generator Generator, log *zap.Logger, maxLogLength int) *OracleRater {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &OracleRater{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (r *OracleRater) Rate(ctx context.Context, skillsText, jobDescription string) (*Assessment, error) {
	if r == nil || r.generator == nil {
		return nil, fmt.Errorf("%w: generator is not configured", ErrOracleUnavailable)
	}

	prompt := BuildPrompt(skillsText, jobDescription)

	r.logger.Debug("oracle request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrOracleUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	r.logger.Debug("oracle response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
	)

	assessment := ParseAssessment(raw)
	if assessment.Degraded {
		r.logger.Warn("oracle returned non-JSON output",
			zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
		)
	}

	return assessment, nil
}

// BuildPrompt fills the embedded prompt template. Placeholders inside the
// inputs are left untouched.
func BuildPrompt(skillsText, jobDescription string) string {
	template := strings.TrimRight(promptTemplate, "\n")
	if strings.TrimSpace(template) == "" {
		template = "Job Description:\n{{JOB_DESCRIPTION}}\n\nCandidate Skills Section:\n{{SKILLS}}"
	}

	return strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{SKILLS}}", skillsText,
	).Replace(template)
}
