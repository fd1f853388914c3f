// Package intake turns uploaded documents into stored candidate records.
package intake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/store"
)

// Ingest extracts and parses data, then appends the resulting record to st.
// filename must already be sanitized; its extension selects the extractor.
func Ingest(ctx context.Context, st store.Store, log *zap.Logger, filename string, data []byte) (*store.Record, error) {
	if log == nil {
		log = zap.NewNop()
	}

	parsed, err := resume.ParseFile(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	log.Debug("resume parsed",
		zap.String("filename", filename),
		zap.Int("text_length", len(parsed.Text)),
		zap.Bool("has_skills", parsed.SkillsSection != ""),
		zap.Bool("has_email", parsed.Email != ""),
	)

	rec, err := st.Append(ctx, FromParsed(filename, parsed))
	if err != nil {
		return nil, err
	}

	log.Info("candidate stored",
		logger.CandidateID(rec.ID),
		zap.String("filename", rec.Filename),
	)

	return rec, nil
}

// FromParsed maps parser output onto the stored column set. Id and creation
// time are left for the store.
func FromParsed(filename string, parsed *resume.Parsed) store.Record {
	return store.Record{
		Filename:   filename,
		Name:       parsed.Name,
		Email:      parsed.Email,
		Phone:      parsed.Phone,
		Skills:     resume.FlattenSkills(parsed.SkillsSection),
		Education:  parsed.Education,
		Experience: parsed.Experience,
		Text:       parsed.Text,
	}
}
