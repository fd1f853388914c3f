package intake

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/store"
)

func TestIngestText(t *testing.T) {
	st, err := store.NewCSV(filepath.Join(t.TempDir(), "resumes.csv"), nil)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	text := "Jane Doe\njane@example.com\nSkills\nGo\nKubernetes\nEducation\nMIT\n"
	rec, err := Ingest(context.Background(), st, nil, "jane.txt", []byte(text))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if rec.ID != "1" || rec.Filename != "jane.txt" {
		t.Fatalf("unexpected record identity: %+v", rec)
	}
	if rec.Name != "Jane Doe" || rec.Email != "jane@example.com" {
		t.Fatalf("unexpected contact: %+v", rec)
	}
	if rec.Skills != "Go; Kubernetes" || rec.Education != "MIT" {
		t.Fatalf("unexpected sections: %+v", rec)
	}
	if rec.Text != text {
		t.Fatalf("text must be stored verbatim, got %q", rec.Text)
	}

	stored, err := st.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Skills != rec.Skills {
		t.Fatalf("stored record differs: %+v", stored)
	}
}

func TestIngestUnsupported(t *testing.T) {
	st, err := store.NewCSV(filepath.Join(t.TempDir(), "resumes.csv"), nil)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	_, err = Ingest(context.Background(), st, nil, "cv.rtf", []byte("x"))
	if !errors.Is(err, resume.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	records, err := st.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("nothing should be stored, got %d records", len(records))
	}
}
