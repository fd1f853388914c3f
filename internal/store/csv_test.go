package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*CSVStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "candidates.csv")
	s, err := NewCSV(path, nil)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return s, path
}

func TestCSVStoreEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	records, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	in := Record{
		Filename:   "jane.pdf",
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "+1 555 123 4567",
		Skills:     "Go, Rust; Kubernetes",
		Education:  "MIT",
		Experience: "Acme \"platform\" team",
		Text:       "Jane Doe\nSkills\nGo, Rust\nKubernetes",
	}

	stored, err := s.Append(ctx, in)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored.ID != "1" {
		t.Fatalf("expected id 1, got %q", stored.ID)
	}
	if stored.CreatedAt != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected created_at %q", stored.CreatedAt)
	}

	got, err := s.Get(ctx, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, stored) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", stored, got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), strings.Join(Columns, ",")+"\n") {
		t.Fatalf("missing header in %q", data)
	}
}

func TestCSVStoreHeaderWrittenOnce(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, Record{Filename: "cv.txt"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(data), "id,filename"); n != 1 {
		t.Fatalf("expected one header, found %d", n)
	}
}

func TestCSVStoreIDsContinueAfterReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Append(ctx, Record{Filename: "cv.txt"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	reopened, err := NewCSV(path, nil)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	rec, err := reopened.Append(ctx, Record{Filename: "third.txt"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != "3" {
		t.Fatalf("expected id 3, got %q", rec.ID)
	}
}

func TestCSVStoreConcurrentAppendsGetUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.Append(ctx, Record{Filename: "cv.txt"})
			if err != nil {
				t.Errorf("Append: %v", err)
				return
			}
			ids <- rec.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	records, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
}

func TestCSVStoreLegacyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	legacy := "id,filename,name,email,phone,skills,education,experience,text\n" +
		"7,old.pdf,Old Timer,old@example.com,,COBOL,,,\"Old Timer\nCOBOL\"\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	s, err := NewCSV(path, nil)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	got, err := s.Get(context.Background(), "7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Old Timer" || got.Skills != "COBOL" || got.Text != "Old Timer\nCOBOL" || got.CreatedAt != "" {
		t.Fatalf("unexpected legacy record: %+v", got)
	}

	next, err := s.Append(context.Background(), Record{Filename: "new.txt"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if next.ID != "8" {
		t.Fatalf("expected id 8 after legacy max, got %q", next.ID)
	}
}

func TestCSVStoreGetNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.Get(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCSVStoreSharedFileAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	ctx := context.Background()

	cli, err := NewCSV(path, nil)
	if err != nil {
		t.Fatalf("NewCSV cli: %v", err)
	}
	srv, err := NewCSV(path, nil)
	if err != nil {
		t.Fatalf("NewCSV srv: %v", err)
	}

	first, err := cli.Append(ctx, Record{Filename: "cli.txt"})
	if err != nil {
		t.Fatalf("cli Append: %v", err)
	}
	second, err := srv.Append(ctx, Record{Filename: "srv.txt"})
	if err != nil {
		t.Fatalf("srv Append: %v", err)
	}
	third, err := cli.Append(ctx, Record{Filename: "cli2.txt"})
	if err != nil {
		t.Fatalf("cli Append again: %v", err)
	}

	if first.ID != "1" || second.ID != "2" || third.ID != "3" {
		t.Fatalf("expected ids 1, 2, 3, got %q, %q, %q", first.ID, second.ID, third.ID)
	}

	got, err := cli.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "srv.txt" {
		t.Fatalf("expected srv.txt for id %s, got %q", second.ID, got.Filename)
	}
}

func TestCSVStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	if err := os.WriteFile(path, []byte("id,name\n1,\"unterminated\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := NewCSV(path, nil); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestCSVStoreAppendRefusesCorruptFile(t *testing.T) {
	s, path := newTestStore(t)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("id,name\n1,\"unterminated\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := s.Append(context.Background(), Record{Filename: "x.txt"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestRecordSkillsList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		skills string
		expect []string
	}{
		{skills: "", expect: []string{}},
		{skills: "Go", expect: []string{"Go"}},
		{skills: "Go; Rust;SQL", expect: []string{"Go", " Rust", "SQL"}},
	}

	for _, tt := range tests {
		rec := Record{Skills: tt.skills}
		if got := rec.SkillsList(); !reflect.DeepEqual(got, tt.expect) {
			t.Errorf("SkillsList(%q) = %q, want %q", tt.skills, got, tt.expect)
		}
	}
}
