package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
)

// CSVStore keeps records in a flat CSV file. A single mutex serialises every
// read and append. Append re-reads the file before assigning an id, so
// records written by another process sharing the path are counted.
type CSVStore struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	nextID int
}

// NewCSV opens (or prepares to create) the CSV table at path.
func NewCSV(path string, log *zap.Logger) (*CSVStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s := &CSVStore{
		path:   path,
		logger: log,
		now:    time.Now,
		nextID: 1,
	}

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	s.advance(records)

	log.Debug("csv store opened",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("next_id", s.nextID),
	)

	return s, nil
}

func (s *CSVStore) Append(_ context.Context, rec Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return nil, err
	}
	s.advance(existing)

	rec.ID = strconv.Itoa(s.nextID)
	rec.CreatedAt = s.now().Format(time.RFC3339)

	if err := s.write(&rec); err != nil {
		s.logger.Error("writing record", zap.String("path", s.path), logger.CandidateID(rec.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: write %s: %v", ErrStorage, s.path, err)
	}

	s.nextID++
	s.logger.Debug("record appended", logger.CandidateID(rec.ID), zap.String("filename", rec.Filename))

	return &rec, nil
}

func (s *CSVStore) All(_ context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readAll()
}

func (s *CSVStore) Get(ctx context.Context, id string) (*Record, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}

	return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
}

func (s *CSVStore) Close() error { return nil }

// advance moves the id counter past the largest numeric id in records.
func (s *CSVStore) advance(records []*Record) {
	for _, rec := range records {
		if n, err := strconv.Atoi(rec.ID); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
}

func (s *CSVStore) write(rec *Record) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return err
		}
	}
	if err := w.Write(rec.values()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return f.Sync()
}

func (s *CSVStore) readAll() ([]*Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %v", ErrStorage, s.path, err)
	}

	records := make([]*Record, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, s.path, err)
		}

		fields := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(row) {
				fields[column] = row[i]
			}
		}

		var rec Record
		if err := mapstructure.Decode(fields, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode row of %s: %v", ErrStorage, s.path, err)
		}
		records = append(records, &rec)
	}

	return records, nil
}
