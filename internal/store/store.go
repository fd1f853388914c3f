package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no record carries the requested id.
	ErrNotFound = errors.New("candidate not found")
	// ErrStorage wraps failures reading or writing the underlying table.
	ErrStorage = errors.New("storage failure")
)

// Columns is the on-disk column order. The first nine columns are fixed;
// created_at was appended later and may be missing from older files.
var Columns = []string{"id", "filename", "name", "email", "phone", "skills", "education", "experience", "text", "created_at"}

// Record is one parsed candidate. Records are immutable once appended.
type Record struct {
	ID         string `json:"id" mapstructure:"id"`
	Filename   string `json:"filename" mapstructure:"filename"`
	Name       string `json:"name" mapstructure:"name"`
	Email      string `json:"email" mapstructure:"email"`
	Phone      string `json:"phone" mapstructure:"phone"`
	Skills     string `json:"skills" mapstructure:"skills"`
	Education  string `json:"education" mapstructure:"education"`
	Experience string `json:"experience" mapstructure:"experience"`
	Text       string `json:"text" mapstructure:"text"`
	CreatedAt  string `json:"created_at" mapstructure:"created_at"`
}

// SkillsList splits the stored skills on ';' without trimming the parts.
func (r *Record) SkillsList() []string {
	if r.Skills == "" {
		return []string{}
	}
	return strings.Split(r.Skills, ";")
}

// DisplayName is the candidate name, falling back to the uploaded file name.
func (r *Record) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Filename
}

func (r *Record) values() []string {
	return []string{r.ID, r.Filename, r.Name, r.Email, r.Phone, r.Skills, r.Education, r.Experience, r.Text, r.CreatedAt}
}

// Store is an append-only table of candidate records kept in insertion order.
type Store interface {
	// Append assigns the id and creation time, persists the record and
	// returns the stored copy.
	Append(ctx context.Context, rec Record) (*Record, error)
	All(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Close() error
}
