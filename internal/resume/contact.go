package resume

import (
	"regexp"
	"strings"
)

const (
	nameScanLines = 5
	nameMaxWords  = 4
)

var (
	// Word and digit classes are spelled out in Unicode terms; Go's \w and \d
	// only cover ASCII.
	emailPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_.-]+@[\p{L}\p{M}\p{N}_.-]+`)
	phonePattern = regexp.MustCompile(`\+?\p{Nd}[\p{Nd}\-\s\p{Z}()]{6,}\p{Nd}`)
)

// Contact holds the best-guess contact details of a resume. Empty fields mean
// nothing matched.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ExtractContact pulls email, phone and name out of the text. These are loose
// patterns: any short line near the top is taken as the name.
func ExtractContact(text string) Contact {
	var c Contact

	c.Email = emailPattern.FindString(text)
	c.Phone = phonePattern.FindString(text)

	lines := splitLines(text)
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && len(strings.Fields(line)) <= nameMaxWords {
			c.Name = line
			break
		}
	}

	return c
}
