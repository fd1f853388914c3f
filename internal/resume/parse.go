package resume

import "strings"

// Parsed is everything the heuristics pull out of one resume.
type Parsed struct {
	Text          string
	Name          string
	Email         string
	Phone         string
	SkillsSection string
	Education     string
	Experience    string
}

// Parse runs the contact extractor and the section segmenter over plain text.
func Parse(text string) *Parsed {
	contact := ExtractContact(text)

	return &Parsed{
		Text:          text,
		Name:          contact.Name,
		Email:         contact.Email,
		Phone:         contact.Phone,
		SkillsSection: ExtractSection(text, SkillsLabels),
		Education:     ExtractSection(text, EducationLabels),
		Experience:    ExtractSection(text, ExperienceLabels),
	}
}

// ParseFile extracts text from an uploaded document and parses it.
func ParseFile(filename string, data []byte) (*Parsed, error) {
	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}

// FlattenSkills converts a multi-line skills section into the single-line
// "a; b; c" form kept in the store.
func FlattenSkills(section string) string {
	return strings.TrimSpace(strings.ReplaceAll(section, "\n", "; "))
}
