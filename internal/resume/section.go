package resume

import "strings"

// Heading label sets used to pull the stored sections out of a resume.
var (
	SkillsLabels     = []string{"skills", "technical skills", "professional skills", "skills & tools", "technical expertise"}
	EducationLabels  = []string{"education", "academic background", "qualifications"}
	ExperienceLabels = []string{"experience", "work experience", "projects", "internships"}
)

// boundaryHeadings end a capture when they show up inside another section.
var boundaryHeadings = []string{
	"experience",
	"education",
	"projects",
	"certifications",
	"achievements",
	"summary",
	"profile",
	"contact",
}

// ExtractSection returns the body under the last heading line that contains
// one of labels. Matching is case-insensitive substring containment on the
// trimmed line with trailing colons removed, so prose lines that mention a
// label also count as headings. Returns "" when no heading matched.
func ExtractSection(text string, labels []string) string {
	targets := make([]string, 0, len(labels))
	for _, label := range labels {
		if label = strings.ToLower(label); label != "" {
			targets = append(targets, label)
		}
	}

	var (
		last    []string
		current []string
		capture bool
	)

	for _, line := range splitLines(text) {
		clean := strings.TrimRight(strings.ToLower(strings.TrimSpace(line)), ":")

		if containsAny(clean, targets) {
			if len(current) > 0 {
				last = current
			}
			current = nil
			capture = true
			continue
		}

		if capture && containsAny(clean, boundaryHeadings) {
			// an empty buffer overwrites an earlier section here as well
			last = current
			current = nil
			capture = false
			continue
		}

		if capture {
			current = append(current, strings.TrimSpace(line))
		}
	}

	if capture && len(current) > 0 {
		last = current
	}

	return strings.Join(last, "\n")
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// splitLines splits on \n, \r\n and \r. A trailing line break does not
// produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
