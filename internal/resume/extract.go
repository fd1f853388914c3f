package resume

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedType is returned for files outside AllowedExtensions.
var ErrUnsupportedType = errors.New("unsupported file type")

// AllowedExtensions lists the upload formats, lower-case and without the dot.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxBreak        = regexp.MustCompile(`<w:(?:br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// Extension returns the lower-cased extension after the last dot, or "" when
// the name has no dot.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx == -1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// AllowedFile reports whether the file name carries one of AllowedExtensions.
func AllowedFile(filename string) bool {
	_, ok := AllowedExtensions[Extension(filename)]
	return ok
}

// AllowedList returns the allowed extensions sorted, for error messages.
func AllowedList() []string {
	list := make([]string, 0, len(AllowedExtensions))
	for ext := range AllowedExtensions {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

// ExtractText converts an uploaded document to plain text based on its extension.
func ExtractText(filename string, data []byte) (string, error) {
	switch ext := Extension(filename); ext {
	case "txt":
		return strings.ToValidUTF8(string(data), ""), nil
	case "pdf":
		return extractPDFText(data)
	case "docx":
		return extractDocxText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	return buf.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens document.xml into one line per paragraph.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxBreak.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return strings.TrimSuffix(content, "\n")
}

// SecureFilename reduces an uploaded name to a safe base name made of ASCII
// letters, digits, '_', '.' and '-'. Whitespace runs become '_' and leading
// or trailing dots and underscores are removed. The result may be empty.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "._")
}
