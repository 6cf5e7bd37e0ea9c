package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// ErrExtraction is returned for unreadable or unsupported documents.
var ErrExtraction = errors.New("document extraction failed")

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	whitespace   = regexp.MustCompile(`\s+`)

	// watermark lines left by document converters
	boilerplate = []string{
		"Evaluation Only. Created with Aspose.Words. Copyright 2003-2025 Aspose Pty Ltd.",
		"Created with an evaluation copy of Aspose.Words.",
	}

	vacancyNameKeys = []string{"Название", "Name", "Title"}
)

// Supported reports whether path has an extension ExtractText understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".txt", ".md":
		return true
	default:
		return false
	}
}

// ExtractText returns the cleaned plain text of a .docx, .txt or .md file.
func ExtractText(path string) (string, error) {
	var (
		raw string
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		raw, err = docxText(path)
	case ".txt", ".md":
		raw, err = plainText(path)
	default:
		return "", fmt.Errorf("%w: %s: unsupported format %q", ErrExtraction, path, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}

	text := CleanText(stripBoilerplate(raw))
	if text == "" {
		return "", fmt.Errorf("%w: %s: document is empty", ErrExtraction, path)
	}
	return text, nil
}

// ExtractTable reads the first two-column table of a document into a map and
// returns the vacancy name from its "Название", "Name" or "Title" row.
// Rows with an empty key or value are skipped.
func ExtractTable(path string) (map[string]string, string, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		rows, err = docxTable(path)
	case ".txt", ".md":
		rows, err = plainTable(path)
	default:
		return nil, "", fmt.Errorf("%w: %s: unsupported format %q", ErrExtraction, path, ext)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}

	table := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key, value := CleanText(row[0]), CleanText(row[1])
		if key != "" && value != "" {
			table[key] = value
		}
	}
	if len(table) == 0 {
		return nil, "", fmt.Errorf("%w: %s: no table found", ErrExtraction, path)
	}

	return table, vacancyName(table), nil
}

// CleanText drops control characters and collapses whitespace runs.
func CleanText(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func vacancyName(table map[string]string) string {
	for _, want := range vacancyNameKeys {
		for key, value := range table {
			if strings.EqualFold(key, want) {
				return value
			}
		}
	}
	return ""
}

func stripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isBoilerplate(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isBoilerplate(line string) bool {
	if line == "" {
		return false
	}
	for _, b := range boilerplate {
		if strings.HasPrefix(line, b) {
			return true
		}
	}
	return false
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// plainTable reads markdown table rows ("| key | value |") or "key: value" lines.
func plainTable(path string) ([][]string, error) {
	text, err := plainText(path)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "|"):
			cells := strings.Split(strings.Trim(line, "|"), "|")
			if len(cells) < 2 || isSeparatorRow(cells) {
				continue
			}
			rows = append(rows, []string{cells[0], cells[1]})
		case strings.Contains(line, ":"):
			key, value, _ := strings.Cut(line, ":")
			rows = append(rows, []string{key, value})
		}
	}
	return rows, nil
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(strings.TrimSpace(c), "-:") != "" {
			return false
		}
	}
	return true
}

// RenderTable prints a table as "key: value" lines sorted by key.
func RenderTable(table map[string]string) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, table[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
