package extractor

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Evaluation Only. Created with Aspose.Words. Copyright 2003-2025 Aspose Pty Ltd.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Ivan   Petrov</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>engineer</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Название</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Data center engineer</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Requirements</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>UPS</w:t></w:r></w:p><w:p><w:r><w:t>cooling</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Empty</w:t></w:r></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Second</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>table</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestExtractTextDocx(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "cv.docx", documentXML)

	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Ivan Petrov Senior engineer Название Data center engineer Requirements UPS cooling Empty Second table"
	if text != want {
		t.Fatalf("unexpected text:\n got %q\nwant %q", text, want)
	}
}

func TestExtractTableDocx(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "vacancy.DOCX", documentXML)

	table, name, err := ExtractTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if name != "Data center engineer" {
		t.Fatalf("unexpected vacancy name %q", name)
	}
	if table["Requirements"] != "UPS cooling" {
		t.Fatalf("unexpected multi-paragraph cell: %q", table["Requirements"])
	}
	if _, ok := table["Empty"]; ok {
		t.Fatal("rows with empty value must be skipped")
	}
	if _, ok := table["Second"]; ok {
		t.Fatal("only the first table must be read")
	}
}

func TestExtractTablePlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vacancy.md")
	content := "| Field | Value |\n|---|---|\n| Title | Backend developer |\n| Stack | Go, PostgreSQL |\nLocation: Remote\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	table, name, err := ExtractTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Backend developer" {
		t.Fatalf("unexpected vacancy name %q", name)
	}
	if table["Stack"] != "Go, PostgreSQL" || table["Location"] != "Remote" {
		t.Fatalf("unexpected table: %#v", table)
	}
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()

	pdf := filepath.Join(dir, "cv.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	broken := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(broken, []byte("not a zip"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte(" \n\t\x01"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	noTable := writeDocx(t, dir, "plain.docx", `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>text</w:t></w:r></w:p></w:body></w:document>`)

	cases := map[string]func() error{
		"unsupported":  func() error { _, err := ExtractText(pdf); return err },
		"broken docx":  func() error { _, err := ExtractText(broken); return err },
		"missing file": func() error { _, err := ExtractText(filepath.Join(dir, "nope.txt")); return err },
		"empty text":   func() error { _, err := ExtractText(blank); return err },
		"no table":     func() error { _, _, err := ExtractTable(noTable); return err },
	}

	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			if err := run(); !errors.Is(err, ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %v", err)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  a\x00b\t\tc\n\n d\x7f ")
	if got != "ab c d" {
		t.Fatalf("unexpected clean text %q", got)
	}
}

func TestSupported(t *testing.T) {
	if !Supported("a.DocX") || !Supported("b.txt") || Supported("c.pdf") {
		t.Fatal("unexpected Supported result")
	}
}

func TestRenderTable(t *testing.T) {
	got := RenderTable(map[string]string{"b": "2", "a": "1"})
	if got != "a: 1\nb: 2" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if RenderTable(nil) != "" {
		t.Fatal("empty table must render empty")
	}
}
