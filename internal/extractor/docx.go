package extractor

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

func openDocument(path string) (io.ReadCloser, func() error, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open docx: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			archive.Close()
			return nil, nil, fmt.Errorf("open %s: %w", documentPart, err)
		}
		return rc, archive.Close, nil
	}

	archive.Close()
	return nil, nil, fmt.Errorf("%s not found", documentPart)
}

// docxText returns paragraph text, one paragraph per line.
func docxText(path string) (string, error) {
	rc, closeArchive, err := openDocument(path)
	if err != nil {
		return "", err
	}
	defer closeArchive()
	defer rc.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			case "tc":
				b.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}

	return b.String(), nil
}

// docxTable returns the cell text of the first top-level table.
func docxTable(path string) ([][]string, error) {
	rc, closeArchive, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer closeArchive()
	defer rc.Close()

	var (
		rows    [][]string
		row     []string
		cell    strings.Builder
		depth   int
		inText  bool
		decoder = xml.NewDecoder(rc)
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				depth++
			case "tr":
				if depth == 1 {
					row = nil
				}
			case "tc":
				if depth == 1 {
					cell.Reset()
				}
			case "t":
				inText = depth > 0
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "tbl":
				depth--
				if depth == 0 {
					return rows, nil
				}
			case "tr":
				if depth == 1 {
					rows = append(rows, row)
				}
			case "tc":
				if depth == 1 {
					row = append(row, cell.String())
				}
			case "p":
				if depth > 0 {
					cell.WriteByte(' ')
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cell.Write(el)
			}
		}
	}

	return rows, nil
}
