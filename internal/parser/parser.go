// Package parser extracts plain text from document files for ingestion.
package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"content-rag/internal/models"
	"content-rag/internal/scraper"
)

// Supported lists the file extensions ExtractText understands.
var Supported = []string{".pdf", ".docx", ".pptx", ".xlsx", ".xlsm", ".xltx", ".xltm", ".md", ".markdown", ".html", ".htm", ".txt"}

// ExtractText returns the text content of the file at filePath, selected by
// its extension.
func ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	var (
		content string
		err     error
	)
	switch ext {
	case ".pdf":
		content, err = parsePDF(filePath)
	case ".docx":
		content, err = parseDOCX(filePath)
	case ".pptx":
		content, err = parsePPTX(filePath)
	case ".xlsx":
		content, err = parseXLSX(filePath)
	case ".xlsm", ".xltx", ".xltm":
		content, err = parseExcelize(filePath)
	case ".md", ".markdown":
		content, err = parseMarkdown(filePath)
	case ".html", ".htm":
		content, err = parseHTML(filePath)
	case ".txt":
		content, err = parseText(filePath)
	default:
		return "", fmt.Errorf("%w: unsupported file format: %s", models.ErrInvalidInput, ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return strings.TrimSpace(content), nil
}

func parsePDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

func parseDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return extractTextFromXML(r.Editable().GetContent())
}

func parsePPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range f.File {
		name := file.Name
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: num, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		slideText, err := extractTextFromXML(string(data))
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}
		if slideText = strings.TrimSpace(slideText); slideText != "" {
			parts = append(parts, slideText)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func parseXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, sheet := range f.Sheets {
		fmt.Fprintf(&b, "## Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			b.WriteString(strings.Join(cells, "\t") + "\n")
		}
	}
	return b.String(), nil
}

func parseExcelize(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		fmt.Fprintf(&b, "## Sheet: %s\n", sheetName)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t") + "\n")
		}
	}
	return b.String(), nil
}

func parseMarkdown(filePath string) (string, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return markdownText(src)
}

// markdownText renders the text content of a Markdown document, one line per
// block, without markup.
func markdownText(src []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func parseHTML(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return scraper.ExtractText(f)
}

func parseText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractTextFromXML collects the character data of every <t> element in an
// Office Open XML part (w:t in documents, a:t in slides), one line per <p>.
func extractTextFromXML(xmlContent string) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader([]byte(xmlContent)))

	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					out.WriteString(s + "\n")
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(el)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		out.WriteString(s + "\n")
	}
	return out.String(), nil
}
