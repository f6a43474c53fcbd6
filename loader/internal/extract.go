package internal

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/xuri/excelize/v2"
)

// Extractor turns files of supported types into plain text. PDF
// conversion is delegated to an external Docling-compatible service;
// everything else is handled locally.
type Extractor struct {
	doclingURL string
	client     *http.Client
	logger     *slog.Logger
}

func NewExtractor(doclingURL string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		doclingURL: doclingURL,
		client:     &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

// ExtractFile dispatches on the file extension. Unknown extensions are
// treated as text with best-effort decoding.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(ctx, path)
	case ".docx":
		return extractDOCX(path)
	case ".xlsx", ".xls":
		return extractXLSX(path)
	case ".html", ".htm":
		return e.extractHTML(path)
	default:
		return e.extractPlain(path)
	}
}

func (e *Extractor) extractPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, strategy := DecodeText(raw)
	if strategy != DecodeUTF8 {
		e.logger.Debug("non-utf8 file decoded", "path", path, "strategy", strategy)
	}
	return text, nil
}

func (e *Extractor) extractHTML(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, _ := DecodeText(raw)
	return CleanHTML(strings.NewReader(text))
}

type doclingResponse struct {
	Document struct {
		MdContent string `json:"md_content"`
	} `json:"document"`
}

// extractPDF validates the file with pdfcpu, then sends it to the
// Docling converter and returns the markdown content.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	if _, err := api.PageCountFile(path); err != nil {
		return "", fmt.Errorf("invalid pdf: %w", err)
	}
	if e.doclingURL == "" {
		return "", fmt.Errorf("DOCLING_URL not configured, cannot convert %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.doclingURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("pdf convert failed: status %d: %s", resp.StatusCode, body)
	}

	var d doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return "", err
	}
	return d.Document.MdContent, nil
}

// documentXML mirrors the parts of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func extractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}

		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteByte('\n')
			}
			for _, run := range para.Runs {
				for _, t := range run.Text {
					sb.WriteString(t.Content)
				}
			}
		}
		return strings.TrimSpace(sb.String()), nil
	}
	return "", fmt.Errorf("no word/document.xml in %s", path)
}

// extractXLSX renders every sheet as CSV-ish text under a sheet header.
func extractXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		var sb strings.Builder
		sb.WriteString("# Sheet: " + sheet + "\n")
		w := csv.NewWriter(&sb)
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
		w.Flush()
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n\n"), nil
}
