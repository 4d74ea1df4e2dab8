package textextract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"cvparse-backend/internal/shared/storage/object"
)

const (
	mimePDF   = "application/pdf"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePlain = "text/plain"
)

// Strategy names which decoding path produced the text. Stored alongside
// results so low-quality extractions can be traced back to their source.
type Strategy string

const (
	StrategyPDFText      Strategy = "pdf_text_layer"
	StrategyPDFParenScan Strategy = "pdf_paren_scan"
	StrategyPDFPrintable Strategy = "pdf_printable_runs"
	StrategyDOCX         Strategy = "docx_xml"
	StrategyDocconv      Strategy = "docconv"
	StrategyPlainUTF8    Strategy = "plain_utf8"
)

// Acquired is the outcome of text acquisition: the best text the decoders
// could produce (possibly empty) and the strategy that produced it.
type Acquired struct {
	Text     string
	Strategy Strategy
}

// Acquire decodes document bytes into plain text. It never fails: every
// format path ends in a byte-level fallback, so callers always get a string
// to work with. Downstream extraction tolerates empty input.
func Acquire(ctx context.Context, data []byte, mimeType string, fileName string) Acquired {
	if err := ctx.Err(); err != nil {
		return Acquired{Text: "", Strategy: StrategyPlainUTF8}
	}

	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return acquirePDF(data)
	case mimeDOCX:
		if text, err := extractDOCX(data); err == nil {
			return Acquired{Text: text, Strategy: StrategyDOCX}
		}
		return plainFallback(data)
	case "application/msword", "application/rtf", "text/rtf",
		"application/vnd.oasis.opendocument.text":
		if text, err := convertLegacy(data, mimeType, fileName); err == nil && strings.TrimSpace(text) != "" {
			return Acquired{Text: text, Strategy: StrategyDocconv}
		}
		return plainFallback(data)
	default:
		return plainFallback(data)
	}
}

// AcquireFromStore reads a stored object, acquires its text and persists a
// derived .extracted.txt copy next to the original key.
func AcquireFromStore(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) (Acquired, error) {
	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return Acquired{}, fmt.Errorf("acquire text key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Acquired{}, fmt.Errorf("acquire text key=%s mime=%s: read: %w", fileKey, mimeType, err)
	}

	acquired := Acquire(ctx, raw, mimeType, fileName)

	extractedKey := fileKey + ".extracted.txt"
	if err := saveExtracted(ctx, store, extractedKey, acquired.Text); err != nil {
		return Acquired{}, fmt.Errorf("acquire text key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	return acquired, nil
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

func saveExtracted(ctx context.Context, store object.ObjectStore, key string, text string) error {
	saver, ok := store.(keySaver)
	if !ok {
		return errors.New("object store does not support SaveWithKey")
	}
	_, err := saver.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text))
	return err
}

// acquirePDF walks the text layer page by page, then degrades to byte-level
// scans of the raw PDF when the text layer is missing or unreadable.
func acquirePDF(data []byte) Acquired {
	if text, err := extractPDFText(data); err == nil && strings.TrimSpace(text) != "" {
		return Acquired{Text: text, Strategy: StrategyPDFText}
	}
	if text := scanParenRuns(data); strings.TrimSpace(text) != "" {
		return Acquired{Text: text, Strategy: StrategyPDFParenScan}
	}
	return Acquired{Text: scanPrintableRuns(data), Strategy: StrategyPDFPrintable}
}

func extractPDFText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(pageText)
	}
	return buf.String(), nil
}

// scanParenRuns collects parenthesis-delimited literal strings from raw PDF
// content streams. Escaped parentheses stay inside their run.
func scanParenRuns(data []byte) string {
	var out strings.Builder
	var run []byte
	depth := 0
	escaped := false

	for _, b := range data {
		if depth == 0 {
			if b == '(' {
				depth = 1
				run = run[:0]
			}
			continue
		}
		if escaped {
			escaped = false
			if b == '(' || b == ')' {
				run = append(run, b)
			}
			continue
		}
		switch {
		case b == '\\':
			escaped = true
		case b == '(':
			depth++
		case b == ')':
			depth--
			if depth == 0 {
				if token := strings.TrimSpace(string(run)); len(token) >= 2 && isPrintableASCII(token) {
					if out.Len() > 0 {
						out.WriteByte(' ')
					}
					out.WriteString(token)
				}
			}
		case b >= 0x20 && b <= 0x7E:
			run = append(run, b)
		}
	}
	return out.String()
}

var printableRunRe = regexp.MustCompile(`[\x20-\x7E]{4,}`)

func scanPrintableRuns(data []byte) string {
	runs := printableRunRe.FindAllString(string(data), -1)
	return strings.Join(runs, "\n")
}

func isPrintableASCII(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7E {
			return false
		}
	}
	return true
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// convertLegacy hands .doc/.rtf/.odt payloads to docconv.
func convertLegacy(data []byte, mimeType string, fileName string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if mt == "" || mt == "application/octet-stream" {
		mt = docconv.MimeTypeByExtension(fileName)
	}
	res, err := docconv.Convert(bytes.NewReader(data), mt, true)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

func plainFallback(data []byte) Acquired {
	return Acquired{
		Text:     strings.ToValidUTF8(string(data), ""),
		Strategy: StrategyPlainUTF8,
	}
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" && clean != "" && clean != "application/octet-stream" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".doc":
		return "application/msword"
	case ".rtf":
		return "application/rtf"
	case ".odt":
		return "application/vnd.oasis.opendocument.text"
	case ".txt":
		return mimePlain
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch name {
		case "word/document.xml":
			return mimeDOCX
		case "mimetype":
			rc, err := f.Open()
			if err != nil {
				continue
			}
			raw, _ := io.ReadAll(io.LimitReader(rc, 128))
			rc.Close()
			if strings.TrimSpace(string(raw)) == "application/vnd.oasis.opendocument.text" {
				return "application/vnd.oasis.opendocument.text"
			}
		}
	}
	return ""
}
