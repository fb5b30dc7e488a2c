package reportparser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"

	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// Compile-time check to ensure PDFDecoder implements Decoder interface
var _ interfaces.Decoder = (*PDFDecoder)(nil)

// PDFDecoder decodes the text layer of a scanned report PDF, yielding one
// plain-text string per page. Line structure is preserved: the composition
// table depends on region rows staying on their own lines.
type PDFDecoder struct{}

// NewPDFDecoder creates a new PDFDecoder instance
func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{}
}

// DecodePages reads the PDF at path and returns its per-page text in page
// order. A decode failure is the only fatal error class in the system and
// fails this document only.
func (d *PDFDecoder) DecodePages(path string) (entities.DocumentText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close report file", "path", path, "error", err)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read of %s: %w", path, err)
	}

	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("no pages in %s", path)
	}

	pages := make(entities.DocumentText, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pages = append(pages, decodePageText(ctx, pageNr))
	}

	return pages, nil
}

// decodePageText extracts the text of a single page via its content stream.
// Pages whose content cannot be read decode to the empty string rather than
// failing the document.
func decodePageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return decodeStreamText(data)
}

// decodeStreamText walks PDF content stream operators and assembles the text
// they show. Tj/TJ append to the current line; the ' operator and T* start a
// new line; Td/TD positioning inside a table row separates columns with a
// space.
func decodeStreamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, text := range streamStrings(line) {
				sb.WriteString(text)
			}

		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, text := range streamStrings(line) {
				sb.WriteByte('\n')
				sb.WriteString(text)
			}

		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}

		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return normalizePageText(sb.String())
}

// streamStrings collects the decoded PDF string literals on one content
// stream line.
func streamStrings(line []byte) []string {
	var out []string
	for i := 0; i < len(line); i++ {
		if line[i] != '(' {
			continue
		}
		end := closingParen(line, i+1)
		if end == -1 {
			break
		}
		if text := decodePDFString(line[i+1 : end]); text != "" {
			out = append(out, text)
		}
		i = end
	}
	return out
}

// closingParen finds the index of the parenthesis closing a PDF string
// literal, honouring backslash escapes.
func closingParen(line []byte, from int) int {
	for i := from; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case ')':
			return i
		}
	}
	return -1
}

// decodePDFString handles basic PDF escape sequences, including octal codes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}

		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return toUTF8(sb.String())
}

// toUTF8 re-decodes byte runs that are not valid UTF-8 as ISO-8859-1, the
// encoding the report generator emits for non-ASCII names.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}

// normalizePageText collapses runs of spaces and tabs and drops unprintable
// characters while keeping newlines, so table rows survive as single lines.
// Blank lines are dropped and every line is trimmed.
func normalizePageText(text string) string {
	var sb strings.Builder
	prevSpace := false

	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			sb.WriteByte('\n')
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace {
				sb.WriteByte(' ')
			}
			prevSpace = true
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
