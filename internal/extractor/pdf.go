package extractor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a PDF file and returns the text content of each page.
func ExtractText(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	return ExtractBytes(data)
}

// ExtractBytes returns the text of each page of an in-memory PDF, in page
// order. A page without a text layer comes back as "". If the structured
// library cannot produce readable text, the external pdftotext command
// (poppler-utils) is tried. A document the library opened but that holds no
// readable text is not an error; it simply yields empty pages.
func ExtractBytes(data []byte) ([]string, error) {
	pages, libErr := extractWithLibrary(data)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(data)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %v. The file may not be a valid PDF or may be image-based/scanned", libErr)
	}
	return pages, nil
}

// textQuality returns the ratio of readable characters (ASCII letters and
// digits, whitespace, common punctuation, currency glyphs) to all characters.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"₹$%&@#!?+=*|_", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear on virtually every PhonePe statement page.
var commonWords = []string{
	"transaction", "statement", "credit", "debit", "paid to", "received from",
	"amount", "date", "utr", "phonepe", "type",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires >50 chars, >60% readable characters and at least
// one word expected on a statement.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// pageReader is one way of pulling per-page text out of an open document.
// Every reader returns exactly numPages entries, "" for a page it could not
// decode, so page positions survive whichever reader wins.
type pageReader func(r *pdf.Reader, numPages int) []string

// pageReaders are tried in order. GetTextByRow keeps the statement's row
// layout best; the later ones exist for PDFs whose fonts or content
// streams the row walker handles poorly.
var pageReaders = []pageReader{
	extractByRow,
	extractByContent,
	extractByPagePlainText,
}

// extractWithLibrary opens data with ledongthuc/pdf and returns the output of
// the first reader that produces readable statement text. If none does, the
// row reader's output is returned as-is (possibly all blank) so a valid but
// text-less document is not reported as an error. The library panics on some
// malformed inputs; that is turned into an error.
func extractWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, openErr
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	for i, read := range pageReaders {
		got := read(r, numPages)
		if i == 0 {
			pages = got
		}
		if isReadableText(got) {
			return got, nil
		}
	}

	// Last resort: the reader-level decoder sees the whole document as one
	// stream, so boundaries are lost and the result counts as a single page.
	if whole := extractByReaderPlainText(r); isReadableText([]string{whole}) {
		return []string{whole}, nil
	}

	return pages, nil
}

// extractByRow uses the library's row grouping (text sharing a baseline) and
// joins the words of each row with single spaces, one row per output line.
// Rows come back top to bottom.
func extractByRow(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		var lines []string
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent works from the raw positioned glyph runs of Page.Content.
// Runs are bucketed by rounded Y to rebuild rows and each row is ordered by
// X. A horizontal jump wider than gapWidth between consecutive runs becomes a
// space; smaller gaps are treated as the same word.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range page.Content().Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y grows upwards, so the top row has the largest key.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var sb strings.Builder
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > gapWidth {
					sb.WriteString(" ")
				}
				sb.WriteString(item.s)
				prevX = item.x
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// gapWidth is the X distance, in text space units, above which two runs on the
// same row are separated by a space.
const gapWidth = 15

// extractByPagePlainText decodes each page's content stream with that page's
// own font resources. It ignores positions entirely, so it survives layouts
// that confuse the row readers but may run columns together.
func extractByPagePlainText(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages
}

// extractByReaderPlainText asks the reader for the plain text of the whole
// document. Page boundaries are lost; any failure yields "".
func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext runs poppler's pdftotext for documents the Go library
// cannot read. pdftotext needs a path, so data is written to a temp file that
// is removed before returning. Pages are extracted one at a time (-f/-l) to
// keep boundaries; the page count comes from pdfinfo, and if that is missing
// the document is read as a single page. A run where every page is empty is
// an error so the caller falls back to the library result.
func extractWithPdftotext(data []byte) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	numPages := pdfinfoPageCount(tmp.Name())
	if numPages == 0 { // pdfinfo absent or unreadable output
		numPages = 1
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		// -layout keeps columns apart; "-" writes to stdout.
		out, err := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, tmp.Name(), "-").Output()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(string(out)))
	}

	if totalTextLen(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pdfinfoPageCount reads the "Pages:" line of pdfinfo's report. It returns 0
// when pdfinfo is not installed, fails on the file, or prints no usable count.
func pdfinfoPageCount(filePath string) int {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// totalTextLen counts bytes of text across pages, ignoring surrounding whitespace.
func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
