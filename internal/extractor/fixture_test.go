package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a minimal single-font PDF. Each element of pages is the
// list of text lines on that page; an empty list produces a page with no
// content stream at all.
func buildPDF(t *testing.T, pages [][]string) []byte {
	t.Helper()

	type pageObj struct {
		num     int
		content int
		stream  string
	}

	next := 4 // 1 catalog, 2 page tree, 3 font
	objs := make([]pageObj, len(pages))
	kids := make([]string, len(pages))
	for i, lines := range pages {
		objs[i].num = next
		kids[i] = fmt.Sprintf("%d 0 R", next)
		next++
		if len(lines) == 0 {
			continue
		}
		var sb strings.Builder
		sb.WriteString("BT\n/F1 12 Tf\n")
		for j, line := range lines {
			fmt.Fprintf(&sb, "1 0 0 1 72 %d Tm\n(%s) Tj\n", 720-20*j, line)
		}
		sb.WriteString("ET")
		objs[i].content = next
		objs[i].stream = sb.String()
		next++
	}

	bodies := make([]string, next)
	bodies[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	bodies[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	bodies[3] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	for _, p := range objs {
		dict := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>"
		if p.content != 0 {
			dict += fmt.Sprintf(" /Contents %d 0 R", p.content)
			bodies[p.content] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.stream), p.stream)
		}
		bodies[p.num] = dict + " >>"
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, next)
	for n := 1; n < next; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, bodies[n])
	}

	xrefAt := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", next)
	for n := 1; n < next; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", next, xrefAt)

	return buf.Bytes()
}
