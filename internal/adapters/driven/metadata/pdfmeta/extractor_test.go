package pdfmeta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

type pdfInfo struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
}

// writeTestPDF emits a minimal but structurally valid PDF with one
// content stream per page and an optional Info dictionary, computing
// the cross-reference offsets as it goes.
func writeTestPDF(t *testing.T, path string, info *pdfInfo, pages ...string) {
	t.Helper()

	var buf bytes.Buffer
	offsets := make(map[int]int)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	n := len(pages)
	fontNum := 3 + 2*n
	size := fontNum + 1
	infoNum := 0
	if info != nil {
		infoNum = fontNum + 1
		size = infoNum + 1
	}

	kids := make([]string, 0, n)
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		pageNum := 3 + 2*i
		contentNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontNum, contentNum))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	writeObj(fontNum, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	if info != nil {
		writeObj(infoNum, fmt.Sprintf("<< /Title (%s) /Author (%s) /Subject (%s) /Keywords (%s) >>",
			info.Title, info.Author, info.Subject, info.Keywords))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", size)
	if info != nil {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoNum)
	}
	trailer += " >>"
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xrefOffset)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractor_BasicAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	writeTestPDF(t, path, &pdfInfo{
		Title:    "Invoice 2025",
		Author:   "Acme Billing",
		Subject:  "March statement",
		Keywords: "invoice, billing",
	}, "Page one", "Page two")

	attrs := NewExtractor().BasicAttributes(context.Background(), path)

	assert.Equal(t, 2, attrs[driven.AttrPages])
	assert.Equal(t, "Invoice 2025", attrs[driven.AttrTitle])
	assert.Equal(t, "Acme Billing", attrs[driven.AttrAuthors])
	assert.Equal(t, "March statement", attrs[driven.AttrSubject])
	assert.Equal(t, "invoice, billing", attrs[driven.AttrKeywords])
}

func TestExtractor_BasicAttributes_NoInfoDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.pdf")
	writeTestPDF(t, path, nil, "Only page")

	attrs := NewExtractor().BasicAttributes(context.Background(), path)

	assert.Equal(t, map[string]any{driven.AttrPages: 1}, attrs)
}

func TestExtractor_TextSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	writeTestPDF(t, path, nil, "Total amount due for Widget 3000")

	sample := NewExtractor().TextSample(context.Background(), path, 4096)

	assert.Contains(t, sample, "amount due")
	assert.Contains(t, sample, "Widget 3000")
}

func TestExtractor_TextSample_BudgetStopsEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.pdf")
	writeTestPDF(t, path, nil,
		strings.TrimSpace(strings.Repeat("alpha ", 6)),
		"bravo never read")

	sample := NewExtractor().TextSample(context.Background(), path, 16)

	assert.LessOrEqual(t, len(sample), 16)
	assert.Contains(t, sample, "alpha")
	assert.NotContains(t, sample, "bravo")
}

func TestExtractor_TextSample_ZeroBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any.pdf")
	writeTestPDF(t, path, nil, "whatever")

	assert.Empty(t, NewExtractor().TextSample(context.Background(), path, 0))
}

func TestExtractor_TextSample_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any.pdf")
	writeTestPDF(t, path, nil, "whatever")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, NewExtractor().TextSample(ctx, path, 4096))
}

func TestExtractor_GarbageFileDegradesQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o644))

	e := NewExtractor()
	assert.Empty(t, e.BasicAttributes(context.Background(), path))
	assert.Empty(t, e.TextSample(context.Background(), path, 4096))
}

func TestExtractor_MissingFileDegradesQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.pdf")

	e := NewExtractor()
	assert.Empty(t, e.BasicAttributes(context.Background(), path))
	assert.Empty(t, e.TextSample(context.Background(), path, 4096))
}

func TestClipUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxBytes int
		expected string
	}{
		{name: "short string untouched", input: "abc", maxBytes: 10, expected: "abc"},
		{name: "exact fit untouched", input: "abcd", maxBytes: 4, expected: "abcd"},
		{name: "ascii cut at budget", input: "abcdef", maxBytes: 4, expected: "abcd"},
		{name: "never splits a rune", input: "héllo", maxBytes: 2, expected: "h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clipUTF8(tt.input, tt.maxBytes))
		})
	}
}
