package convert

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ah-its-andy/formatwave/internal/common"
)

// makePDF assembles a minimal valid PDF with the given number of blank
// 72x36pt pages, with a correct xref table.
func makePDF(t *testing.T, dir string, pages int) string {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 72 36] >>\nendobj\n", 3+i))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)

	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFToPNGPagination(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{RenderDPI: 72})
	fn, ok := r.Lookup("pdf", "png")
	require.True(t, ok)

	in := makePDF(t, dir, 3)
	outDir := filepath.Join(dir, "out")
	outputs, err := fn(context.Background(), in, outDir)
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	for i, out := range outputs {
		assert.Equal(t, fmt.Sprintf("doc_page_%03d.png", i+1), filepath.Base(out))
		f, err := os.Open(out)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		// 72x36pt page at 72 DPI.
		assert.Equal(t, 72, img.Bounds().Dx())
		assert.Equal(t, 36, img.Bounds().Dy())
	}
}

func TestPDFToPNGRenderDPI(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{RenderDPI: 144})
	fn, _ := r.Lookup("pdf", "png")

	outputs, err := fn(context.Background(), makePDF(t, dir, 1), dir)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	f, err := os.Open(outputs[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// Raster dimensions scale with DPI/72.
	assert.Equal(t, 144, img.Bounds().Dx())
	assert.Equal(t, 72, img.Bounds().Dy())
}

func TestPDFToPNGInvalidFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Options{})
	fn, _ := r.Lookup("pdf", "png")

	in := writeTestFile(t, dir, "fake.pdf", []byte("not a pdf at all"))
	_, err := fn(context.Background(), in, dir)
	require.Error(t, err)
	assert.Equal(t, common.CodeDecodeError, common.CodeOf(err))
}
