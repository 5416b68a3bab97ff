package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/ah-its-andy/formatwave/internal/common"
)

// newPDFToPNGFunc renders every page of a PDF to a PNG at the given DPI.
// Output files are named {stem}_page_NNN.png with 1-based zero-padded page
// numbers in document order.
func newPDFToPNGFunc(dpi int) Func {
	return func(ctx context.Context, inputPath, outputDir string) ([]string, error) {
		doc, err := fitz.New(inputPath)
		if err != nil {
			return nil, common.WrapError(common.CodeDecodeError, err, "cannot open PDF %s", filepath.Base(inputPath))
		}
		defer doc.Close()

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, common.WrapError(common.CodeEncodeError, err, "cannot create output directory")
		}

		stem := fileStem(inputPath)
		outputs := make([]string, 0, doc.NumPage())
		for n := 0; n < doc.NumPage(); n++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			img, err := doc.ImageDPI(n, float64(dpi))
			if err != nil {
				return nil, common.WrapError(common.CodeDecodeError, err, "cannot render page %d of %s", n+1, filepath.Base(inputPath))
			}

			outPath := filepath.Join(outputDir, fmt.Sprintf("%s_page_%03d.png", stem, n+1))
			if err := writeImage(outPath, img, encodePNG); err != nil {
				return nil, err
			}
			outputs = append(outputs, outPath)
		}
		return outputs, nil
	}
}
