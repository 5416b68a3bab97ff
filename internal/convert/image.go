package convert

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"github.com/ah-its-andy/formatwave/internal/common"
)

type decodeFunc func(r io.Reader) (image.Image, error)
type encodeFunc func(w io.Writer, img image.Image) error

func decodePNG(r io.Reader) (image.Image, error)  { return png.Decode(r) }
func decodeJPEG(r io.Reader) (image.Image, error) { return jpeg.Decode(r) }
func decodeBMP(r io.Reader) (image.Image, error)  { return bmp.Decode(r) }
func decodeTIFF(r io.Reader) (image.Image, error) { return tiff.Decode(r) }
func decodeWebP(r io.Reader) (image.Image, error) { return xwebp.Decode(r) }

func encodePNG(w io.Writer, img image.Image) error { return png.Encode(w, img) }

func encodeJPEG(quality int) encodeFunc {
	return func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
}

func encodeWebP(quality int) encodeFunc {
	return func(w io.Writer, img image.Image) error {
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	}
}

// newImageFunc builds a single-output image converter. alphaTarget selects
// the transparency policy: targets without alpha support get sources
// flattened over white, targets with alpha keep a four-channel representation
// whenever the source carries any transparency. fixOrientation applies the
// source's EXIF orientation before encoding.
func newImageFunc(dec decodeFunc, enc encodeFunc, targetExt string, alphaTarget, fixOrientation bool) Func {
	return func(ctx context.Context, inputPath, outputDir string) ([]string, error) {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, common.WrapError(common.CodeDecodeError, err, "cannot read %s", filepath.Base(inputPath))
		}

		img, err := dec(bytes.NewReader(data))
		if err != nil {
			return nil, common.WrapError(common.CodeDecodeError, err, "cannot decode %s", filepath.Base(inputPath))
		}

		if fixOrientation {
			img = applyOrientation(img, readOrientation(bytes.NewReader(data)))
		}

		if alphaTarget {
			img = normalizeAlpha(img)
		} else {
			img = flattenOverWhite(img)
		}

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, common.WrapError(common.CodeEncodeError, err, "cannot create output directory")
		}

		outPath := filepath.Join(outputDir, fileStem(inputPath)+targetExt)
		if err := writeImage(outPath, img, enc); err != nil {
			return nil, err
		}
		return []string{outPath}, nil
	}
}

func writeImage(path string, img image.Image, enc encodeFunc) error {
	f, err := os.Create(path)
	if err != nil {
		return common.WrapError(common.CodeEncodeError, err, "cannot create %s", filepath.Base(path))
	}
	if err := enc(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return common.WrapError(common.CodeEncodeError, err, "cannot encode %s", filepath.Base(path))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return common.WrapError(common.CodeEncodeError, err, "cannot write %s", filepath.Base(path))
	}
	return nil
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// flattenOverWhite composites a transparent source over a solid white
// background; opaque sources pass through unchanged.
func flattenOverWhite(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// normalizeAlpha keeps transparency by moving any non-opaque source (direct
// alpha or paletted with a transparency index) into a four-channel image;
// opaque sources pass through unchanged.
func normalizeAlpha(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	if _, ok := img.(*image.NRGBA); ok {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
