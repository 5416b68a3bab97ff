package convert

import (
	"context"
	"strings"
)

// Func converts one input file into one or more files in outputDir and
// returns their paths in output order. Implementations hold no state between
// invocations.
type Func func(ctx context.Context, inputPath, outputDir string) ([]string, error)

// Options tunes the builtin converters.
type Options struct {
	RenderDPI   int // rasterization resolution for paginated sources
	JPEGQuality int
	WebPQuality int
}

func (o Options) withDefaults() Options {
	if o.RenderDPI <= 0 {
		o.RenderDPI = 200
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 95
	}
	if o.WebPQuality <= 0 || o.WebPQuality > 100 {
		o.WebPQuality = 90
	}
	return o
}

type pair struct {
	from, to string
}

// synonyms maps extension spellings that select the same converter.
var synonyms = map[string]string{
	"jpg":  "jpeg",
	"jpeg": "jpg",
	"tiff": "tif",
	"tif":  "tiff",
}

// Registry maps format pairs to converter functions. It is populated once at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	funcs map[pair]Func
	specs []Spec
	byID  map[string]Spec
}

func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()

	toPNG := func(dec decodeFunc, orient bool) Func {
		return newImageFunc(dec, encodePNG, ".png", true, orient)
	}

	r := &Registry{
		funcs: map[pair]Func{
			{"pdf", "png"}:  newPDFToPNGFunc(opts.RenderDPI),
			{"webp", "png"}: toPNG(decodeWebP, false),
			{"png", "webp"}: newImageFunc(decodePNG, encodeWebP(opts.WebPQuality), ".webp", true, false),
			{"png", "jpg"}:  newImageFunc(decodePNG, encodeJPEG(opts.JPEGQuality), ".jpg", false, false),
			{"jpg", "png"}:  toPNG(decodeJPEG, true),
			{"jpeg", "png"}: toPNG(decodeJPEG, true),
			{"bmp", "png"}:  toPNG(decodeBMP, false),
			{"tiff", "png"}: toPNG(decodeTIFF, false),
			{"tif", "png"}:  toPNG(decodeTIFF, false),
		},
		specs: builtinSpecs(),
		byID:  make(map[string]Spec),
	}
	for _, s := range r.specs {
		r.byID[s.ID] = s
	}
	return r
}

// Lookup resolves a converter for the format pair, trying synonym spellings
// of the source format before reporting a miss.
func (r *Registry) Lookup(from, to string) (Func, bool) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)
	if fn, ok := r.funcs[pair{from, to}]; ok {
		return fn, true
	}
	if alt, ok := synonyms[from]; ok {
		if fn, ok := r.funcs[pair{alt, to}]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Describe returns the metadata for a conversion id.
func (r *Registry) Describe(id string) (Spec, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Specs returns all conversion types in display order.
func (r *Registry) Specs() []Spec { return r.specs }

// AcceptedExtensions returns the source-extension allowlist for a conversion
// id, or nil when the id is unknown.
func (r *Registry) AcceptedExtensions(id string) []string {
	if s, ok := r.byID[id]; ok {
		return s.FromExt
	}
	return nil
}
