package convert

// Spec describes one supported conversion type. The JSON shape is what
// /api/conversions returns and what the frontend renders.
type Spec struct {
	ID          string   `json:"id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	FromExt     []string `json:"from_ext"`
	ToExt       string   `json:"to_ext"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
}

func builtinSpecs() []Spec {
	return []Spec{
		{ID: "pdf-to-png", From: "PDF", To: "PNG", FromExt: []string{"pdf"}, ToExt: "png", Icon: "📄", Description: "Convert PDF pages to PNG images"},
		{ID: "webp-to-png", From: "WebP", To: "PNG", FromExt: []string{"webp"}, ToExt: "png", Icon: "🖼️", Description: "Convert WebP images to PNG format"},
		{ID: "png-to-webp", From: "PNG", To: "WebP", FromExt: []string{"png"}, ToExt: "webp", Icon: "🔄", Description: "Convert PNG images to WebP format"},
		{ID: "png-to-jpg", From: "PNG", To: "JPG", FromExt: []string{"png"}, ToExt: "jpg", Icon: "🎨", Description: "Convert PNG images to JPG format"},
		{ID: "jpg-to-png", From: "JPG", To: "PNG", FromExt: []string{"jpg", "jpeg"}, ToExt: "png", Icon: "✨", Description: "Convert JPG images to PNG format"},
		{ID: "bmp-to-png", From: "BMP", To: "PNG", FromExt: []string{"bmp"}, ToExt: "png", Icon: "🗺️", Description: "Convert BMP images to PNG format"},
		{ID: "tiff-to-png", From: "TIFF", To: "PNG", FromExt: []string{"tiff", "tif"}, ToExt: "png", Icon: "📷", Description: "Convert TIFF images to PNG format"},
	}
}
