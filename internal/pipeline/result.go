package pipeline

import (
	"fmt"
	"io"
)

// Upload is one file entry of a batch request. Open returns a fresh reader
// for the content; handlers adapt *multipart.FileHeader, tests feed buffers.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileResult describes one converted output file. PreviewURL is nil (JSON
// null) when the output is not previewable.
type FileResult struct {
	OriginalName  string  `json:"original_name"`
	ConvertedName string  `json:"converted_name"`
	FileID        string  `json:"file_id"`
	Size          int64   `json:"size"`
	SizeHuman     string  `json:"size_human"`
	Previewable   bool    `json:"previewable"`
	PreviewURL    *string `json:"preview_url"`
	DownloadURL   string  `json:"download_url"`
}

// FileError describes one failed input file. Code is the stable
// machine-readable kind; Message is safe to show to users.
type FileError struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"error"`
}

// BatchResult is the response of one conversion request. Results and Errors
// are ordered by the upload order of the files they came from.
// DownloadAllURL is nil (JSON null) when nothing converted successfully.
type BatchResult struct {
	SessionID      string       `json:"session_id"`
	Results        []FileResult `json:"results"`
	Errors         []FileError  `json:"errors"`
	TotalConverted int          `json:"total_converted"`
	TotalErrors    int          `json:"total_errors"`
	DownloadAllURL *string      `json:"download_all_url"`
}

var previewableExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// humanSize renders a byte count with base-1024 units and one decimal place.
func humanSize(n int64) string {
	v := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f TB", v)
}
