package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ah-its-andy/formatwave/internal/common"
	"github.com/ah-its-andy/formatwave/internal/convert"
	"github.com/ah-its-andy/formatwave/internal/session"
)

// Pipeline validates a batch of uploads, runs the matching converter on each
// file, and aggregates the outcome. Batch-level failures abort before any
// file is touched; per-file failures never abort sibling files.
type Pipeline struct {
	registry    *convert.Registry
	store       *session.Store
	maxFileSize int64
	maxFiles    int
	workers     int
	log         *zap.SugaredLogger
}

func New(registry *convert.Registry, store *session.Store, maxFileSize int64, maxFiles, workers int, log *zap.SugaredLogger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		registry:    registry,
		store:       store,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
		workers:     workers,
		log:         log,
	}
}

// Convert runs one batch. Validation failures return a batch-level
// *common.Error before any file is processed; per-file failures land in the
// result's error list instead.
func (p *Pipeline) Convert(ctx context.Context, conversionID string, uploads []Upload) (*BatchResult, error) {
	from, to, err := parseConversionID(conversionID)
	if err != nil {
		return nil, err
	}

	conv, ok := p.registry.Lookup(from, to)
	if !ok {
		return nil, common.NewError(common.CodeUnsupportedConversion, "unsupported conversion: %s to %s", from, to)
	}

	nonEmpty := 0
	for _, up := range uploads {
		if up.Name != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, common.NewError(common.CodeEmptyBatch, "no files uploaded")
	}
	if len(uploads) > p.maxFiles {
		return nil, common.NewError(common.CodeTooManyFiles, "too many files, maximum %d files per batch", p.maxFiles)
	}

	sess, err := p.store.Create()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accepted := p.registry.AcceptedExtensions(conversionID)

	// Files are converted with bounded parallelism; each upload index owns a
	// slot so aggregation below preserves upload order regardless of
	// completion order.
	type task struct {
		idx int
		up  Upload
	}
	resSlots := make([][]FileResult, len(uploads))
	errSlots := make([]*FileError, len(uploads))

	jobs := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < min(p.workers, nonEmpty); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				resSlots[t.idx], errSlots[t.idx] = p.processFile(ctx, sess, conv, accepted, t.up)
			}
		}()
	}
	for i, up := range uploads {
		if up.Name == "" {
			continue
		}
		jobs <- task{idx: i, up: up}
	}
	close(jobs)
	wg.Wait()

	result := &BatchResult{
		SessionID: sess.ID,
		Results:   make([]FileResult, 0, nonEmpty),
		Errors:    make([]FileError, 0),
	}
	for i := range uploads {
		result.Results = append(result.Results, resSlots[i]...)
		if errSlots[i] != nil {
			result.Errors = append(result.Errors, *errSlots[i])
		}
	}
	result.TotalConverted = len(result.Results)
	result.TotalErrors = len(result.Errors)
	if result.TotalConverted > 0 {
		u := "/api/download-all/" + sess.ID
		result.DownloadAllURL = &u
	}

	p.log.Infow("batch converted",
		"session", sess.ID,
		"conversion", conversionID,
		"converted", result.TotalConverted,
		"errors", result.TotalErrors)
	return result, nil
}

func parseConversionID(id string) (from, to string, err error) {
	parts := strings.Split(id, "-to-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", common.NewError(common.CodeInvalidRequest, "invalid conversion id: %s", id)
	}
	return strings.ToLower(parts[0]), strings.ToLower(parts[1]), nil
}

// processFile handles one upload end to end: extension check, persist, size
// check, convert, result construction. A nil FileError means success.
func (p *Pipeline) processFile(ctx context.Context, sess session.Session, conv convert.Func, accepted []string, up Upload) ([]FileResult, *FileError) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Name), "."))
	if len(accepted) > 0 && !contains(accepted, ext) {
		return nil, &FileError{
			Filename: up.Name,
			Code:     common.CodeInvalidExtension,
			Message:  fmt.Sprintf("invalid file type '.%s', expected: %s", ext, strings.Join(accepted, ", ")),
		}
	}

	uploadPath, err := p.saveUpload(sess, up)
	if err != nil {
		return nil, p.fileError(up.Name, err)
	}

	fi, err := os.Stat(uploadPath)
	if err != nil {
		return nil, p.fileError(up.Name, common.WrapError(common.CodeEncodeError, err, "cannot stat uploaded file"))
	}
	if fi.Size() > p.maxFileSize {
		os.Remove(uploadPath)
		return nil, &FileError{
			Filename: up.Name,
			Code:     common.CodeFileTooLarge,
			Message:  fmt.Sprintf("file too large, maximum size: %dMB", p.maxFileSize/(1024*1024)),
		}
	}

	outputs, err := conv(ctx, uploadPath, sess.OutputDir)
	if err != nil {
		p.log.Warnw("conversion failed", "session", sess.ID, "file", up.Name, "error", err)
		return nil, p.fileError(up.Name, err)
	}

	results := make([]FileResult, 0, len(outputs))
	for _, outPath := range outputs {
		ofi, err := os.Stat(outPath)
		if err != nil {
			return results, p.fileError(up.Name, common.WrapError(common.CodeEncodeError, err, "cannot stat output file"))
		}
		outName := filepath.Base(outPath)
		outExt := strings.ToLower(filepath.Ext(outPath))
		r := FileResult{
			OriginalName:  up.Name,
			ConvertedName: displayName(outName, up.Name),
			FileID:        outName,
			Size:          ofi.Size(),
			SizeHuman:     humanSize(ofi.Size()),
			Previewable:   previewableExts[outExt],
			DownloadURL:   "/api/download/" + sess.ID + "/" + outName,
		}
		if r.Previewable {
			u := "/api/preview/" + sess.ID + "/" + outName
			r.PreviewURL = &u
		}
		results = append(results, r)
	}
	return results, nil
}

// saveUpload persists the content under a collision-resistant name so that
// duplicate original filenames within one batch cannot clobber each other.
func (p *Pipeline) saveUpload(sess session.Session, up Upload) (string, error) {
	src, err := up.Open()
	if err != nil {
		return "", common.WrapError(common.CodeDecodeError, err, "cannot read upload")
	}
	defer src.Close()

	stored := uploadPrefix() + "_" + filepath.Base(up.Name)
	path := filepath.Join(sess.UploadDir, stored)
	dst, err := os.Create(path)
	if err != nil {
		return "", common.WrapError(common.CodeEncodeError, err, "cannot save upload")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", common.WrapError(common.CodeEncodeError, err, "cannot save upload")
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", common.WrapError(common.CodeEncodeError, err, "cannot save upload")
	}
	return path, nil
}

// uploadPrefix is the short random disambiguation prefix prepended to stored
// upload names and later stripped from display names.
func uploadPrefix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// displayName derives the user-facing name of an output file by stripping
// the disambiguation prefix from its stem. Page-number suffixes of paginated
// outputs survive because only the first underscore-delimited segment goes.
func displayName(outName, originalName string) string {
	ext := filepath.Ext(outName)
	stem := strings.TrimSuffix(outName, ext)
	if i := strings.Index(stem, "_"); i >= 0 {
		return stem[i+1:] + ext
	}
	origStem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	return origStem + ext
}

func (p *Pipeline) fileError(filename string, err error) *FileError {
	code := common.CodeDecodeError
	msg := "conversion failed"
	var ce *common.Error
	if errors.As(err, &ce) {
		code = ce.Code
		msg = ce.Message
	}
	return &FileError{Filename: filename, Code: code, Message: msg}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
