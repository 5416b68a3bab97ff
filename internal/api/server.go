package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ah-its-andy/formatwave/internal/archive"
	"github.com/ah-its-andy/formatwave/internal/common"
	"github.com/ah-its-andy/formatwave/internal/config"
	"github.com/ah-its-andy/formatwave/internal/convert"
	"github.com/ah-its-andy/formatwave/internal/pipeline"
	"github.com/ah-its-andy/formatwave/internal/session"
)

type Server struct {
	Router   *gin.Engine
	cfg      *config.Config
	registry *convert.Registry
	pipe     *pipeline.Pipeline
	store    *session.Store
	archiver *archive.Builder
	log      *zap.SugaredLogger

	startedAt      time.Time
	batchesServed  atomic.Int64
	filesConverted atomic.Int64
}

func NewServer(cfg *config.Config, registry *convert.Registry, pipe *pipeline.Pipeline, store *session.Store, archiver *archive.Builder, log *zap.SugaredLogger) *Server {
	g := gin.Default()
	s := &Server{
		Router:    g,
		cfg:       cfg,
		registry:  registry,
		pipe:      pipe,
		store:     store,
		archiver:  archiver,
		log:       log,
		startedAt: time.Now(),
	}

	g.Static("/static", cfg.StaticDir)
	g.GET("/", func(c *gin.Context) { c.File(filepath.Join(cfg.StaticDir, "index.html")) })

	api := g.Group("/api")
	api.GET("/conversions", s.listConversions)
	api.POST("/convert", s.convertBatch)
	api.GET("/preview/:session/:filename", s.preview)
	api.GET("/download/:session/:filename", s.download)
	api.GET("/download-all/:session", s.downloadAll)
	api.GET("/stats", s.stats)

	return s
}

func (s *Server) listConversions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"conversions": s.registry.Specs()})
}

func (s *Server) convertBatch(c *gin.Context) {
	// Bound the whole request before anything is spilled to disk: a batch can
	// never legitimately exceed maxFileSize * maxFilesPerBatch.
	maxBody := s.cfg.MaxFileSize * int64(s.cfg.MaxFilesPerBatch)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	form, err := c.MultipartForm()
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
				"code":  common.CodeInvalidRequest,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid multipart body",
			"code":  common.CodeInvalidRequest,
		})
		return
	}

	conversionID := ""
	if v := form.Value["conversion_id"]; len(v) > 0 {
		conversionID = v[0]
	}
	if conversionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing conversion_id parameter",
			"code":  common.CodeInvalidRequest,
		})
		return
	}

	headers := form.File["files"]
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, pipeline.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	result, err := s.pipe.Convert(c.Request.Context(), conversionID, uploads)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.batchesServed.Add(1)
	s.filesConverted.Add(int64(result.TotalConverted))
	c.JSON(http.StatusOK, result)
}

func (s *Server) preview(c *gin.Context) {
	path, err := s.store.ResolveOutputFile(c.Param("session"), c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}

func (s *Server) download(c *gin.Context) {
	name := c.Param("filename")
	path, err := s.store.ResolveOutputFile(c.Param("session"), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) downloadAll(c *gin.Context) {
	zipPath, err := s.archiver.Build(c.Param("session"))
	if err != nil {
		if common.CodeOf(err) == common.CodeSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		s.log.Errorw("archive build failed", "session", c.Param("session"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create archive",
			"code":  common.CodeArchiveError,
		})
		return
	}
	c.FileAttachment(zipPath, filepath.Base(zipPath))
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":  int64(time.Since(s.startedAt).Seconds()),
		"conversions":     len(s.registry.Specs()),
		"batches_served":  s.batchesServed.Load(),
		"files_converted": s.filesConverted.Load(),
	})
}

// writeError maps batch-level pipeline errors to HTTP statuses. Anything
// without a known code is an internal failure and stays opaque to the
// client.
func (s *Server) writeError(c *gin.Context, err error) {
	code := common.CodeOf(err)
	switch code {
	case common.CodeInvalidRequest, common.CodeUnsupportedConversion,
		common.CodeTooManyFiles, common.CodeEmptyBatch:
		msg := "bad request"
		var ce *common.Error
		if errors.As(err, &ce) {
			msg = ce.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": code})
	default:
		s.log.Errorw("batch conversion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
