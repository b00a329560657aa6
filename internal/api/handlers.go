package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"zhaiyao/internal/config"
	"zhaiyao/internal/ingest"
	"zhaiyao/internal/model"
	"zhaiyao/internal/repository"
	"zhaiyao/internal/utils"
)

// Server holds the wired dependencies for all HTTP handlers.
type Server struct {
	cfg  *config.Config
	orch *ingest.Orchestrator
	repo repository.UploadRepository
}

// NewServer creates the handler set. repo may be nil when history is off.
func NewServer(cfg *config.Config, orch *ingest.Orchestrator, repo repository.UploadRepository) *Server {
	return &Server{cfg: cfg, orch: orch, repo: repo}
}

// RegisterRoutes mounts all endpoints on the engine.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/transcription", s.createTranscription)
		v1.GET("/transcription/health", s.transcriptionHealth)
		v1.GET("/transcription/history", s.listHistory)
		v1.POST("/summarize", s.summarize)
		v1.GET("/summarize/health", s.summarizeHealth)
		v1.POST("/chat", s.chat)
	}
}

// healthCheck returns basic liveness.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "zhaiyao-backend"})
}

// currentUserID resolves the calling user; empty string means anonymous.
func currentUserID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// createTranscription handles POST /api/v1/transcription: multipart form
// with either a binary "file" field or a "fileUrl" string.
func (s *Server) createTranscription(c *gin.Context) {
	fileURL := c.PostForm("fileUrl")
	file, fileErr := c.FormFile("file")

	if fileErr != nil && fileURL == "" {
		utils.Error(c, http.StatusBadRequest, "either file or fileUrl is required")
		return
	}

	var src ingest.Source
	if file != nil {
		f, err := file.Open()
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "failed to open uploaded file: "+err.Error())
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
		src = ingest.Source{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
			RemoteURL:   fileURL,
		}
	} else {
		src = ingest.Source{RemoteURL: fileURL}
	}

	out, err := s.orch.Ingest(c.Request.Context(), currentUserID(c), src)
	if err != nil {
		log.Printf("[Transcription] ingestion failed: %v", err)
		if errors.Is(err, ingest.ErrInvalid) {
			utils.Error(c, http.StatusBadRequest, err.Error())
		} else {
			utils.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript": out.Transcript,
		"vendor":     out.Vendor,
		"raw":        out.Raw,
		"audioUrl":   out.AudioURL,
		"objectKey":  out.ObjectKey,
	})
}

// listHistory handles GET /api/v1/transcription/history for the calling
// user, newest first.
func (s *Server) listHistory(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}

	records, err := s.repo.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		log.Printf("[History] listing failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to retrieve history")
		return
	}
	if records == nil {
		records = []model.UploadRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}
