package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"zhaiyao/internal/ai"
	"zhaiyao/internal/utils"
)

// SummarizeRequest is the body for POST /api/v1/summarize.
type SummarizeRequest struct {
	Transcript string `json:"transcript"`
	Prompt     string `json:"prompt"`
	Provider   string `json:"provider"`
}

// summarize handles POST /api/v1/summarize. When the upstream AI call
// fails the endpoint degrades to a deterministic local summary and still
// returns 200, flagged with a warning.
func (s *Server) summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		utils.Error(c, http.StatusBadRequest, "transcript is required")
		return
	}

	provider, err := ai.Select(s.cfg, req.Provider)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := ai.Summarize(c.Request.Context(), provider, req.Transcript, req.Prompt)
	if err != nil {
		log.Printf("[Summarize] upstream failed, using local fallback: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"summary": ai.LocalFallbackSummary(req.Transcript),
			"warning": "AI summarization unavailable: " + err.Error(),
			"source":  "local-fallback",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// summarizeHealth handles GET /api/v1/summarize/health?provider=<id>.
func (s *Server) summarizeHealth(c *gin.Context) {
	provider, err := ai.Select(s.cfg, c.Query("provider"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "reason": err.Error()})
		return
	}
	if !provider.Configured() {
		c.JSON(http.StatusOK, gin.H{"ok": false, "reason": "provider " + provider.ID + " has no API key configured"})
		return
	}

	ctx, cancel := contextWithProbeTimeout(c)
	defer cancel()

	start := time.Now()
	model, err := ai.Probe(ctx, provider)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "reason": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"latency":  time.Since(start).Milliseconds(),
		"model":    model,
		"provider": provider.ID,
		"message":  "provider reachable",
	})
}

// ChatRequest is the body for POST /api/v1/chat.
type ChatRequest struct {
	Provider          string       `json:"provider"`
	ContextTranscript string       `json:"contextTranscript"`
	Messages          []ai.Message `json:"messages"`
}

// chat handles POST /api/v1/chat.
func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		utils.Error(c, http.StatusBadRequest, "messages are required")
		return
	}

	provider, err := ai.Select(s.cfg, req.Provider)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := ai.Chat(c.Request.Context(), provider, req.ContextTranscript, req.Messages)
	if err != nil {
		log.Printf("[Chat] failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
