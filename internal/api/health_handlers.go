package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 5 * time.Second

// Issue categories for a failed link probe.
const (
	IssueCode    = "code"
	IssueConfig  = "config"
	IssueService = "service"
	IssueNetwork = "network"
)

// LinkStatus is the outcome of one connectivity probe.
type LinkStatus struct {
	OK      bool   `json:"ok"`
	Latency int64  `json:"latency,omitempty"` // milliseconds
	Reason  string `json:"reason,omitempty"`
	Issue   string `json:"issue,omitempty"`
}

func contextWithProbeTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), probeTimeout)
}

// transcriptionHealth handles GET /api/v1/transcription/health: one probe
// per external dependency of the ingestion pipeline. Configuration problems
// short-circuit before any network call.
func (s *Server) transcriptionHealth(c *gin.Context) {
	ctx := c.Request.Context()

	env := s.probeEnv()
	ossStatus := s.probeOSS(ctx)
	apimart := s.probeAPIMart(ctx)

	c.JSON(http.StatusOK, gin.H{
		"ok":        env.OK && ossStatus.OK && apimart.OK,
		"env":       env,
		"oss":       ossStatus,
		"apimart":   apimart,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) probeEnv() LinkStatus {
	if err := s.cfg.CheckIngest(); err != nil {
		return LinkStatus{OK: false, Reason: err.Error(), Issue: IssueConfig}
	}
	return LinkStatus{OK: true}
}

// probeOSS checks the bucket endpoint is reachable. Auth-level rejections
// still prove the link works; only transport failures and 5xx count against
// it.
func (s *Server) probeOSS(ctx context.Context) LinkStatus {
	if s.cfg.OSSRegion == "" || s.cfg.OSSBucket == "" || s.cfg.OSSAccessKeyID == "" || s.cfg.OSSAccessSecret == "" {
		return LinkStatus{OK: false, Reason: "object storage credentials not configured", Issue: IssueConfig}
	}
	endpoint := fmt.Sprintf("https://%s.%s.aliyuncs.com/", s.cfg.OSSBucket, s.cfg.OSSRegion)
	return probeURL(ctx, http.MethodHead, endpoint, nil)
}

func (s *Server) probeAPIMart(ctx context.Context) LinkStatus {
	if s.cfg.APIMartKey == "" {
		return LinkStatus{OK: false, Reason: "APIMART_API_KEY not configured", Issue: IssueConfig}
	}
	headers := map[string]string{"Authorization": "Bearer " + s.cfg.APIMartKey}
	return probeURL(ctx, http.MethodGet, s.cfg.APIMartSTTURL, headers)
}

// probeURL issues one bounded request and classifies the outcome. Any HTTP
// response below 500 means the link itself is usable, except 401/403 which
// indicate a credential problem.
func probeURL(ctx context.Context, method, rawURL string, headers map[string]string) LinkStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return LinkStatus{OK: false, Reason: err.Error(), Issue: IssueConfig}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return LinkStatus{OK: false, Latency: latency, Reason: err.Error(), Issue: IssueNetwork}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return LinkStatus{OK: false, Latency: latency, Reason: fmt.Sprintf("authorization rejected with status %d", resp.StatusCode), Issue: IssueCode}
	case resp.StatusCode >= 500:
		return LinkStatus{OK: false, Latency: latency, Reason: fmt.Sprintf("upstream returned status %d", resp.StatusCode), Issue: IssueService}
	default:
		return LinkStatus{OK: true, Latency: latency}
	}
}
