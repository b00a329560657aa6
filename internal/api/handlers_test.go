package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"zhaiyao/internal/config"
	"zhaiyao/internal/ingest"
	"zhaiyao/internal/media"
	"zhaiyao/internal/model"
	"zhaiyao/internal/oss"
	"zhaiyao/internal/repository"
	"zhaiyao/internal/stt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopTranscoder struct{}

func (noopTranscoder) Transcode(_ context.Context, data []byte, _ media.TranscodeParams) ([]byte, error) {
	return data, nil
}

func (noopTranscoder) Segment(_ context.Context, name string, data []byte, _ int) []media.Segment {
	return []media.Segment{{Name: name, Ordinal: 0, Data: data}}
}

type noopUploader struct{}

func (noopUploader) Put(_ context.Context, key, _ string, _ []byte) (*oss.Object, error) {
	return &oss.Object{Key: key, URL: "https://bucket.region.aliyuncs.com/" + key}, nil
}

type echoProvider struct{ text string }

func (p echoProvider) Transcribe(context.Context, media.Segment) (*stt.Result, error) {
	return &stt.Result{Text: p.text, RawResponse: `{"text":"` + p.text + `"}`}, nil
}

func (echoProvider) Name() string { return "apimart" }

func testServer(t *testing.T, cfg *config.Config) (*Server, repository.UploadRepository, *gin.Engine) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{
			APIMartKey:        "key",
			OSSRegion:         "r",
			OSSBucket:         "b",
			OSSAccessKeyID:    "id",
			OSSAccessSecret:   "secret",
			UploadMaxBytes:    50 * 1024 * 1024,
			OptimizeThreshold: 15 * 1024 * 1024,
			SegmentMinBytes:   18 * 1024 * 1024,
			SegmentSeconds:    600,
			Concurrency:       4,
			HistoryEnabled:    true,
			ChatProvider:      "openai",
		}
	}
	repo := repository.NewMemoryRepository()
	orch := ingest.New(cfg, noopTranscoder{}, noopUploader{}, echoProvider{text: "hello world"}, repo)
	s := NewServer(cfg, orch, repo)
	r := gin.New()
	s.RegisterRoutes(r)
	return s, repo, r
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func TestCreateTranscriptionMissingInput(t *testing.T) {
	_, repo, r := testServer(t, nil)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcription", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error message is empty")
	}

	// Rejected before the orchestrator: no history side effect.
	recs, _ := repo.ListByUser(context.Background(), "")
	if len(recs) != 0 {
		t.Errorf("history rows written on input validation failure: %d", len(recs))
	}
}

func TestCreateTranscriptionSuccess(t *testing.T) {
	_, repo, r := testServer(t, nil)

	body, contentType := multipartBody(t, "meeting.wav", bytes.Repeat([]byte{0x52}, 200*1024))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcription", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transcript string   `json:"transcript"`
		Vendor     string   `json:"vendor"`
		Raw        []string `json:"raw"`
		AudioURL   string   `json:"audioUrl"`
		ObjectKey  string   `json:"objectKey"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp.Transcript != "hello world" {
		t.Errorf("transcript = %q", resp.Transcript)
	}
	if resp.Vendor != "apimart" {
		t.Errorf("vendor = %q", resp.Vendor)
	}
	if !strings.HasPrefix(resp.ObjectKey, "uploads/audio/") {
		t.Errorf("objectKey = %q", resp.ObjectKey)
	}
	if resp.AudioURL == "" {
		t.Error("audioUrl is empty")
	}

	recs, _ := repo.ListByUser(context.Background(), "alice")
	if len(recs) != 1 || recs[0].Status != model.StatusCompleted {
		t.Errorf("expected one completed history row, got %+v", recs)
	}
}

func TestCreateTranscriptionUnsupportedType(t *testing.T) {
	_, _, r := testServer(t, nil)

	body, contentType := multipartBody(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcription", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscriptionHealthMissingConfig(t *testing.T) {
	cfg := &config.Config{
		UploadMaxBytes: 50 * 1024 * 1024,
		SegmentSeconds: 600,
		Concurrency:    4,
		ChatProvider:   "openai",
	}
	_, _, r := testServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcription/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		OK      bool       `json:"ok"`
		Env     LinkStatus `json:"env"`
		OSS     LinkStatus `json:"oss"`
		APIMart LinkStatus `json:"apimart"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp.OK {
		t.Error("overall ok despite missing configuration")
	}
	for name, ls := range map[string]LinkStatus{"env": resp.Env, "oss": resp.OSS, "apimart": resp.APIMart} {
		if ls.OK {
			t.Errorf("%s probe ok despite missing configuration", name)
		}
		if ls.Issue != IssueConfig {
			t.Errorf("%s issue = %q, want config", name, ls.Issue)
		}
		// Config failures short-circuit before any network call.
		if ls.Latency != 0 {
			t.Errorf("%s probe went to the network: latency %dms", name, ls.Latency)
		}
	}
}

func TestSummarizeValidation(t *testing.T) {
	_, _, r := testServer(t, nil)

	for _, body := range []string{`{}`, `{"transcript":"   "}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

// With no provider key configured the upstream call fails immediately and
// the endpoint must degrade to the local fallback, still HTTP 200.
func TestSummarizeLocalFallback(t *testing.T) {
	_, _, r := testServer(t, nil)

	var sentencesBuf strings.Builder
	for i := 0; i < 50; i++ {
		sentencesBuf.WriteString("This is a sentence about the quarterly planning meeting. ")
	}
	payload, _ := json.Marshal(map[string]string{"transcript": sentencesBuf.String()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Summary string `json:"summary"`
		Warning string `json:"warning"`
		Source  string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp.Source != "local-fallback" {
		t.Errorf("source = %q, want local-fallback", resp.Source)
	}
	if resp.Warning == "" {
		t.Error("warning is empty")
	}
	for _, heading := range []string{"## Overview", "## Key Points", "## Decisions", "## Action Items", "## Next Steps"} {
		if !strings.Contains(resp.Summary, heading) {
			t.Errorf("fallback summary missing %q", heading)
		}
	}
}

func TestSummarizeHealthUnconfiguredProvider(t *testing.T) {
	_, _, r := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summarize/health?provider=openai", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp.OK || resp.Reason == "" {
		t.Errorf("expected ok:false with reason, got %+v", resp)
	}
}

func TestSummarizeHealthUnknownProvider(t *testing.T) {
	_, _, r := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summarize/health?provider=nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if resp.OK || !strings.Contains(resp.Reason, "unknown chat provider") {
		t.Errorf("got %+v", resp)
	}
}

func TestChatValidation(t *testing.T) {
	_, _, r := testServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListHistoryScopedToUser(t *testing.T) {
	_, repo, r := testServer(t, nil)

	for _, user := range []string{"alice", "alice", "bob"} {
		if err := repo.Insert(context.Background(), &model.UploadRecord{
			UserID:   user,
			Filename: "f.mp3",
			Status:   model.StatusCompleted,
		}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcription/history", nil)
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Items []model.UploadRecord `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("got %d items, want 2", len(resp.Items))
	}
}

func TestHealthCheck(t *testing.T) {
	_, _, r := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
