package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"zhaiyao/internal/media"
)

// APIMartProvider implements STT against the APIMart transcription endpoint
// (an OpenAI-compatible multipart API).
type APIMartProvider struct {
	apiKey     string
	url        string
	model      string
	language   string
	prompt     string
	httpClient *http.Client
}

// NewAPIMartProvider creates an APIMart STT provider. Language and prompt
// hints are optional and omitted from the request when empty.
func NewAPIMartProvider(apiKey, url, model, language, prompt string) *APIMartProvider {
	return &APIMartProvider{
		apiKey:     apiKey,
		url:        url,
		model:      model,
		language:   language,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// Name returns the provider name.
func (p *APIMartProvider) Name() string {
	return "apimart"
}

// Transcribe sends one segment as a multipart request and extracts the
// transcript from whatever response shape the provider returns.
func (p *APIMartProvider) Transcribe(ctx context.Context, seg media.Segment) (*Result, error) {
	start := time.Now()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", seg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(seg.Data); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}

	fields := map[string]string{
		"model":           p.model,
		"response_format": "json",
	}
	if p.language != "" {
		fields["language"] = p.language
	}
	if p.prompt != "" {
		fields["prompt"] = p.prompt
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	log.Printf("[APIMart STT] POST segment %d (%s, %d bytes)", seg.Ordinal, seg.Name, len(seg.Data))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to APIMart: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("APIMart returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	text, ok := ParseTranscript(respBody)
	if !ok {
		return nil, fmt.Errorf("no transcript text in APIMart response: %s", preview(respBody, 200))
	}

	log.Printf("[APIMart STT] segment %d transcribed: %d chars in %v", seg.Ordinal, len(text), time.Since(start))

	return &Result{Text: text, RawResponse: string(respBody)}, nil
}

func preview(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
