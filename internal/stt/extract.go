package stt

import (
	"encoding/json"
	"strings"
)

// Speech providers behind the same endpoint disagree on response shape, so
// transcript extraction is an ordered list of strategies over the decoded
// JSON value, stopping at the first non-empty match.

type extractStrategy struct {
	name string
	fn   func(v any) (string, bool)
}

var extractStrategies = []extractStrategy{
	{"plain-string", extractPlainString},
	{"text-field", fieldPath("text")},
	{"transcription-field", fieldPath("transcription")},
	{"result-field", fieldPath("result")},
	{"data-text", fieldPath("data", "text")},
	{"data-transcription", fieldPath("data", "transcription")},
	{"data-result", fieldPath("data", "result")},
	{"chat-completion", extractChatCompletion},
	{"segment-array", extractSegmentArray},
}

// ExtractText applies the extraction strategies in order against a decoded
// JSON value. It is a pure function so each shape stays testable in
// isolation.
func ExtractText(v any) (string, bool) {
	for _, s := range extractStrategies {
		if text, ok := s.fn(v); ok {
			return text, true
		}
	}
	return "", false
}

// ParseTranscript extracts the transcript text from a raw provider response
// body. A body that is not JSON at all is treated as plain text.
func ParseTranscript(body []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		text := strings.TrimSpace(string(body))
		return text, text != ""
	}
	return ExtractText(v)
}

func extractPlainString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// fieldPath returns a strategy reading a nested string field, e.g.
// fieldPath("data", "text") matches {"data": {"text": "..."}}.
func fieldPath(path ...string) func(v any) (string, bool) {
	return func(v any) (string, bool) {
		cur := v
		for _, key := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			cur, ok = m[key]
			if !ok {
				return "", false
			}
		}
		return extractPlainString(cur)
	}
}

// extractChatCompletion matches choices[0].message.content.
func extractChatCompletion(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	return extractPlainString(message["content"])
}

// extractSegmentArray matches segments[].text or segments[].content, joined
// by newline.
func extractSegmentArray(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	segments, ok := m["segments"].([]any)
	if !ok || len(segments) == 0 {
		return "", false
	}

	var parts []string
	for _, s := range segments {
		seg, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := extractPlainString(seg["text"]); ok {
			parts = append(parts, text)
			continue
		}
		if text, ok := extractPlainString(seg["content"]); ok {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}
