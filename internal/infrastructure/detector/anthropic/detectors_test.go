package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paperledger/docpipe/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("test-key", Options{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
}

func replyBody(text string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	})
	return raw
}

func TestTextDetectorParsesModelReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		w.Write(replyBody(`{"payment_status": "paid", "confidence": 0.82, "reasoning": "stamp visible"}`))
	})
	d := NewTextDetector(client)

	result, err := d.Detect(context.Background(), domain.DetectionInput{Text: "PAID IN FULL"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if result.Status != domain.PaymentPaid {
		t.Fatalf("status = %s, want paid", result.Status)
	}
	if result.Confidence != 0.82 {
		t.Fatalf("confidence = %v, want 0.82", result.Confidence)
	}
}

func TestTextDetectorRejectsEmptyText(t *testing.T) {
	d := NewTextDetector(newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for empty text")
	}))

	if _, err := d.Detect(context.Background(), domain.DetectionInput{Text: "  "}); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestVisionDetectorRequiresImageBytes(t *testing.T) {
	d := NewVisionDetector(newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected without image bytes")
	}))

	if _, err := d.Detect(context.Background(), domain.DetectionInput{Text: "scan"}); err == nil {
		t.Fatalf("expected error without image content")
	}
}

func TestParseReplyToleratesSurroundingProse(t *testing.T) {
	raw := `Here is my assessment: {"payment_status": "UNPAID", "confidence": 0.7, "reasoning": "balance due"} hope that helps`

	result, err := parseReply(domain.DetectClaudeText, raw)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	if result.Status != domain.PaymentUnpaid {
		t.Fatalf("status = %s, want unpaid", result.Status)
	}
}

func TestParseReplyClampsAndValidates(t *testing.T) {
	result, err := parseReply(domain.DetectClaudeText,
		`{"payment_status": "definitely-paid", "confidence": 7.5, "reasoning": "x"}`)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	if result.Status != domain.PaymentUnknown {
		t.Fatalf("status = %s, want unknown for an unrecognized label", result.Status)
	}
	if result.Confidence != 1 {
		t.Fatalf("confidence = %v, want clamped to 1", result.Confidence)
	}
}

func TestParseReplyErrorsOnGarbage(t *testing.T) {
	if _, err := parseReply(domain.DetectClaudeText, "sorry, I cannot help"); err == nil {
		t.Fatalf("expected error for a reply with no JSON object")
	}
}

func TestClientSurfacesHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})
	d := NewTextDetector(client)

	if _, err := d.Detect(context.Background(), domain.DetectionInput{Text: "invoice"}); err == nil {
		t.Fatalf("expected error on 401 response")
	}
}
