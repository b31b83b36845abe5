package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paperledger/docpipe/internal/core/domain"
)

const paymentPrompt = `You are reviewing a scanned business document (invoice, bill, or receipt).
Decide whether it has been paid. Respond with a single JSON object:
{"payment_status": "paid"|"unpaid"|"partial"|"void"|"unknown", "confidence": 0.0-1.0, "reasoning": "<one sentence>"}`

type detectorReply struct {
	PaymentStatus string  `json:"payment_status"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

// TextDetector asks the model to judge payment status from extracted text.
type TextDetector struct {
	client *Client
}

func NewTextDetector(client *Client) *TextDetector {
	return &TextDetector{client: client}
}

func (d *TextDetector) Method() domain.DetectionMethod {
	return domain.DetectClaudeText
}

func (d *TextDetector) Detect(ctx context.Context, input domain.DetectionInput) (domain.MethodResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return domain.MethodResult{}, fmt.Errorf("claude_text: empty document text")
	}
	if len(text) > 8000 {
		text = text[:8000]
	}

	reply, err := d.client.complete(ctx, "claude_text", []contentBlock{
		{Type: "text", Text: paymentPrompt + "\n\nDocument text:\n" + text},
	})
	if err != nil {
		return domain.MethodResult{}, err
	}
	return parseReply(domain.DetectClaudeText, reply)
}

// VisionDetector sends the scanned image itself, preprocessed for size.
type VisionDetector struct {
	client *Client
}

func NewVisionDetector(client *Client) *VisionDetector {
	return &VisionDetector{client: client}
}

func (d *VisionDetector) Method() domain.DetectionMethod {
	return domain.DetectClaudeVision
}

func (d *VisionDetector) Detect(ctx context.Context, input domain.DetectionInput) (domain.MethodResult, error) {
	if len(input.ImageBytes) == 0 {
		return domain.MethodResult{}, fmt.Errorf("claude_vision: no image content")
	}

	data, mediaType := prepareImage(input.ImageBytes, input.ImageMediaType)
	reply, err := d.client.complete(ctx, "claude_vision", []contentBlock{
		{Type: "image", Source: &imageSource{
			Type:      "base64",
			MediaType: mediaType,
			Data:      base64.StdEncoding.EncodeToString(data),
		}},
		{Type: "text", Text: paymentPrompt},
	})
	if err != nil {
		return domain.MethodResult{}, err
	}
	return parseReply(domain.DetectClaudeVision, reply)
}

func parseReply(method domain.DetectionMethod, raw string) (domain.MethodResult, error) {
	var reply detectorReply
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &reply); err != nil {
		return domain.MethodResult{}, fmt.Errorf("parse %s reply: %w", method, err)
	}

	status := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(reply.PaymentStatus)))
	switch status {
	case domain.PaymentPaid, domain.PaymentUnpaid, domain.PaymentPartial, domain.PaymentVoid, domain.PaymentUnknown:
	default:
		status = domain.PaymentUnknown
	}

	confidence := reply.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.MethodResult{
		Method:     method,
		Status:     status,
		Confidence: confidence,
		Reasoning:  reply.Reasoning,
		Details:    map[string]any{"model_reply": true},
	}, nil
}
