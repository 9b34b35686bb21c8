package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appforge/backend/internal/metrics"
	"github.com/appforge/backend/internal/schema"
	"go.uber.org/zap"
)

type PromptResult struct {
	RawResponse      string
	ParsedData       any
	IsValid          bool
	ValidationErrors []string
}

type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// AIContentService turns a user prompt into JSON content shaped by a
// template schema.
type AIContentService struct {
	client  ChatCompleter
	model   string
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewAIContentService(client ChatCompleter, model string, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *AIContentService {
	return &AIContentService{
		client:  client,
		model:   model,
		timeout: timeout,
		metrics: m,
		log:     log,
	}
}

func buildSystemPrompt(prefix string, jsonSchema json.RawMessage) string {
	var b strings.Builder
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		b.WriteString(prefix)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON document and nothing else. ")
	b.WriteString("The document must conform to this JSON schema:\n")
	b.Write(jsonSchema)
	return b.String()
}

// ProcessTemplatePrompt asks the model for content matching jsonSchema.
// Unparseable or non-conforming output is reported through IsValid; only
// transport-level failures return an error, wrapped in ErrUpstream.
func (s *AIContentService) ProcessTemplatePrompt(ctx context.Context, prompt string, jsonSchema json.RawMessage, systemPromptPrefix string) (*PromptResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := ChatCompletionRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: buildSystemPrompt(systemPromptPrefix, jsonSchema)},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchemaFormat{
				Name:   "template_content",
				Schema: jsonSchema,
			},
		},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		s.metrics.AIRequest("error", time.Since(start))
		s.log.Error("ai completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	s.metrics.AIRequest("ok", time.Since(start))

	raw := resp.Choices[0].Message.Content
	result := &PromptResult{RawResponse: raw}

	var parsed any
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &parsed); err != nil {
		result.ValidationErrors = []string{"response is not valid JSON: " + err.Error()}
		return result, nil
	}
	result.ParsedData = parsed

	compiled, err := schema.Compile(jsonSchema)
	if err != nil {
		// templates are validated on save, so this is a stored-data problem
		s.log.Warn("template schema does not compile", zap.Error(err))
		result.ValidationErrors = []string{err.Error()}
		return result, nil
	}
	if errs := compiled.ValidateValue(parsed); len(errs) > 0 {
		result.ValidationErrors = errs
		return result, nil
	}

	result.IsValid = true
	return result, nil
}

// StripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
