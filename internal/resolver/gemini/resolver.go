package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/resolver"
	"github.com/jobwright/applypilot/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Resolver answers unmapped form fields with Gemini suggestions.
type Resolver struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewResolver(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Resolver {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Resolver{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Resolve builds a prompt from the field and its context and parses the
// model verdict. Responses the model marks as skip, and responses that
// cannot be parsed as a verdict, both come back as Skip.
func (r *Resolver) Resolve(ctx context.Context, req *resolver.Request) (*resolver.Answer, error) {
	profileJSON, err := json.MarshalIndent(req.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	jobJSON, err := json.MarshalIndent(req.Job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	fieldJSON, err := json.MarshalIndent(req.Field, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal field payload: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(jobJSON), string(fieldJSON))

	r.logger.Debug("gemini resolve request",
		zap.String("field", req.Field.Name),
		zap.String("label", req.Field.Label),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini resolve response",
		zap.String("field", req.Field.Name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	answer := parseResponse(raw)
	answer.Raw = raw

	if !answer.Skip && len(req.Field.Options) > 0 && !containsOption(req.Field.Options, answer.Value) {
		r.logger.Debug("suggested value not among select options; skipping",
			zap.String("field", req.Field.Name),
			zap.String("value", answer.Value),
		)
		answer.Skip = true
		answer.Value = ""
	}

	return answer, nil
}

func buildPrompt(profileJSON, jobJSON, fieldJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nJob:\n{{JOB_JSON}}\n\nField:\n{{FIELD_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{FIELD_JSON}}", fieldJSON)
	return prompt
}

func parseResponse(raw string) *resolver.Answer {
	cleaned := extractJSON(raw)

	var data struct {
		Value string `json:"value"`
		Skip  bool   `json:"skip"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		// An unparseable verdict is treated as a decline, not a failure.
		return &resolver.Answer{Skip: true}
	}

	value := strings.TrimSpace(data.Value)
	if value == "" {
		return &resolver.Answer{Skip: true}
	}

	return &resolver.Answer{Value: value, Skip: data.Skip}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if strings.EqualFold(option, value) {
			return true
		}
	}
	return false
}
