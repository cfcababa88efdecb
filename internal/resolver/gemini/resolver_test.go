package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func request(field browser.FormField) *resolver.Request {
	return &resolver.Request{
		Field:   field,
		Job:     &model.JobCandidate{ID: "j1", Title: "Backend Engineer", Company: "Acme"},
		Profile: &model.Profile{UserID: "u1", FullName: "Jane Doe", Email: "jane@example.com"},
	}
}

func TestResolveParsesPlainJSON(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{"value": "https://github.com/janedoe", "skip": false}`}
	r := NewResolver(gen, zap.NewNop(), 0)

	answer, err := r.Resolve(context.Background(), request(browser.FormField{Name: "github", Label: "GitHub profile"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Skip {
		t.Fatal("expected answer, got skip")
	}
	if answer.Value != "https://github.com/janedoe" {
		t.Fatalf("unexpected value: %q", answer.Value)
	}
}

func TestResolveStripsMarkdownFences(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: "```json\n{\"value\": \"Remote\", \"skip\": false}\n```"}
	r := NewResolver(gen, zap.NewNop(), 0)

	answer, err := r.Resolve(context.Background(), request(browser.FormField{Name: "location"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Value != "Remote" {
		t.Fatalf("unexpected value: %q", answer.Value)
	}
}

func TestResolveSkipVerdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{name: "explicit skip", response: `{"value": "", "skip": true}`},
		{name: "empty value", response: `{"value": "", "skip": false}`},
		{name: "unparseable", response: "I'm sorry, I cannot help with that."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := &fakeGenerator{response: tt.response}
			r := NewResolver(gen, zap.NewNop(), 0)

			answer, err := r.Resolve(context.Background(), request(browser.FormField{Name: "salary"}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !answer.Skip {
				t.Fatalf("expected skip for response %q", tt.response)
			}
		})
	}
}

func TestResolveRejectsValueOutsideSelectOptions(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{"value": "Maybe", "skip": false}`}
	r := NewResolver(gen, zap.NewNop(), 0)

	field := browser.FormField{Name: "sponsorship", Kind: "select", Options: []string{"Yes", "No"}}
	answer, err := r.Resolve(context.Background(), request(field))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answer.Skip {
		t.Fatal("expected skip when value is not a listed option")
	}
}

func TestResolvePropagatesGeneratorErrors(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("quota exhausted")}
	r := NewResolver(gen, zap.NewNop(), 0)

	if _, err := r.Resolve(context.Background(), request(browser.FormField{Name: "x"})); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolvePromptIncludesContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{"value": "ok", "skip": false}`}
	r := NewResolver(gen, zap.NewNop(), 0)

	if _, err := r.Resolve(context.Background(), request(browser.FormField{Name: "notice", Label: "Notice period"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	for _, fragment := range []string{"Jane Doe", "Backend Engineer", "Notice period"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}
}
