// Package llm holds one adapter per generation provider. Each adapter turns a
// Request into its provider's wire format and reports the outcome as a Result.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/copydesk/internal/domain"
)

// Turn is one transcript entry as seen by a provider.
type Turn struct {
	Role domain.Role
	Text string
}

// Request is the provider-neutral generation input.
type Request struct {
	Title        string
	Instructions string
	Document     string
	Transcript   []Turn
}

// NewRequest builds a request from a tool, its transcript and optional document text.
func NewRequest(tool *domain.Tool, transcript []domain.Message, document string) Request {
	turns := make([]Turn, 0, len(transcript))
	for _, m := range transcript {
		turns = append(turns, Turn{Role: m.Role, Text: m.Text})
	}
	return Request{
		Title:        tool.Title,
		Instructions: tool.PromptInstructions,
		Document:     document,
		Transcript:   turns,
	}
}

// Prompt renders the combined context sent as the user message.
func (r Request) Prompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tool: %s\n", r.Title)
	fmt.Fprintf(&sb, "Instructions: %s\n\n", r.Instructions)
	if r.Document != "" {
		fmt.Fprintf(&sb, "Knowledge Base Context:\n%s\n\n", r.Document)
	}
	sb.WriteString("Conversation:\n")
	for _, t := range r.Transcript {
		switch t.Role {
		case domain.RoleUser:
			fmt.Fprintf(&sb, "User: %s\n", t.Text)
		case domain.RoleAssistant:
			fmt.Fprintf(&sb, "Assistant: %s\n", t.Text)
		}
	}
	sb.WriteString("\nPlease provide a comprehensive response based on the tool's purpose and the user's inputs.")
	return sb.String()
}

type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
	FailureEmpty     FailureKind = "empty"
)

type Failure struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Detail, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Result is either a success carrying Text or a failure carrying Failure.
type Result struct {
	Text    string
	Usage   Usage
	Failure *Failure
}

func (r Result) OK() bool { return r.Failure == nil }

func success(text string, usage Usage) Result {
	if strings.TrimSpace(text) == "" {
		return fail(FailureEmpty, "provider returned no text", nil)
	}
	return Result{Text: text, Usage: usage}
}

func fail(kind FailureKind, detail string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail, Err: err}}
}

// Provider is a configured adapter. Adapters only exist for providers that have credentials.
type Provider interface {
	Name() domain.ModelName
	Complete(ctx context.Context, req Request) Result
}
