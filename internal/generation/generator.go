// Package generation turns an assembled context bundle into final prose.
// It is a collaborator of the retrieval core, not part of it.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/router"
)

// DefaultMaxChars caps the context forwarded to the model. The assembler
// budget is normally well below this; the cap only guards misconfiguration.
const DefaultMaxChars = 64000

// Generator produces a final answer from the query and its context bundle.
type Generator interface {
	Generate(ctx context.Context, query string, bundle assembler.Bundle, mode assembler.Mode) (string, error)
}

// OpenAI generates answers with chat completions, strictly from the supplied
// context.
type OpenAI struct {
	client   *openai.Client
	model    openai.ChatModel
	maxChars int
}

// NewOpenAI creates a generator. An empty model defaults to GPT-4o-mini.
func NewOpenAI(client *openai.Client, model openai.ChatModel) *OpenAI {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAI{
		client:   client,
		model:    model,
		maxChars: DefaultMaxChars,
	}
}

// Generate builds the grounding prompt and requests a completion.
func (g *OpenAI) Generate(ctx context.Context, query string, bundle assembler.Bundle, mode assembler.Mode) (string, error) {
	if len(bundle.Passages) == 0 {
		return "", fmt.Errorf("empty context bundle")
	}

	instruction := "Give a short, concise, and summarized answer based on the context."
	if mode == assembler.ModeDetailed {
		instruction = "Give a detailed, in-depth, and expanded response based on the context."
	}

	prompt := fmt.Sprintf(`You are a helpful assistant. %s Do not use any outside information.
If the context does not contain the answer, say that you don't have enough information.

Context:
%s

Question: %s
Answer:`, instruction, g.formatContext(bundle), query)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: g.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// formatContext renders passages with their source attribution so answers
// can cite where evidence came from.
func (g *OpenAI) formatContext(bundle assembler.Bundle) string {
	var b strings.Builder
	for i, p := range bundle.Passages {
		label := "knowledge base"
		if p.Origin == router.OriginWeb {
			label = "web: " + p.Ref
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n\n", i+1, label, p.Text)
	}

	text := b.String()
	if runes := []rune(text); len(runes) > g.maxChars {
		text = string(runes[:g.maxChars])
	}
	return text
}
