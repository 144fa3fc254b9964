package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/logging"
)

// OpenAI implements Decider using the OpenAI chat completions API with
// function calling. Any OpenAI-compatible endpoint works via BaseURL.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	tools       []openai.Tool
	log         *logging.Logger
}

// OpenAIOptions configure the OpenAI decider.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewOpenAI creates a Decider backed by the OpenAI API, advertising the
// given tools to the model.
func NewOpenAI(opts OpenAIOptions, specs []ToolSpec, log *logging.Logger) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai api key not set")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	tools := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: opts.Temperature,
		tools:       tools,
		log:         log.Sub("llm"),
	}, nil
}

// Decide sends the conversation to the model and returns its reply. When
// the model requests several tool calls at once, only the first is taken;
// the loop brings the rest back around on later iterations.
func (o *OpenAI) Decide(ctx context.Context, history []domain.Message, summary string, profile domain.Profile) (*Decision, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages:    o.buildMessages(history, summary, profile),
		Tools:       o.tools,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.log.Error().Err(err).Msg("chat completion failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}

	choice := resp.Choices[0]
	dec := &Decision{Text: strings.TrimSpace(choice.Message.Content)}

	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		dec.Action = &domain.ActionRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		}
		o.log.Debug().Str("tool", tc.Function.Name).Msg("model requested tool")
	}

	if dec.Text == "" && dec.Action == nil {
		return nil, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return dec, nil
}

// Summarize condenses older conversation turns into a rolling summary so
// long threads stay inside the model context window.
func (o *OpenAI) Summarize(ctx context.Context, previous string, msgs []domain.Message) (string, error) {
	var b strings.Builder
	if previous != "" {
		b.WriteString("Existing summary:\n")
		b.WriteString(previous)
		b.WriteString("\n\nNew turns:\n")
	}
	for _, m := range msgs {
		if m.Role == domain.RoleTool {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Summarize this mental health support conversation in a few sentences. Preserve the user's main concerns, any assessment results, and any risk indicators. Write in third person."},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) buildMessages(history []domain.Message, summary string, profile domain.Profile) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt + buildContext(summary, profile),
	})

	for _, m := range history {
		switch m.Role {
		case domain.RoleUser:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			})
		case domain.RoleAssistant:
			cm := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			if m.Action != nil {
				cm.ToolCalls = []openai.ToolCall{{
					ID:   m.Action.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.Action.Name,
						Arguments: string(m.Action.Arguments),
					},
				}}
			}
			out = append(out, cm)
		case domain.RoleTool:
			cm := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleTool,
				Content: m.Content,
				Name:    m.ToolName,
			}
			if m.Action != nil {
				cm.ToolCallID = m.Action.ID
			}
			out = append(out, cm)
		}
	}
	return out
}
