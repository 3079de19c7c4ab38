package main

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const classifierSystemPrompt = `You are an assistant that manages named groups ("parties") for a game community.
Users write in Korean or English. Read the user's message and classify what they want.

Respond with JSON only, using exactly one of these shapes:
- join a party:   {"intent":"join","partyName":"<party name>"}
- leave a party:  {"intent":"leave","partyName":"<party name>"}
- create a party: {"intent":"create","partyName":"<party name>"}
- anything else:  {"intent":"other"}

Rules:
- partyName is the party's name exactly as the user wrote it, without the word "party" / "파티".
- Never invent a party name. If none is given, use {"intent":"other"}.`

// AnthropicClassifier classifies party requests with a single Claude call.
type AnthropicClassifier struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
}

// NewAnthropicClassifier returns a classifier that never retries failed calls.
// Extra options are appended after the defaults, so tests can point the client
// at a fake server with option.WithBaseURL.
func NewAnthropicClassifier(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicClassifier {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	client := anthropic.NewClient(append(base, opts...)...)
	return &AnthropicClassifier{
		client:  client,
		model:   anthropic.Model(model),
		timeout: timeout,
	}
}

func (a *AnthropicClassifier) Classify(ctx context.Context, nickname, message string) (Classification, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf("Nickname: %s\nMessage: %s", nickname, message)
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 128,
		System: []anthropic.TextBlockParam{
			{Text: classifierSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		result, err := parseClassification(block.Text)
		if err != nil {
			return Classification{}, fmt.Errorf("classify: %w", err)
		}
		result.InputTokens = int64(resp.Usage.InputTokens)
		result.OutputTokens = int64(resp.Usage.OutputTokens)
		return result, nil
	}
	return Classification{}, fmt.Errorf("classify: %w", ErrEmptyClassification)
}
