package main

//go:generate mockgen -source=intent.go -destination=mock_classifier_test.go -package=main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyClassification     = errors.New("classifier returned no text")
	ErrMalformedClassification = errors.New("classifier returned malformed JSON")
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentJoin   Intent = "join"
	IntentLeave  Intent = "leave"
	IntentOther  Intent = "other"
)

// ParseIntent maps a classifier label to an Intent. Anything unrecognized,
// including the empty string, becomes IntentOther.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentCreate:
		return IntentCreate
	case IntentJoin:
		return IntentJoin
	case IntentLeave:
		return IntentLeave
	default:
		return IntentOther
	}
}

// Classification holds the structured output of an intent classification.
type Classification struct {
	Intent    Intent
	PartyName string
	// Token usage for logging.
	InputTokens  int64
	OutputTokens int64
}

// Classifier turns a nickname and free-text message into a Classification.
type Classifier interface {
	Classify(ctx context.Context, nickname, message string) (Classification, error)
}

// parseClassification decodes the JSON object returned by the model.
func parseClassification(text string) (Classification, error) {
	text = strings.TrimSpace(text)
	// Strip markdown code block if present.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return Classification{}, ErrEmptyClassification
	}

	var raw struct {
		Intent    string `json:"intent"`
		PartyName string `json:"partyName"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Classification{}, fmt.Errorf("%w: %q: %v", ErrMalformedClassification, truncate(text, 200), err)
	}
	return Classification{
		Intent:    ParseIntent(raw.Intent),
		PartyName: strings.TrimSpace(raw.PartyName),
	}, nil
}
