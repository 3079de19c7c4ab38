package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// notifyTimeout bounds a single best-effort notification.
const notifyTimeout = 10 * time.Second

// DispatchResult is the outcome of one party request.
type DispatchResult struct {
	Outcome        Outcome
	Classification Classification
	Parties        map[string][]string
}

// Dispatcher drives a request: classify → apply to the roster → announce.
type Dispatcher struct {
	classifier Classifier
	roster     *Roster
	hub        *Hub
	notifier   Notifier
	notifyLang language.Tag
	log        *slog.Logger
}

// NewDispatcher creates a new Dispatcher. A nil notifier disables notifications.
func NewDispatcher(classifier Classifier, roster *Roster, hub *Hub, notifier Notifier, notifyLang language.Tag, log *slog.Logger) *Dispatcher {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Dispatcher{
		classifier: classifier,
		roster:     roster,
		hub:        hub,
		notifier:   notifier,
		notifyLang: notifyLang,
		log:        log,
	}
}

// Dispatch classifies msg and applies the resulting intent for nickname.
// Classification happens strictly before any roster mutation, so an error
// return means the roster is untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, requestID, nickname, msg string) (DispatchResult, error) {
	start := time.Now()
	c, err := d.classifier.Classify(ctx, nickname, msg)
	if err != nil {
		d.hub.Emit(requestID, EventClassifyFailed, "", map[string]any{
			"nickname":    nickname,
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return DispatchResult{}, fmt.Errorf("classify intent: %w", err)
	}
	d.log.Info("dispatcher: intent classified",
		"request_id", requestID,
		"intent", c.Intent,
		"party", c.PartyName,
		"input_tokens", c.InputTokens,
		"output_tokens", c.OutputTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.Intent = ParseIntent(string(c.Intent))
	out, parties := d.roster.Apply(nickname, c)
	d.log.Info("dispatcher: roster updated",
		"request_id", requestID,
		"nickname", out.Nickname,
		"party", out.Party,
		"kind", out.Kind.String(),
	)

	data := map[string]any{
		"nickname": out.Nickname,
		"intent":   string(out.Intent),
		"kind":     out.Kind.String(),
	}
	if members, ok := parties[out.Party]; ok {
		data["members"] = members
	}
	d.hub.Emit(requestID, eventTypeFor(out), out.Party, data)

	if out.Success() {
		text := describeOutcome(message.NewPrinter(d.notifyLang), out)
		go func() {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			defer cancel()
			d.notifier.Notify(nctx, text)
		}()
	}

	return DispatchResult{Outcome: out, Classification: c, Parties: parties}, nil
}

func eventTypeFor(o Outcome) EventType {
	switch o.Kind {
	case OutcomeCreated:
		return EventPartyCreated
	case OutcomeJoined:
		return EventPartyJoined
	case OutcomeLeft:
		return EventPartyLeft
	default:
		return EventRequestRejected
	}
}
