package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed ui/index.html
var pageHTML string

// maxBodyBytes caps the request body read by the party endpoint.
const maxBodyBytes = 64 << 10

type partyRequest struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
	Message  string `json:"message" validate:"required,max=500"`
}

type partyResponse struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message"`
	Kind           string              `json:"kind"`
	Intent         Intent              `json:"intent"`
	PartyName      string              `json:"partyName,omitempty"`
	CurrentParties map[string][]string `json:"currentParties"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PartyHandler serves POST /api/party.
type PartyHandler struct {
	dispatcher  *Dispatcher
	validate    *validator.Validate
	defaultLang language.Tag
	log         *slog.Logger
}

func NewPartyHandler(dispatcher *Dispatcher, defaultLang language.Tag, log *slog.Logger) *PartyHandler {
	return &PartyHandler{
		dispatcher:  dispatcher,
		validate:    validator.New(),
		defaultLang: defaultLang,
		log:         log,
	}
}

func (h *PartyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: methodNotAllowed})
		return
	}

	p := message.NewPrinter(requestLanguage(r, h.defaultLang))

	var req partyRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: p.Sprintf(msgBadRequest)})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: p.Sprintf(msgBadRequest)})
			return
		}
	}
	req.Nickname = normalizeName(req.Nickname)
	req.Message = strings.TrimSpace(req.Message)

	if err := h.validate.Struct(req); err != nil {
		h.log.Info("party: rejected request", "request_id", requestID, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: p.Sprintf(validationMessageKey(err))})
		return
	}

	h.log.Info("party: request",
		"request_id", requestID,
		"nickname", req.Nickname,
		"message", truncate(req.Message, 120),
	)

	res, err := h.dispatcher.Dispatch(r.Context(), requestID, req.Nickname, req.Message)
	if err != nil {
		h.log.Error("party: dispatch failed", "request_id", requestID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   p.Sprintf(msgServerError),
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, partyResponse{
		Success:        res.Outcome.Success(),
		Message:        describeOutcome(p, res.Outcome),
		Kind:           res.Outcome.Kind.String(),
		Intent:         res.Classification.Intent,
		PartyName:      res.Outcome.Party,
		CurrentParties: res.Parties,
	})
}

// validationMessageKey maps a validator failure to a catalog key.
func validationMessageKey(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return msgFieldsRequired
			}
		}
		return msgFieldsTooLong
	}
	return msgFieldsRequired
}

// ServeParties handles GET /api/parties and returns the current roster.
func ServeParties(roster *Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"currentParties": roster.Snapshot()})
	}
}

// serveUI returns the single-page party app.
func serveUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(pageHTML))
}

// newMux wires every route.
func newMux(party http.Handler, roster *Roster, hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/party", party)
	mux.HandleFunc("GET /api/parties", ServeParties(roster))
	mux.HandleFunc("GET /api/events", hub.ServeHistory)
	mux.HandleFunc("GET /events", hub.ServeSSE)
	mux.HandleFunc("/", serveUI)
	return mux
}
