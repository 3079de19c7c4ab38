package main

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. Arguments are always (nickname, party) so translations can
// reorder them with indexed verbs.
const (
	msgPartyCreated       = "party.created"
	msgPartyJoined        = "party.joined"
	msgPartyLeft          = "party.left"
	msgPartyAlreadyExists = "party.already_exists"
	msgPartyNotFoundJoin  = "party.not_found.join"
	msgPartyNotFound      = "party.not_found"
	msgAlreadyMember      = "party.already_member"
	msgNotMember          = "party.not_member"
	msgNotUnderstood      = "party.not_understood"

	msgFieldsRequired = "error.fields_required"
	msgFieldsTooLong  = "error.fields_too_long"
	msgBadRequest     = "error.bad_request"
	msgServerError    = "error.server"
)

// methodNotAllowed is deliberately not localized.
const methodNotAllowed = "Method not allowed"

var supportedLanguages = []language.Tag{
	language.Korean,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	catalog := map[language.Tag]map[string]string{
		language.Korean: {
			msgPartyCreated:       `"%[1]s"님이 "%[2]s" 파티를 생성하고 참가했습니다!`,
			msgPartyJoined:        `"%[1]s"님이 "%[2]s" 파티에 참가했습니다!`,
			msgPartyLeft:          `"%[1]s"님이 "%[2]s" 파티에서 탈퇴했습니다.`,
			msgPartyAlreadyExists: `"%[2]s" 파티는 이미 존재합니다.`,
			msgPartyNotFoundJoin:  `"%[2]s" 파티가 존재하지 않습니다. 먼저 파티를 생성해주세요.`,
			msgPartyNotFound:      `"%[2]s" 파티가 존재하지 않습니다.`,
			msgAlreadyMember:      `"%[1]s"님은 이미 "%[2]s" 파티에 참가 중입니다.`,
			msgNotMember:          `"%[1]s"님은 "%[2]s" 파티에 참가하고 있지 않습니다.`,
			msgNotUnderstood:      `파티 관련 요청을 인식하지 못했습니다.`,
			msgFieldsRequired:     `닉네임과 메시지가 필요합니다.`,
			msgFieldsTooLong:      `닉네임 또는 메시지가 너무 깁니다.`,
			msgBadRequest:         `요청 형식이 올바르지 않습니다.`,
			msgServerError:        `서버 오류가 발생했습니다.`,
		},
		language.English: {
			msgPartyCreated:       `%[1]q created the party %[2]q and joined it!`,
			msgPartyJoined:        `%[1]q joined the party %[2]q!`,
			msgPartyLeft:          `%[1]q left the party %[2]q.`,
			msgPartyAlreadyExists: `The party %[2]q already exists.`,
			msgPartyNotFoundJoin:  `The party %[2]q does not exist. Create it first.`,
			msgPartyNotFound:      `The party %[2]q does not exist.`,
			msgAlreadyMember:      `%[1]q is already a member of %[2]q.`,
			msgNotMember:          `%[1]q is not a member of %[2]q.`,
			msgNotUnderstood:      `The request was not understood as a party action.`,
			msgFieldsRequired:     `Nickname and message are required.`,
			msgFieldsTooLong:      `Nickname or message is too long.`,
			msgBadRequest:         `The request body is not valid JSON.`,
			msgServerError:        `An internal server error occurred.`,
		},
	}
	for tag, messages := range catalog {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// matchLanguage picks the closest supported language, or fallback when
// nothing matches with reasonable confidence.
func matchLanguage(fallback language.Tag, tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supportedLanguages[idx]
}

// parseDefaultLanguage resolves the configured default to a supported tag.
func parseDefaultLanguage(value string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Korean
	}
	return matchLanguage(language.Korean, tag)
}

// requestLanguage resolves the response language from ?lang=, then
// Accept-Language, then fallback.
func requestLanguage(r *http.Request, fallback language.Tag) language.Tag {
	if v := strings.TrimSpace(r.URL.Query().Get("lang")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return matchLanguage(fallback, tag)
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return matchLanguage(fallback, tags...)
		}
	}
	return fallback
}

// describeOutcome renders an Outcome for people.
func describeOutcome(p *message.Printer, o Outcome) string {
	var key string
	switch o.Kind {
	case OutcomeCreated:
		key = msgPartyCreated
	case OutcomeJoined:
		key = msgPartyJoined
	case OutcomeLeft:
		key = msgPartyLeft
	case OutcomeAlreadyExists:
		key = msgPartyAlreadyExists
	case OutcomeNotFound:
		key = msgPartyNotFound
		if o.Intent == IntentJoin {
			key = msgPartyNotFoundJoin
		}
	case OutcomeAlreadyMember:
		key = msgAlreadyMember
	case OutcomeNotMember:
		key = msgNotMember
	default:
		return p.Sprintf(msgNotUnderstood)
	}
	return p.Sprintf(key, o.Nickname, o.Party)
}
