package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/language"
)

type testServer struct {
	classifier *MockClassifier
	roster     *Roster
	mux        http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	classifier := NewMockClassifier(ctrl)
	roster := NewRoster()
	hub := NewHub(testLogger(), 50)
	dispatcher := NewDispatcher(classifier, roster, hub, nil, language.Korean, testLogger())
	return &testServer{
		classifier: classifier,
		roster:     roster,
		mux:        newMux(NewPartyHandler(dispatcher, language.Korean, testLogger()), roster, hub),
	}
}

func (s *testServer) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/party", bytes.NewBufferString(body)))
	return rec
}

func decodeParty(t *testing.T, rec *httptest.ResponseRecorder) partyResponse {
	t.Helper()
	var resp partyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPartyHandler_Scenario(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Alice", "create party Raid").
		Return(Classification{Intent: IntentCreate, PartyName: "Raid"}, nil).
		Times(1)
	rec := s.post(t, `{"nickname":"Alice","message":"create party Raid"}`)

	req.Equal(http.StatusOK, rec.Code)
	req.NotEmpty(rec.Header().Get("X-Request-ID"))
	resp := decodeParty(t, rec)
	req.True(resp.Success)
	req.Equal("created", resp.Kind)
	req.Equal(IntentCreate, resp.Intent)
	req.Equal("Raid", resp.PartyName)
	req.Equal(map[string][]string{"Raid": {"Alice"}}, resp.CurrentParties)

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Bob", "join Raid").
		Return(Classification{Intent: IntentJoin, PartyName: "Raid"}, nil).
		Times(1)
	rec = s.post(t, `{"nickname":"Bob","message":"join Raid"}`)

	req.Equal(http.StatusOK, rec.Code)
	resp = decodeParty(t, rec)
	req.True(resp.Success)
	req.Equal(`"Bob"님이 "Raid" 파티에 참가했습니다!`, resp.Message)
	req.Equal(map[string][]string{"Raid": {"Alice", "Bob"}}, resp.CurrentParties)
}

func TestPartyHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing message", `{"nickname":"Alice"}`, "닉네임과 메시지가 필요합니다."},
		{"blank nickname", `{"nickname":"   ","message":"join Raid"}`, "닉네임과 메시지가 필요합니다."},
		{"empty body", ``, "닉네임과 메시지가 필요합니다."},
		{"nickname too long", `{"nickname":"` + string(bytes.Repeat([]byte("a"), 65)) + `","message":"hi"}`, "닉네임 또는 메시지가 너무 깁니다."},
		{"malformed JSON", `{"nickname":`, "요청 형식이 올바르지 않습니다."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			s := newTestServer(t)
			s.roster.Create("Alice", "Raid")
			s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			rec := s.post(t, tt.body)

			req.Equal(http.StatusBadRequest, rec.Code)
			var resp errorResponse
			req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			req.Equal(tt.want, resp.Error)
			req.Equal(map[string][]string{"Raid": {"Alice"}}, s.roster.Snapshot())
		})
	}
}

func TestPartyHandler_MethodNotAllowed(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/party", nil))

	req.Equal(http.StatusMethodNotAllowed, rec.Code)
	req.JSONEq(`{"error":"Method not allowed"}`, rec.Body.String())
}

func TestPartyHandler_NotUnderstood(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.roster.Create("Alice", "Raid")

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Bob", "what's the weather?").
		Return(Classification{Intent: IntentOther}, nil)
	rec := s.post(t, `{"nickname":"Bob","message":"what's the weather?"}`)

	req.Equal(http.StatusOK, rec.Code)
	resp := decodeParty(t, rec)
	req.False(resp.Success)
	req.Equal("not_understood", resp.Kind)
	req.Equal(IntentOther, resp.Intent)
	req.Equal("파티 관련 요청을 인식하지 못했습니다.", resp.Message)
	req.Empty(resp.PartyName)
	req.Equal(map[string][]string{"Raid": {"Alice"}}, resp.CurrentParties)
}

func TestPartyHandler_UnknownIntentLabel(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.roster.Create("Alice", "Raid")

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Bob", "dance with Raid").
		Return(Classification{Intent: Intent("dance"), PartyName: "Raid"}, nil)

	var rec *httptest.ResponseRecorder
	req.NotPanics(func() { rec = s.post(t, `{"nickname":"Bob","message":"dance with Raid"}`) })

	req.Equal(http.StatusOK, rec.Code)
	resp := decodeParty(t, rec)
	req.False(resp.Success)
	req.Equal("not_understood", resp.Kind)
	req.Equal(IntentOther, resp.Intent)
	req.Equal(map[string][]string{"Raid": {"Alice"}}, s.roster.Snapshot())
}

func TestPartyHandler_DomainFailure(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Bob", "join Raid").
		Return(Classification{Intent: IntentJoin, PartyName: "Raid"}, nil)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/party?lang=en", bytes.NewBufferString(`{"nickname":"Bob","message":"join Raid"}`))
	s.mux.ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	resp := decodeParty(t, rec)
	req.False(resp.Success)
	req.Equal("not_found", resp.Kind)
	req.Equal(`The party "Raid" does not exist. Create it first.`, resp.Message)
	req.NotNil(resp.CurrentParties)
	req.Empty(resp.CurrentParties)
}

func TestPartyHandler_ClassifierError(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.roster.Create("Alice", "Raid")

	s.classifier.EXPECT().
		Classify(gomock.Any(), "Bob", "join Raid").
		Return(Classification{}, errors.New("connection refused"))
	rec := s.post(t, `{"nickname":"Bob","message":"join Raid"}`)

	req.Equal(http.StatusInternalServerError, rec.Code)
	var resp errorResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("서버 오류가 발생했습니다.", resp.Error)
	req.Contains(resp.Details, "connection refused")
	req.Equal(map[string][]string{"Raid": {"Alice"}}, s.roster.Snapshot())
}

func TestServeParties(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	s.roster.Create("Alice", "Raid")
	s.roster.Leave("Alice", "Raid")

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parties", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"currentParties":{"Raid":[]}}`, rec.Body.String())
}

func TestServeUI(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "/api/party")

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	req.Equal(http.StatusNotFound, rec.Code)
}
