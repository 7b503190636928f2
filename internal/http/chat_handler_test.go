package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"neon-nexus/internal/domain"
	"neon-nexus/internal/llm"
	"neon-nexus/internal/repository"
	"neon-nexus/internal/service"
)

// memConversationRepo guarda conversaciones en memoria con ids hex de 24
// caracteres, igual que los ObjectID del store real.
type memConversationRepo struct {
	seq     int
	order   []string
	convs   map[string]domain.Conversation
	touched []string
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{convs: make(map[string]domain.Conversation)}
}

func (m *memConversationRepo) Create(_ context.Context, conv domain.Conversation) (string, error) {
	m.seq++
	id := fmt.Sprintf("%024x", m.seq)
	conv.ID = id
	m.convs[id] = conv
	m.order = append(m.order, id)
	return id, nil
}

func (m *memConversationRepo) GetByIDAndOwner(_ context.Context, id, ownerEmail string) (domain.Conversation, error) {
	conv, ok := m.convs[id]
	if !ok || conv.UserEmail != ownerEmail {
		return domain.Conversation{}, repository.ErrNotFound
	}
	return conv, nil
}

func (m *memConversationRepo) ListByOwner(_ context.Context, ownerEmail string) ([]domain.ConversationSummary, error) {
	summaries := []domain.ConversationSummary{}
	for i := len(m.order) - 1; i >= 0; i-- {
		conv := m.convs[m.order[i]]
		if conv.UserEmail != ownerEmail {
			continue
		}
		summaries = append(summaries, domain.ConversationSummary{ID: conv.ID, Title: conv.Title})
	}
	return summaries, nil
}

func (m *memConversationRepo) TouchUpdatedAt(_ context.Context, id string) error {
	m.touched = append(m.touched, id)
	return nil
}

type memMessageRepo struct {
	seq  int
	msgs []domain.Message
}

func (m *memMessageRepo) Create(_ context.Context, message domain.Message) (string, error) {
	if len(message.ConversationID) != 24 {
		return "", repository.ErrInvalidID
	}
	m.seq++
	message.ID = fmt.Sprintf("%024x", m.seq)
	m.msgs = append(m.msgs, message)
	return message.ID, nil
}

func (m *memMessageRepo) ListByConversationID(_ context.Context, conversationID string) ([]domain.Message, error) {
	if len(conversationID) != 24 {
		return nil, repository.ErrInvalidID
	}
	out := []domain.Message{}
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// stubUserRepo existe solo para armar el router completo; los tests de chat
// e historial no pasan por él.
type stubUserRepo struct{}

func (stubUserRepo) Create(_ context.Context, _ domain.User) error { return nil }
func (stubUserRepo) GetByID(_ context.Context, _ string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}
func (stubUserRepo) GetByEmail(_ context.Context, _ string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}
func (stubUserRepo) GetByAuth(_ context.Context, _, _ string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}
func (stubUserRepo) LinkOAuth(_ context.Context, _, _, _, _ string) error { return nil }

type apiFixture struct {
	router  *gin.Engine
	jwtSvc  *service.JWTService
	convs   *memConversationRepo
	msgs    *memMessageRepo
	llmMock *llm.MockClient
}

func setupAPI(t *testing.T, apiKey string) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	convs := newMemConversationRepo()
	msgs := &memMessageRepo{}
	llmMock := &llm.MockClient{Response: "mock reply"}

	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	userSvc := service.NewUserService(logger, stubUserRepo{})
	chatSvc := service.NewChatService(logger, convs, msgs, llmMock, "gemini-1.5-flash", apiKey)
	convSvc := service.NewConversationService(convs, msgs)

	router := NewRouter(
		logger,
		NewUserHandler(logger, userSvc, jwtSvc),
		NewChatHandler(logger, chatSvc),
		NewConversationHandler(logger, convSvc),
		jwtSvc,
	)

	return &apiFixture{router: router, jwtSvc: jwtSvc, convs: convs, msgs: msgs, llmMock: llmMock}
}

func (f *apiFixture) token(t *testing.T, email string) string {
	t.Helper()
	pair, err := f.jwtSvc.GeneratePair(domain.User{ID: "u-" + email, Email: email, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}

func performJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestChatExchange_MissingPrompt(t *testing.T) {
	f := setupAPI(t, "test-key")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "missing prompt" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestChatExchange_MissingAPIKey(t *testing.T) {
	f := setupAPI(t, "")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "hola"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "server is missing GEMINI_API_KEY" {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if f.llmMock.Calls != 0 {
		t.Fatalf("expected no llm calls, got %d", f.llmMock.Calls)
	}
}

func TestChatExchange_AnonymousDoesNotPersist(t *testing.T) {
	f := setupAPI(t, "test-key")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "hola"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["text"] != "mock reply" {
		t.Fatalf("unexpected text %v", body["text"])
	}
	if _, ok := body["conversationId"]; ok {
		t.Fatalf("anonymous response must not carry conversationId")
	}
	if len(f.convs.convs) != 0 || len(f.msgs.msgs) != 0 {
		t.Fatalf("anonymous exchange must not write to the store")
	}
}

func TestChatExchange_SignedInCreatesConversation(t *testing.T) {
	f := setupAPI(t, "test-key")
	token := f.token(t, "user@example.com")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", token, map[string]string{"prompt": "hola mundo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	convID := body["conversationId"]
	if convID == "" {
		t.Fatalf("expected conversationId in response")
	}

	conv, ok := f.convs.convs[convID]
	if !ok {
		t.Fatalf("conversation %s not persisted", convID)
	}
	if conv.UserEmail != "user@example.com" || conv.Title != "hola mundo" {
		t.Fatalf("unexpected conversation %+v", conv)
	}
	if len(f.msgs.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(f.msgs.msgs))
	}
	if f.msgs.msgs[0].Role != domain.RoleUser || f.msgs.msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles %s/%s", f.msgs.msgs[0].Role, f.msgs.msgs[1].Role)
	}
	if len(f.convs.touched) != 1 || f.convs.touched[0] != convID {
		t.Fatalf("expected updated_at touch for %s", convID)
	}
}

func TestChatExchange_SignedInReusesReference(t *testing.T) {
	f := setupAPI(t, "test-key")
	token := f.token(t, "user@example.com")
	ref := fmt.Sprintf("%024x", 777)

	rec := performJSON(f.router, http.MethodPost, "/api/chat", token, map[string]string{
		"prompt":         "segunda pregunta",
		"conversationId": ref,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["conversationId"] != ref {
		t.Fatalf("expected reference %s echoed, got %s", ref, body["conversationId"])
	}
	// La referencia se usa tal cual, sin crear ni verificar la conversación.
	if len(f.convs.convs) != 0 {
		t.Fatalf("expected no conversation created")
	}
	for _, msg := range f.msgs.msgs {
		if msg.ConversationID != ref {
			t.Fatalf("message stored under %s, want %s", msg.ConversationID, ref)
		}
	}
}

func TestChatExchange_InvalidConversationID(t *testing.T) {
	f := setupAPI(t, "test-key")
	token := f.token(t, "user@example.com")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", token, map[string]string{
		"prompt":         "hola",
		"conversationId": "zzz",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.llmMock.Calls != 0 {
		t.Fatalf("expected no llm calls, got %d", f.llmMock.Calls)
	}
}

func TestChatExchange_UpstreamErrorVerbatim(t *testing.T) {
	f := setupAPI(t, "test-key")
	f.llmMock.Err = errors.New("Resource has been exhausted (e.g. check quota).")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "hola"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "Resource has been exhausted (e.g. check quota)." {
		t.Fatalf("upstream message must surface verbatim, got %q", body["error"])
	}
}

func TestChatExchange_ExplicitModelForwarded(t *testing.T) {
	f := setupAPI(t, "test-key")

	rec := performJSON(f.router, http.MethodPost, "/api/chat", "", map[string]string{
		"prompt":    "hola",
		"modelName": "gemini-1.5-pro",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.llmMock.LastModel != "gemini-1.5-pro" {
		t.Fatalf("expected model forwarded, got %q", f.llmMock.LastModel)
	}
}
