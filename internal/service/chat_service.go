package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"neon-nexus/internal/domain"
	"neon-nexus/internal/llm"
	"neon-nexus/internal/repository"
)

// ChatService resuelve un turno de chat: persiste el turno del usuario si hay
// identidad, invoca el modelo y persiste la respuesta.
type ChatService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	llmClient     llm.Client
	defaultModel  string
	apiKey        string
}

var (
	ErrEmptyPrompt           = errors.New("missing prompt")
	ErrMissingAPIKey         = errors.New("server is missing GEMINI_API_KEY")
	ErrInvalidConversationID = errors.New("invalid conversation id")
)

const titleMaxRunes = 40

func NewChatService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	llmClient llm.Client,
	defaultModel string,
	apiKey string,
) *ChatService {
	if defaultModel == "" {
		defaultModel = "gemini-1.5-flash"
	}
	return &ChatService{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
		llmClient:     llmClient,
		defaultModel:  defaultModel,
		apiKey:        apiKey,
	}
}

type ExchangeInput struct {
	Prompt         string
	ModelName      string
	ConversationID string
	// OwnerEmail vacío significa intercambio anónimo: cero escrituras.
	OwnerEmail string
}

type ExchangeResult struct {
	Text           string
	ConversationID string
}

// Exchange ejecuta un turno completo. Las escrituras no van en transacción:
// si la generación falla después de persistir el turno del usuario, ese
// mensaje queda sin respuesta emparejada.
func (s *ChatService) Exchange(ctx context.Context, in ExchangeInput) (ExchangeResult, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return ExchangeResult{}, ErrEmptyPrompt
	}
	if s.apiKey == "" {
		return ExchangeResult{}, ErrMissingAPIKey
	}

	model := in.ModelName
	if model == "" {
		model = s.defaultModel
	}

	conversationID := ""
	if in.OwnerEmail != "" {
		id, err := s.resolveConversation(ctx, in)
		if err != nil {
			return ExchangeResult{}, err
		}
		conversationID = id

		userMsg := domain.Message{
			ConversationID: conversationID,
			Role:           domain.RoleUser,
			Content:        in.Prompt,
			CreatedAt:      time.Now().UTC(),
		}
		if _, err := s.messages.Create(ctx, userMsg); err != nil {
			if errors.Is(err, repository.ErrInvalidID) {
				return ExchangeResult{}, ErrInvalidConversationID
			}
			return ExchangeResult{}, err
		}
	}

	text, err := s.llmClient.Generate(ctx, model, in.Prompt)
	if err != nil {
		// Sin compensación: el turno del usuario ya persistido se queda.
		return ExchangeResult{}, err
	}

	if in.OwnerEmail != "" && conversationID != "" {
		assistantMsg := domain.Message{
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Content:        text,
			CreatedAt:      time.Now().UTC(),
		}
		if _, err := s.messages.Create(ctx, assistantMsg); err != nil {
			return ExchangeResult{}, err
		}
		if err := s.conversations.TouchUpdatedAt(ctx, conversationID); err != nil {
			return ExchangeResult{}, err
		}
	}

	return ExchangeResult{Text: text, ConversationID: conversationID}, nil
}

// resolveConversation reutiliza la referencia recibida sin verificar
// existencia ni pertenencia; la pertenencia solo se exige al leer. Con
// referencia ausente crea la conversación con el prompt como título.
func (s *ChatService) resolveConversation(ctx context.Context, in ExchangeInput) (string, error) {
	if in.ConversationID != "" {
		return in.ConversationID, nil
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		UserEmail: in.OwnerEmail,
		Title:     TitleFromPrompt(in.Prompt),
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.conversations.Create(ctx, conv)
	if err != nil {
		return "", err
	}
	if s.logger != nil {
		s.logger.Info("conversation created", zap.String("conversation_id", id))
	}
	return id, nil
}

// TitleFromPrompt trunca el prompt a 40 caracteres visibles más elipsis.
func TitleFromPrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "…"
	}
	if prompt == "" {
		return "New conversation"
	}
	return prompt
}
