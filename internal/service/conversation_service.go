package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"neon-nexus/internal/domain"
	"neon-nexus/internal/repository"
)

// ConversationService expone listado, creación y detalle de conversaciones.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

// ErrConversationNotFound cubre tanto referencias inexistentes como ajenas.
var ErrConversationNotFound = errors.New("conversation not found")

func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
	}
}

func (s *ConversationService) List(ctx context.Context, ownerEmail string) ([]domain.ConversationSummary, error) {
	summaries, err := s.conversations.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

func (s *ConversationService) Create(ctx context.Context, ownerEmail, title string) (domain.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		UserEmail: ownerEmail,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.conversations.Create(ctx, conv)
	if err != nil {
		return domain.Conversation{}, err
	}
	conv.ID = id
	return conv, nil
}

// Detail devuelve la conversación con su historial ascendente por fecha.
func (s *ConversationService) Detail(ctx context.Context, ownerEmail, id string) (domain.ConversationDetail, error) {
	conv, err := s.conversations.GetByIDAndOwner(ctx, id, ownerEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ConversationDetail{}, ErrConversationNotFound
		}
		return domain.ConversationDetail{}, err
	}

	messages, err := s.messages.ListByConversationID(ctx, conv.ID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return domain.ConversationDetail{}, ErrConversationNotFound
		}
		return domain.ConversationDetail{}, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return domain.ConversationDetail{
		ID:       conv.ID,
		Title:    conv.Title,
		Messages: messages,
	}, nil
}
