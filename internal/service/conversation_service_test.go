package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"neon-nexus/internal/domain"
	"neon-nexus/internal/repository"
)

func TestConversationServiceList_EmptyIsNotNil(t *testing.T) {
	svc := NewConversationService(&mockConversationRepo{}, &mockMessageRepo{})

	out, err := svc.List(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(out) != 0 {
		t.Fatalf("expected no summaries, got %d", len(out))
	}
}

func TestConversationServiceCreate_DefaultTitle(t *testing.T) {
	convs := &mockConversationRepo{createID: "c1"}
	svc := NewConversationService(convs, &mockMessageRepo{})

	conv, err := svc.Create(context.Background(), "a@b.com", "   ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if conv.ID != "c1" {
		t.Fatalf("expected id c1, got %q", conv.ID)
	}
	if convs.created[0].Title != "New conversation" {
		t.Fatalf("expected default title, got %q", convs.created[0].Title)
	}
	if convs.created[0].UserEmail != "a@b.com" {
		t.Fatalf("unexpected owner %q", convs.created[0].UserEmail)
	}
}

func TestConversationServiceDetail_NotFound(t *testing.T) {
	convs := &mockConversationRepo{getErr: repository.ErrNotFound}
	svc := NewConversationService(convs, &mockMessageRepo{})

	_, err := svc.Detail(context.Background(), "a@b.com", "c-missing")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationServiceDetail_ReturnsHistory(t *testing.T) {
	now := time.Now().UTC()
	convs := &mockConversationRepo{
		getConv: domain.Conversation{ID: "c1", UserEmail: "a@b.com", Title: "hola"},
	}
	msgs := &mockMessageRepo{
		listData: []domain.Message{
			{ID: "m1", Role: domain.RoleUser, Content: "hola", CreatedAt: now},
			{ID: "m2", Role: domain.RoleAssistant, Content: "buenas", CreatedAt: now.Add(time.Second)},
		},
	}
	svc := NewConversationService(convs, msgs)

	detail, err := svc.Detail(context.Background(), "a@b.com", "c1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail.ID != "c1" || detail.Title != "hola" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(detail.Messages))
	}
	for i := 1; i < len(detail.Messages); i++ {
		if detail.Messages[i].CreatedAt.Before(detail.Messages[i-1].CreatedAt) {
			t.Fatalf("messages must stay ascending by created_at")
		}
	}
}

func TestConversationServiceDetail_EmptyHistoryIsNotNil(t *testing.T) {
	convs := &mockConversationRepo{getConv: domain.Conversation{ID: "c1", Title: "hola"}}
	svc := NewConversationService(convs, &mockMessageRepo{})

	detail, err := svc.Detail(context.Background(), "a@b.com", "c1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail.Messages == nil {
		t.Fatalf("expected empty message slice, got nil")
	}
}
