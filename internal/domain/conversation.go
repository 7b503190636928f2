package domain

import "time"

type Conversation struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationSummary es la proyección usada por el listado lateral.
type ConversationSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ConversationDetail incluye el historial completo ordenado por fecha.
type ConversationDetail struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}
