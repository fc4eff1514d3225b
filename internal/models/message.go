package models

import "time"

// MaxMessageLength: максимальная длина сообщения в символах (runes).
const MaxMessageLength = 500

type Message struct {
	ID        string    `json:"id"`
	AccountID string    `json:"-"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type SendMessageRequest struct {
	Username string `json:"username" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

type SuggestRequest struct {
	Prompt string `json:"prompt"`
}
