// Package domain contains core concepts of the sync engine.
// This file defines Message events and related rules.
// Messages are immutable, append-only, and ordered by Timestamp.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message represents an immutable chat event. Exactly one of Text or
// ImageURL carries the payload.
type Message struct {
	ID             uuid.UUID `json:"id" firestore:"-"`
	ConversationID string    `json:"conversationId" firestore:"conversationId"`
	SenderID       string    `json:"senderId" firestore:"senderId"`
	Text           string    `json:"text,omitempty" firestore:"text,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Timestamp      time.Time `json:"timestamp" firestore:"timestamp"`
}
