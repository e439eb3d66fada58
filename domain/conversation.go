package domain

import "time"

// Conversation is a two-party message thread plus the summary fields kept in
// sync with its latest message. ParticipantNames/Photos/Bios, when resolved,
// are index-aligned with Participants.
type Conversation struct {
	ID                   string    `json:"id" firestore:"-"`
	Participants         []string  `json:"participants" firestore:"participants"`
	ParticipantNames     []string  `json:"participantNames,omitempty" firestore:"-"`
	ParticipantPhotos    []string  `json:"participantPhotos,omitempty" firestore:"-"`
	ParticipantBios      []string  `json:"participantBios,omitempty" firestore:"-"`
	LastMessage          string    `json:"lastMessage" firestore:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp" firestore:"lastMessageTimestamp"`
}

// Includes reports whether uid is a participant of the conversation.
func (c Conversation) Includes(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// CounterpartName returns the display name of the other participant,
// from the point of view of the participant named self.
func (c Conversation) CounterpartName(self string) string {
	for _, name := range c.ParticipantNames {
		if name != self {
			return name
		}
	}
	return UnknownUserName
}
