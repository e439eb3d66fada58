// Package domain contains core concepts of the sync engine.
// This file defines the Session identity snapshot.
// No runtime, network, or UI logic should be added here.
package domain

// Defaults applied when a profile document is created or a lookup
// comes back empty.
const (
	DefaultBio      = "Hey there, I'm using QuickChat!"
	DefaultAvatar   = "/assets/default-avatar.png"
	UnknownUserName = "Unknown User"
)

// Session is the authenticated identity and profile fields held by the
// client. It mirrors the remote profile document once the credential
// check has settled; before that it may be a speculative value restored
// from the local cache.
type Session struct {
	UID         string `json:"uid" firestore:"uid"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	Bio         string `json:"bio,omitempty" firestore:"bio,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
}

// DisplayLabel is the name shown for this user in conversation lists:
// display name when set, email otherwise.
func (s Session) DisplayLabel() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if s.Email != "" {
		return s.Email
	}
	return UnknownUserName
}
