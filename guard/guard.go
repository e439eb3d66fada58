// Package guard decides whether a route entry is allowed, as a pure
// function of the identity session state.
package guard

import "github.com/quickchat/sync-core/domain"

// Route describes the auth requirements of a navigation target.
// RequiresAuth and PublicOnly are mutually exclusive; both false means
// the route is open to everyone.
type Route struct {
	RequiresAuth bool
	PublicOnly   bool
}

type Decision int

const (
	// Defer: the credential check is still in flight; the caller must
	// hold navigation and re-evaluate when loading clears.
	Defer Decision = iota
	Allow
	RedirectToLogin
	RedirectToChat
)

func (d Decision) String() string {
	switch d {
	case Defer:
		return "defer"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToChat:
		return "redirect-to-chat"
	default:
		return "unknown"
	}
}

// Decide evaluates a route entry. While loading is true no decision is
// made, regardless of initialized or the session value: deciding during
// startup is what caused premature login redirects in an earlier variant
// that keyed off initialized instead. Once settled, a protected route
// without a session redirects to login, and a public-only route with a
// session redirects to chat.
func Decide(initialized, loading bool, session *domain.Session, route Route) Decision {
	if loading {
		return Defer
	}
	if route.RequiresAuth && session == nil {
		return RedirectToLogin
	}
	if route.PublicOnly && session != nil {
		return RedirectToChat
	}
	return Allow
}
