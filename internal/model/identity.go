package model

// Identity sources.
const (
	IdentitySourceSession = "session"
	IdentitySourceToken   = "token"
)

// Identity is the resolved caller identity attached to a request context.
// A nil *Identity means the caller is anonymous; that is not an error by
// itself, downstream authorization decides access.
type Identity struct {
	UserID string
	Email  string
	IsPaid bool
	// Source records which credential resolved the identity: session or token.
	Source string
	// SessionID is set only when Source is session; logout uses it to
	// invalidate the server-side session entry.
	SessionID string
}
