package taskloop

import "sync/atomic"

// cancelState is the shared record behind a Source and its Tokens: one
// monotonic atomic flag, false until cancelled, never reset. The atomic
// store/load pair gives the release/acquire edge between the cancelling
// goroutine and every observer.
type cancelState struct {
	cancelled atomic.Bool
}

// Source is the unique writer over a cancellation state. The zero Source is
// not usable; construct with [NewSource].
type Source struct {
	state *cancelState
}

// NewSource creates a Source owning a fresh, uncancelled state.
func NewSource() *Source {
	return &Source{state: &cancelState{}}
}

// Token derives a reader over the source's state. Tokens are cheap to copy
// and safe for concurrent use.
func (s *Source) Token() Token {
	return Token{state: s.state}
}

// RequestCancel sets the flag. Idempotent; once it returns, every
// subsequent observation through any token reports cancelled.
func (s *Source) RequestCancel() {
	s.state.cancelled.Store(true)
}

// IsCancelled reports whether cancellation has been requested.
func (s *Source) IsCancelled() bool {
	return s.state.cancelled.Load()
}

// Token is a shared read-only view of a cancellation flag. The zero Token
// is valid and empty: it can never be cancelled.
type Token struct {
	state *cancelState
}

// CanCancel reports whether the token is bound to a source at all.
func (t Token) CanCancel() bool {
	return t.state != nil
}

// IsCancelled reports whether the bound source requested cancellation.
// Always false for the empty token.
func (t Token) IsCancelled() bool {
	return t.state != nil && t.state.cancelled.Load()
}
