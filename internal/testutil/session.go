package testutil

import "github.com/roach88/redg/internal/engine"

var _ engine.SessionGenerator = (*FixedSessionGenerator)(nil)

// DefaultSession is used when a scenario does not name its session.
const DefaultSession = "test-session-default"

// FixedSessionGenerator returns the same session token on every call, unlike
// engine.FixedGenerator which walks a list and panics when it runs out.
//
// Stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	token string
}

// NewFixedSessionGenerator returns a generator for token, or DefaultSession
// when token is empty.
func NewFixedSessionGenerator(token string) *FixedSessionGenerator {
	if token == "" {
		token = DefaultSession
	}
	return &FixedSessionGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedSessionGenerator) Generate() string {
	return g.token
}
