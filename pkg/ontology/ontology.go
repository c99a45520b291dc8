// Package ontology defines the read-only type hierarchy queried by term
// comparison, plus an in-memory implementation loaded from the TRIPS ontology
// JSON export.
package ontology

// Entry is a resolved ontology type.
type Entry interface {
	Name() string
	// Equal reports whether both entries denote the same type.
	Equal(other Entry) bool
	// IsAncestorOf reports strict subsumption: the receiver is a proper
	// ancestor of other.
	IsAncestorOf(other Entry) bool
}

// Context answers type lookups. Implementations must be safe for concurrent
// readers; matching never writes to it.
type Context interface {
	Lookup(id string) (Entry, bool)
}

type emptyContext struct{}

func (emptyContext) Lookup(string) (Entry, bool) { return nil, false }

// Empty resolves nothing. Term comparison then falls back to string identity.
var Empty Context = emptyContext{}
