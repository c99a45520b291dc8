package repl

import "github.com/duynguyendang/tripsim/pkg/frame"

const maxHistory = 5

// Session keeps the template and parse the user is working on.
type Session struct {
	RulesText string
	Parse     frame.Parse
	ParseText string

	History []Turn
}

// Turn is one match or grade and its headline score.
type Turn struct {
	Command string
	Score   float64
	Winner  string
}

func NewSession() *Session {
	return &Session{History: make([]Turn, 0, maxHistory)}
}

// AddTurn appends a turn, keeping only the most recent ones.
func (s *Session) AddTurn(t Turn) {
	s.History = append(s.History, t)
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// Ready reports whether both sides of a match are set.
func (s *Session) Ready() bool {
	return s.RulesText != "" && s.Parse != nil
}
